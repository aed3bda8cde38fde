package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/course_market/internal/models"
)

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.CourseCategory) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) GetCategory(ctx context.Context, id string) (*models.CourseCategory, error) {
	var c models.CourseCategory
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryTaken reports another category using the name or href.
func (r *GormRepo) CategoryTaken(ctx context.Context, name, href, exceptID string) (nameTaken, hrefTaken bool, err error) {
	var rows []models.CourseCategory
	q := r.DB.WithContext(ctx).Where("name = ? OR href = ?", name, href)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return false, false, err
	}
	for _, c := range rows {
		nameTaken = nameTaken || c.Name == name
		hrefTaken = hrefTaken || c.Href == href
	}
	return nameTaken, hrefTaken, nil
}

func (r *GormRepo) UpdateCategory(ctx context.Context, c *models.CourseCategory) error {
	return r.DB.WithContext(ctx).Model(c).Updates(map[string]any{"name": c.Name, "href": c.Href}).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.CourseCategory{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.CourseCategory, error) {
	var items []models.CourseCategory
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *GormRepo) CountCoursesInCategory(ctx context.Context, categoryID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Course{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

func (r *GormRepo) CreateCourse(ctx context.Context, c *models.Course) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var c models.Course
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Course{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CoursesByCategory(ctx context.Context, categoryID string) ([]models.Course, error) {
	items := []models.Course{}
	err := r.DB.WithContext(ctx).Where("category_id = ?", categoryID).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *GormRepo) RelatedCourses(ctx context.Context, c *models.Course, limit int) ([]models.Course, error) {
	items := []models.Course{}
	err := r.DB.WithContext(ctx).
		Where("category_id = ? AND id <> ?", c.CategoryID, c.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// SearchCourses is a case insensitive title and description match.
func (r *GormRepo) SearchCourses(ctx context.Context, q string, offset, limit int) (int64, []models.Course, error) {
	like := "%" + q + "%"
	base := r.DB.WithContext(ctx).Model(&models.Course{}).
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	items := []models.Course{}
	if err := base.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// DeleteCourse removes the course and everything hanging off it.
func (r *GormRepo) DeleteCourse(ctx context.Context, id string) (int64, error) {
	db := r.DB.WithContext(ctx)
	for _, m := range []any{&models.Session{}, &models.Comment{}, &models.CourseRating{}, &models.UserCourse{}} {
		if err := db.Where("course_id = ?", id).Delete(m).Error; err != nil {
			return 0, err
		}
	}
	res := db.Where("id = ?", id).Delete(&models.Course{})
	return res.RowsAffected, res.Error
}
