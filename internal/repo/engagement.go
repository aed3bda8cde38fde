package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/course_market/internal/models"
)

func (r *GormRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) ApproveComment(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("approved", true).Error
}

// DeleteComment removes the comment and its replies.
func (r *GormRepo) DeleteComment(ctx context.Context, id string) (int64, error) {
	db := r.DB.WithContext(ctx)
	if err := db.Where("reply_to = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("id = ?", id).Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) NotApprovedComments(ctx context.Context, offset, limit int) (int64, []models.Comment, error) {
	var total int64
	q := r.DB.WithContext(ctx).Model(&models.Comment{}).Where("approved = ?", false).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	items := []models.Comment{}
	if err := q.Order("created_at ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ApprovedComments returns approved top level comments and approved replies of a course.
func (r *GormRepo) ApprovedComments(ctx context.Context, courseID string) (comments, replies []models.Comment, err error) {
	var all []models.Comment
	if err := r.DB.WithContext(ctx).
		Where("course_id = ? AND approved = ?", courseID, true).
		Order("created_at ASC").
		Find(&all).Error; err != nil {
		return nil, nil, err
	}
	comments, replies = []models.Comment{}, []models.Comment{}
	for _, c := range all {
		if c.IsReply {
			replies = append(replies, c)
		} else {
			comments = append(comments, c)
		}
	}
	return comments, replies, nil
}

func (r *GormRepo) CreateRating(ctx context.Context, rt *models.CourseRating) error {
	return r.DB.WithContext(ctx).Create(rt).Error
}

func (r *GormRepo) HasRated(ctx context.Context, userID, courseID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.CourseRating{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error
	return n > 0, err
}

type RatingSummary struct {
	Average float64
	Total   int64
}

func (r *GormRepo) RatingSummary(ctx context.Context, courseID string) (RatingSummary, error) {
	var out struct {
		Avg   *float64
		Total int64
	}
	err := r.DB.WithContext(ctx).Model(&models.CourseRating{}).
		Select("AVG(rating) AS avg, COUNT(*) AS total").
		Where("course_id = ?", courseID).
		Scan(&out).Error
	if err != nil {
		return RatingSummary{}, err
	}
	s := RatingSummary{Total: out.Total}
	if out.Avg != nil {
		s.Average = *out.Avg
	}
	return s, nil
}

func (r *GormRepo) CreatePurchase(ctx context.Context, p *models.UserCourse) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) HasPurchased(ctx context.Context, userID, courseID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CountPurchases(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.UserCourse{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}
