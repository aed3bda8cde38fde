package repo

import (
	"context"

	"github.com/Skotchmaster/course_market/internal/models"
)

func (r *GormRepo) CountSessions(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Session{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) GetSessionBySlug(ctx context.Context, slug string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) SessionsByCourse(ctx context.Context, courseID string) ([]models.Session, error) {
	items := []models.Session{}
	err := r.DB.WithContext(ctx).Where("course_id = ?", courseID).Order("number ASC").Find(&items).Error
	return items, err
}

func (r *GormRepo) ListSessions(ctx context.Context, offset, limit int, asc bool) (int64, []models.Session, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	items := []models.Session{}
	err := r.DB.WithContext(ctx).
		Order("created_at " + orderDirection(asc)).
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
