package repo

import (
	"context"

	"github.com/Skotchmaster/course_market/internal/models"
)

// FindUser returns (nil, nil) when the identity does not exist.
func (r *GormRepo) FindUser(ctx context.Context, id string) (*models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (r *GormRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByLogin matches the identifier against username or email.
func (r *GormRepo) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserFieldTaken checks one of the unique identity columns.
func (r *GormRepo) UserFieldTaken(ctx context.Context, column, value string) (bool, error) {
	switch column {
	case "username", "email", "phone":
	default:
		return false, nil
	}
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

func (r *GormRepo) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&n).Error
	return n, err
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.User
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) UsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *GormRepo) SetRole(ctx context.Context, id string, role models.Role) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role).Error
}

func (r *GormRepo) SetBanned(ctx context.Context, id string, banned bool) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_banned", banned).Error
}

// DeleteUser removes the identity with its ban record, purchases, ratings and comments.
func (r *GormRepo) DeleteUser(ctx context.Context, id string) error {
	db := r.DB.WithContext(ctx)
	for _, m := range []any{&models.BannedUser{}, &models.UserCourse{}, &models.CourseRating{}, &models.Comment{}} {
		if err := db.Where("user_id = ?", id).Delete(m).Error; err != nil {
			return err
		}
	}
	return db.Where("id = ?", id).Delete(&models.User{}).Error
}

func (r *GormRepo) CreateBan(ctx context.Context, b *models.BannedUser) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

// DeleteBan returns the number of removed records.
func (r *GormRepo) DeleteBan(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.BannedUser{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) GetBan(ctx context.Context, userID string) (*models.BannedUser, error) {
	var b models.BannedUser
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
