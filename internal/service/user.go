package service

import (
	"context"

	"github.com/Skotchmaster/course_market/internal/events"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

type UserService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Admin  *AdminService
}

// Create stores an identity with the role chosen by the operator.
func (s *UserService) Create(ctx context.Context, operator *models.User, in NewUser) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.create", "username", in.Username)

	if in.Role == "" {
		in.Role = models.RoleUser
	}
	u, err := createUser(ctx, s.Repo, in)
	if err != nil {
		l.Warn("create_user_failed", "error", err)
		return nil, err
	}

	publish(ctx, l, s.Events, events.TopicUsers, u.ID, events.New("user_created", u.ID, map[string]any{
		"role":      u.Role,
		"createdBy": operator.ID,
	}))
	l.Info("create_user_successful", "role", u.Role)
	return u, nil
}

// Delete removes an identity. Access is decided by the caller's gate; the
// last admin protection still applies.
func (s *UserService) Delete(ctx context.Context, operator *models.User, targetID string) error {
	return s.Admin.DeleteUser(ctx, operator, targetID)
}
