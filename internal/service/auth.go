package service

import (
	"context"
	"strings"
	"time"

	"github.com/Skotchmaster/course_market/internal/events"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	pkghash "github.com/Skotchmaster/course_market/pkg/hash"
	"github.com/Skotchmaster/course_market/pkg/logging"
	"github.com/Skotchmaster/course_market/pkg/tokens"
)

type AuthService struct {
	Repo     *repo.GormRepo
	Tokens   *tokens.Codec
	TokenTTL time.Duration
	Events   events.Publisher
}

type NewUser struct {
	Name     string
	Username string
	Email    string
	Phone    string
	Password string
	Role     models.Role
}

type AuthResult struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

func (s *AuthService) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return tokens.LongLived
}

// Register creates an identity. The first identity ever registered becomes
// an admin, every later one a user.
func (s *AuthService) Register(ctx context.Context, in NewUser) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", in.Username)

	in.Role = ""
	u, err := createUser(ctx, s.Repo, in)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.Tokens.Sign(u.ID, s.ttl())
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, err
	}

	publish(ctx, l, s.Events, events.TopicUsers, u.ID, events.New("user_registered", u.ID, map[string]any{
		"username": u.Username,
		"role":     u.Role,
	}))
	l.Info("register_successful", "role", u.Role)

	return &AuthResult{User: u, AccessToken: token, ExpiresAt: exp}, nil
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	l := logging.FromContext(ctx).With("svc", "auth.login", "identifier", identifier)

	u, err := s.Repo.GetUserByLogin(ctx, identifier)
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("login_failed", "status", 400, "reason", "unknown identifier")
			return nil, invalid("Invalid credentials")
		}
		return nil, err
	}

	if u.IsBanned {
		l.Warn("login_failed", "status", 400, "reason", "banned")
		return nil, invalid("Access denied, your account has been banned")
	}

	if !pkghash.CheckPassword(u.PasswordHash, password) {
		l.Warn("login_failed", "status", 400, "reason", "wrong password")
		return nil, invalid("Invalid credentials")
	}

	token, exp, err := s.Tokens.Sign(u.ID, s.ttl())
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, err
	}

	l.Info("login_successful")
	return &AuthResult{User: u, AccessToken: token, ExpiresAt: exp}, nil
}

// createUser checks uniqueness, hashes the password and stores the identity.
// An empty role means "first identity is admin, others are users"; the count
// and insert share a transaction.
func createUser(ctx context.Context, r *repo.GormRepo, in NewUser) (*models.User, error) {
	if err := checkUnique(ctx, r, in); err != nil {
		return nil, err
	}

	pwHash, err := pkghash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(pwHash),
		Role:         in.Role,
	}

	err = r.Transaction(ctx, func(tx *repo.GormRepo) error {
		if u.Role == "" {
			n, err := tx.CountUsers(ctx)
			if err != nil {
				return err
			}
			u.Role = models.RoleUser
			if n == 0 {
				u.Role = models.RoleAdmin
			}
		}
		return tx.CreateUser(ctx, u)
	})
	if err != nil {
		if repo.IsDuplicate(err) {
			if uerr := checkUnique(ctx, r, in); uerr != nil {
				return nil, uerr
			}
			return nil, conflict("User already exists")
		}
		return nil, err
	}
	return u, nil
}

func checkUnique(ctx context.Context, r *repo.GormRepo, in NewUser) error {
	checks := []struct {
		column, value, message string
	}{
		{"username", in.Username, "Username is already taken"},
		{"email", in.Email, "Email is already taken"},
		{"phone", in.Phone, "Phone number is already taken"},
	}
	for _, c := range checks {
		taken, err := r.UserFieldTaken(ctx, c.column, c.value)
		if err != nil {
			return err
		}
		if taken {
			return conflict(c.message)
		}
	}
	return nil
}
