package access

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/pkg/logging"
	"github.com/Skotchmaster/course_market/pkg/tokens"
)

// IdentityStore looks an identity up by id. A missing identity is (nil, nil).
type IdentityStore interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
}

type Resolver struct {
	Tokens *tokens.Codec
	Store  IdentityStore
}

// Resolve turns an Authorization header into an identity. Missing, malformed
// or expired credentials and banned or deleted identities all resolve to nil.
// Only a failing store yields an error.
func (r *Resolver) Resolve(ctx context.Context, header string) (*models.User, error) {
	raw := tokens.FromAuthorizationHeader(header)
	if raw == "" {
		return nil, nil
	}

	v := r.Tokens.Verify(raw)
	if !v.OK() {
		logging.FromContext(ctx).Debug("credential_rejected", "error", v.Err)
		return nil, nil
	}

	u, err := r.Store.FindUser(ctx, v.Subject())
	if err != nil {
		return nil, err
	}
	if u == nil || u.IsBanned {
		return nil, nil
	}
	return u, nil
}

func (r *Resolver) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			u, err := r.Resolve(ctx, c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				logging.FromContext(ctx).Error("resolve_identity_failed", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
			}
			bind(c, Principal{Identity: u})
			return next(c)
		}
	}
}

// Classifier must run after Authenticate.
func Classifier() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := FromEcho(c)
			bind(c, Principal{Identity: p.Identity, Tier: Classify(p.Identity)})
			return next(c)
		}
	}
}

// Pipeline is the resolve then classify chain every route group starts with.
func (r *Resolver) Pipeline() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{r.Authenticate(), Classifier()}
}
