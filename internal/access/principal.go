package access

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/models"
)

type principalKey struct{}

// Principal is the per-request view of who is calling. The zero value is an
// anonymous caller.
type Principal struct {
	Identity *models.User
	Tier     Tier
}

func (p Principal) Authenticated() bool {
	return p.Identity != nil
}

func (p Principal) UserID() string {
	if p.Identity == nil {
		return ""
	}
	return p.Identity.ID
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Principal{}
}

func FromEcho(c echo.Context) Principal {
	return PrincipalFrom(c.Request().Context())
}

func bind(c echo.Context, p Principal) {
	req := c.Request()
	c.SetRequest(req.WithContext(WithPrincipal(req.Context(), p)))
}
