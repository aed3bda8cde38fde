package access

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

const DefaultDenyMessage = "Access denied"

// Guard decides whether a classified request may continue. A non-nil error
// is returned to the client as is.
type Guard interface {
	Check(c echo.Context, p Principal) error
}

type GuardFunc func(c echo.Context, p Principal) error

func (f GuardFunc) Check(c echo.Context, p Principal) error { return f(c, p) }

type TierGuard struct {
	Allowed []Tier
	Message string
}

func (g TierGuard) Check(_ echo.Context, p Principal) error {
	if slices.Contains(g.Allowed, p.Tier) {
		return nil
	}
	return Deny(g.Message)
}

func Deny(message string) error {
	if message == "" {
		message = DefaultDenyMessage
	}
	return echo.NewHTTPError(http.StatusForbidden, message)
}

// Gates builds gate middleware. OnDeny, when set, observes every rejection.
type Gates struct {
	OnDeny func(c echo.Context, p Principal)
}

func (g Gates) Gate(guards ...Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := FromEcho(c)
			for _, guard := range guards {
				if err := guard.Check(c, p); err != nil {
					if g.OnDeny != nil {
						g.OnDeny(c, p)
					}
					return err
				}
			}
			return next(c)
		}
	}
}

func (g Gates) RequireTier(message string, tiers ...Tier) echo.MiddlewareFunc {
	return g.Gate(TierGuard{Allowed: tiers, Message: message})
}

func Gate(guards ...Guard) echo.MiddlewareFunc {
	return Gates{}.Gate(guards...)
}

func RequireTier(message string, tiers ...Tier) echo.MiddlewareFunc {
	return Gates{}.RequireTier(message, tiers...)
}
