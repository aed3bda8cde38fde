package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/validate"
)

type UserHTTP struct {
	Svc *service.UserService
}

// SelfOrAdmin lets admins act on anyone and everybody else only on themselves.
var SelfOrAdmin = access.GuardFunc(func(c echo.Context, p access.Principal) error {
	if p.Tier == access.TierAdmin {
		return nil
	}
	if p.Authenticated() && p.UserID() == c.Param("targetUserId") {
		return nil
	}
	return access.Deny("You can only delete your own account")
})

func (h *UserHTTP) Create(c echo.Context) error {
	b, err := bindBody(c)
	if err != nil {
		return err
	}
	in, err := newUserFrom(b)
	if err != nil {
		return err
	}
	role := models.RoleUser
	if b.Get("role") != nil {
		if role, err = validate.Role(b.Get("role")); err != nil {
			return err
		}
	}
	in.Role = role

	u, err := h.Svc.Create(c.Request().Context(), access.FromEcho(c).Identity, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "User created successfully", echo.Map{"user": u})
}

func (h *UserHTTP) Delete(c echo.Context) error {
	id, err := validate.ID("Target user ID", c.Param("targetUserId"))
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), access.FromEcho(c).Identity, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User deleted successfully", nil)
}
