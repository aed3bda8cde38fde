package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/validate"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// newUserFrom validates the registration fields shared by sign up and admin
// user creation.
func newUserFrom(b validate.Body) (service.NewUser, error) {
	var (
		in  service.NewUser
		err error
	)
	if in.Name, err = validate.Name(b.Get("name")); err != nil {
		return in, err
	}
	if in.Username, err = validate.Username(b.Get("username")); err != nil {
		return in, err
	}
	if in.Email, err = validate.Email(b.Get("email")); err != nil {
		return in, err
	}
	if in.Password, err = validate.Password("Password", b.Get("password")); err != nil {
		return in, err
	}
	if confirm, _ := b.Get("confirmPassword").(string); confirm != in.Password {
		return in, &validate.FieldError{Field: "confirmPassword", Message: "Password and confirm password do not match"}
	}
	if in.Phone, err = validate.Phone(b.Get("phone")); err != nil {
		return in, err
	}
	return in, nil
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	b, err := bindBody(c)
	if err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}
	in, err := newUserFrom(b)
	if err != nil {
		l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
		return err
	}

	res, err := h.Svc.Register(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "User registered successfully",
		"user":        res.User,
		"accessToken": res.AccessToken,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	b, err := bindBody(c)
	if err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}
	identifier, _ := b.Get("identifier").(string)
	if identifier == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email or username is required")
	}
	password, ok := b.Get("password").(string)
	if b.Get("password") == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Password is required")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be a valid string")
	}

	res, err := h.Svc.Login(ctx, identifier, password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Login successful",
		"user":        res.User,
		"accessToken": res.AccessToken,
	})
}

// LogOut acknowledges the request. Tokens are stateless and expire on their own.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	logging.FromContext(c.Request().Context()).Info("successful_logout", "user", access.FromEcho(c).UserID())
	return respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	p := access.FromEcho(c)
	return respond(c, http.StatusOK, "User fetched successfully", echo.Map{"user": p.Identity})
}
