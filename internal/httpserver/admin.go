package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/Skotchmaster/course_market/internal/validate"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

type AdminHTTP struct {
	Svc *service.AdminService
}

func (h *AdminHTTP) BanUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.ban_user")

	id, err := validate.ID("Violator ID", c.Param("violatorId"))
	if err != nil {
		return err
	}
	// The reason is optional, so an absent body is fine.
	var reason string
	if c.Request().ContentLength != 0 {
		b, err := bindBody(c)
		if err != nil {
			return err
		}
		if reason, err = validate.Optional(b.Get("reason"), func(v any) (string, error) {
			return validate.Description("Reason", v, 500, 3)
		}); err != nil {
			return err
		}
	}

	if _, err := h.Svc.Ban(ctx, access.FromEcho(c).Identity, id, reason); err != nil {
		return err
	}
	l.Info("ban_user_success", "target", id)
	return respond(c, http.StatusOK, "User banned successfully", nil)
}

func (h *AdminHTTP) UnbanUser(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := validate.ID("Violator ID", c.Param("violatorId"))
	if err != nil {
		return err
	}
	if err := h.Svc.Unban(ctx, access.FromEcho(c).Identity, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User unbanned successfully", nil)
}

func (h *AdminHTTP) GetAllUsers(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	users, err := h.Svc.Users(c.Request().Context(), page, size)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Users fetched successfully", users)
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	id, err := validate.ID("User ID", c.Param("userId"))
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteUser(c.Request().Context(), access.FromEcho(c).Identity, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User deleted successfully", nil)
}

func (h *AdminHTTP) UpdateUserRole(c echo.Context) error {
	id, err := validate.ID("User ID", c.Param("userId"))
	if err != nil {
		return err
	}
	b, err := bindBody(c)
	if err != nil {
		return err
	}
	role, err := validate.Role(b.Get("role"))
	if err != nil {
		return err
	}

	u, err := h.Svc.UpdateRole(c.Request().Context(), access.FromEcho(c).Identity, id, role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User role updated successfully", echo.Map{"user": u})
}

func (h *AdminHTTP) DeleteCourse(c echo.Context) error {
	id, err := validate.ID("Course ID", c.Param("courseId"))
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteCourse(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Course deleted successfully", nil)
}

func (h *AdminHTTP) GetNotApprovedComments(c echo.Context) error {
	page, err := validate.PositiveNumber("Page", validate.ParamNumber(c.Param("page")))
	if err != nil {
		return err
	}
	count, err := validate.PositiveNumber("Count", validate.ParamNumber(c.Param("count")))
	if err != nil {
		return err
	}

	comments, err := h.Svc.PendingComments(c.Request().Context(), page, count)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Not approved comments fetched successfully", comments)
}

func (h *AdminHTTP) ApproveComment(c echo.Context) error {
	id, err := validate.ID("Comment ID", c.Param("commentId"))
	if err != nil {
		return err
	}
	cm, err := h.Svc.ApproveComment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Comment approved successfully", echo.Map{"comment": cm})
}

func (h *AdminHTTP) DeleteComment(c echo.Context) error {
	id, err := validate.ID("Comment ID", c.Param("commentId"))
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteComment(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Comment deleted successfully", nil)
}

func (h *AdminHTTP) ReplyToComment(c echo.Context) error {
	id, err := validate.ID("Comment ID", c.Param("commentId"))
	if err != nil {
		return err
	}
	b, err := bindBody(c)
	if err != nil {
		return err
	}
	text, err := validate.Description("Comment", b.Get("comment"), 2000, 10)
	if err != nil {
		return err
	}

	reply, err := h.Svc.Reply(c.Request().Context(), access.FromEcho(c).Identity, id, text)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Reply created successfully", echo.Map{"reply": reply})
}
