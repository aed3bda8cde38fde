package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/validate"
)

type EngagementHTTP struct {
	Svc *service.EngagementService
}

func (h *EngagementHTTP) CreateComment(c echo.Context) error {
	b, err := bindBody(c)
	if err != nil {
		return err
	}

	var in service.NewComment
	if in.CourseID, err = validate.ID("Course ID", b.Get("courseId")); err != nil {
		return err
	}
	if in.SessionID, err = validate.ID("Session ID", b.Get("sessionId")); err != nil {
		return err
	}
	if in.Text, err = validate.Description("Comment", b.Get("comment"), 2000, 10); err != nil {
		return err
	}
	if in.IsReply, err = validate.Bool("Is it reply", b.Get("isItReply")); err != nil {
		return err
	}
	if in.IsReply {
		if in.ReplyTo, err = validate.ID("Reply to", b.Get("replyTo")); err != nil {
			return err
		}
	}

	cm, err := h.Svc.Comment(c.Request().Context(), access.FromEcho(c).Identity, in)
	if err != nil {
		return err
	}
	if cm.IsReply {
		return respond(c, http.StatusCreated, "Reply created successfully", echo.Map{"reply": cm})
	}
	return respond(c, http.StatusCreated, "Comment created successfully", echo.Map{"comment": cm})
}

func (h *EngagementHTTP) CreateRating(c echo.Context) error {
	courseID, err := validate.ID("Course ID", c.Param("courseId"))
	if err != nil {
		return err
	}
	b, err := bindBody(c)
	if err != nil {
		return err
	}
	rating, err := validate.Rate("Rating", b.Get("rating"))
	if err != nil {
		return err
	}

	r, err := h.Svc.Rate(c.Request().Context(), access.FromEcho(c).Identity, courseID, rating)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Rating created successfully", echo.Map{"rating": r})
}
