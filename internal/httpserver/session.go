package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/Skotchmaster/course_market/internal/validate"
)

type SessionHTTP struct {
	Svc *service.SessionService
}

func (h *SessionHTTP) Create(c echo.Context) error {
	b, err := bindBody(c)
	if err != nil {
		return err
	}

	var in service.NewSession
	if in.CourseID, err = validate.ID("Course ID", b.Get("courseId")); err != nil {
		return err
	}
	if in.Title, err = validate.Title("Title", b.Get("title")); err != nil {
		return err
	}
	if in.Duration, err = validate.Duration("Duration", b.Get("duration")); err != nil {
		return err
	}
	if in.Description, err = validate.Description("Description", b.Get("description"), 2000, 10); err != nil {
		return err
	}
	if in.Free, err = validate.Bool("Is free", b.Get("isFree")); err != nil {
		return err
	}
	if _, err = validate.FileType("Image type", b.Get("imageType"), validate.KindImage); err != nil {
		return err
	}
	if _, err = validate.FileType("Video type", b.Get("videoType"), validate.KindVideo); err != nil {
		return err
	}

	created, err := h.Svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Session created successfully", created)
}

func (h *SessionHTTP) GetAll(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	asc := c.QueryParam("orderBy") == "asc"

	sessions, err := h.Svc.List(c.Request().Context(), page, limit, asc)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Sessions fetched successfully", sessions)
}

func (h *SessionHTTP) GetByID(c echo.Context) error {
	id, err := validate.ID("Session ID", c.Param("sessionId"))
	if err != nil {
		return err
	}
	v, err := h.Svc.ByID(c.Request().Context(), access.FromEcho(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Session fetched successfully", v)
}

func (h *SessionHTTP) GetByCourseID(c echo.Context) error {
	id, err := validate.ID("Course ID", c.Param("courseId"))
	if err != nil {
		return err
	}
	v, err := h.Svc.ByCourse(c.Request().Context(), access.FromEcho(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Sessions fetched successfully", v)
}

func (h *SessionHTTP) GetBySlug(c echo.Context) error {
	slug, err := validate.Slug("Session slug", c.Param("sessionSlug"))
	if err != nil {
		return err
	}
	v, err := h.Svc.BySlug(c.Request().Context(), access.FromEcho(c), slug)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Session fetched successfully", v)
}
