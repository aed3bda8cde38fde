package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/Skotchmaster/course_market/internal/validate"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func categoryFields(b validate.Body) (name, href string, err error) {
	if name, err = validate.Title("Name", b.Get("name")); err != nil {
		return "", "", err
	}
	if href, err = validate.Href("Href", b.Get("href")); err != nil {
		return "", "", err
	}
	return name, href, nil
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	b, err := bindBody(c)
	if err != nil {
		return err
	}
	name, href, err := categoryFields(b)
	if err != nil {
		return err
	}
	cat, err := h.Svc.CreateCategory(c.Request().Context(), name, href)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Course category created successfully", echo.Map{"courseCategory": cat})
}

func (h *CatalogHTTP) EditCategory(c echo.Context) error {
	id, err := validate.ID("Category ID", c.Param("id"))
	if err != nil {
		return err
	}
	b, err := bindBody(c)
	if err != nil {
		return err
	}
	name, href, err := categoryFields(b)
	if err != nil {
		return err
	}
	cat, err := h.Svc.EditCategory(c.Request().Context(), id, name, href)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Course category updated successfully", echo.Map{"courseCategory": cat})
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	id, err := validate.ID("Category ID", c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteCategory(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Course category deleted successfully", nil)
}

func (h *CatalogHTTP) GetAllCategories(c echo.Context) error {
	cats, err := h.Svc.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Course categories fetched successfully", echo.Map{"courseCategories": cats})
}

func (h *CatalogHTTP) CreateCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.create")

	b, err := bindBody(c)
	if err != nil {
		return err
	}

	var in service.NewCourse
	if in.Title, err = validate.Title("Title", b.Get("title")); err != nil {
		return err
	}
	if in.CategoryID, err = validate.ID("Category ID", b.Get("categoryId")); err != nil {
		return err
	}
	if in.Description, err = validate.Description("Description", b.Get("description"), 2000, 10); err != nil {
		return err
	}
	if in.CoverName, err = validate.FileName("Cover name", b.Get("coverName")); err != nil {
		return err
	}
	if _, err = validate.FileType("Cover type", b.Get("coverType"), validate.KindImage); err != nil {
		return err
	}
	if in.Slug, err = validate.Slug("Slug", b.Get("slug")); err != nil {
		return err
	}
	if in.Price, err = validate.Price("Price", b.Get("price"), 500); err != nil {
		return err
	}
	if b.Get("discountPercentage") != nil {
		if in.Discount, err = validate.Discount("Discount percentage", b.Get("discountPercentage")); err != nil {
			return err
		}
	}

	created, err := h.Svc.CreateCourse(ctx, access.FromEcho(c).Identity, in)
	if err != nil {
		l.Warn("create_course_failed", "error", err)
		return err
	}
	return respond(c, http.StatusCreated, "Course created successfully", created)
}

func (h *CatalogHTTP) PurchaseCourse(c echo.Context) error {
	id, err := validate.ID("Course ID", c.Param("courseId"))
	if err != nil {
		return err
	}
	p, err := h.Svc.Purchase(c.Request().Context(), access.FromEcho(c).Identity, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Course purchased successfully", echo.Map{"userCourse": p})
}

func (h *CatalogHTTP) CoursesByCategory(c echo.Context) error {
	id, err := validate.ID("Category ID", c.Param("categoryId"))
	if err != nil {
		return err
	}
	res, err := h.Svc.CoursesByCategory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if len(res.Courses) == 0 {
		return respond(c, http.StatusOK, res.Category.Name+" has no courses yet", echo.Map{"courses": res.Courses})
	}
	return respond(c, http.StatusOK, "Courses fetched successfully", echo.Map{"courses": res.Courses})
}

func (h *CatalogHTTP) GetCourse(c echo.Context) error {
	id, err := validate.ID("Course ID", c.Param("courseId"))
	if err != nil {
		return err
	}
	d, err := h.Svc.CourseDetails(c.Request().Context(), access.FromEcho(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Course fetched successfully", d)
}

func (h *CatalogHTTP) RelatedCourses(c echo.Context) error {
	id, err := validate.ID("Course ID", c.Param("courseId"))
	if err != nil {
		return err
	}
	count, err := validate.PositiveNumber("Count", validate.ParamNumber(c.Param("count")))
	if err != nil {
		return err
	}
	related, err := h.Svc.RelatedCourses(c.Request().Context(), id, count)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Related courses fetched successfully", echo.Map{"relatedCourses": related})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query is required")
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.SearchCourses(c.Request().Context(), q, page, size)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Courses fetched successfully", res)
}
