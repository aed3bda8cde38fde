package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/metrics"
	"github.com/Skotchmaster/course_market/pkg/db"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

type Deps struct {
	DB       *gorm.DB
	Resolver *access.Resolver
	Metrics  *metrics.Metrics

	Auth     *AuthHTTP
	Admin    *AdminHTTP
	Users    *UserHTTP
	Catalog  *CatalogHTTP
	Sessions *SessionHTTP
	Engage   *EngagementHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	gates := access.Gates{}
	if d.Metrics != nil {
		e.GET("/metrics", d.Metrics.Handler())
		gates.OnDeny = d.Metrics.Denied
	}

	v1 := e.Group("/api/v1", d.Resolver.Pipeline()...)

	auth := v1.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.LogOut)
	auth.GET("/me", d.Auth.Me, gates.RequireTier("You should be logged in", access.LoggedIn...))

	admin := v1.Group("/admin")
	admin.POST("/ban-user/:violatorId", d.Admin.BanUser,
		gates.RequireTier("Only admins is allowed to ban a user", access.Admins...))
	admin.POST("/unban-user/:violatorId", d.Admin.UnbanUser,
		gates.RequireTier("Only admins is allowed to unban a user", access.Admins...))
	admin.GET("/get-all-users", d.Admin.GetAllUsers,
		gates.RequireTier("Only admins is allowed to get all users", access.Admins...))
	admin.DELETE("/delete-user/:userId", d.Admin.DeleteUser,
		gates.RequireTier("Only admins is allowed to delete a user", access.Admins...))
	admin.PATCH("/update-user-role/:userId", d.Admin.UpdateUserRole,
		gates.RequireTier("Only admins is allowed to promote a user", access.Admins...))
	admin.DELETE("/delete-course/:courseId", d.Admin.DeleteCourse,
		gates.RequireTier("Only admins is allowed to delete a course", access.Admins...))
	admin.GET("/get-not-approved-comments/:page/:count", d.Admin.GetNotApprovedComments,
		gates.RequireTier("Only admins is allowed to get all not approved comments", access.Admins...))
	admin.PATCH("/approve-comment/:commentId", d.Admin.ApproveComment,
		gates.RequireTier("Only admins is allowed to approve a comment", access.Admins...))
	admin.DELETE("/delete-comment/:commentId", d.Admin.DeleteComment,
		gates.RequireTier("Only admins is allowed to delete a comment", access.Admins...))
	admin.POST("/reply-to-comment/:commentId", d.Admin.ReplyToComment,
		gates.RequireTier("Only admins is allowed to reply to a comment", access.Admins...))

	user := v1.Group("/user")
	user.POST("/create", d.Users.Create,
		gates.RequireTier("Only admins is allowed to create a user", access.Admins...))
	user.DELETE("/delete/:targetUserId", d.Users.Delete,
		gates.RequireTier("You should be logged in to delete a user", access.LoggedIn...),
		gates.Gate(SelfOrAdmin))

	course := v1.Group("/course")
	course.POST("/create", d.Catalog.CreateCourse,
		gates.RequireTier("Only admins and teachers are allowed to create a course", access.Staff...))
	course.POST("/purchase/:courseId", d.Catalog.PurchaseCourse,
		gates.RequireTier("You should be logged in to purchase a course", access.LoggedIn...),
		gates.RequireTier("You have already purchased this course", access.Students...))
	course.GET("/search", d.Catalog.Search)
	course.GET("/category/:categoryId", d.Catalog.CoursesByCategory)
	course.GET("/related-courses/:courseId/:count", d.Catalog.RelatedCourses)
	course.GET("/:courseId", d.Catalog.GetCourse)

	category := v1.Group("/course-category")
	category.POST("/create", d.Catalog.CreateCategory,
		gates.RequireTier("Only admins is allowed to create a course category", access.Admins...))
	category.PUT("/edit/:id", d.Catalog.EditCategory,
		gates.RequireTier("Only admins is allowed to edit a course category", access.Admins...))
	category.DELETE("/delete/:id", d.Catalog.DeleteCategory,
		gates.RequireTier("Only admins is allowed to delete a course category", access.Admins...))
	category.GET("/get-all", d.Catalog.GetAllCategories)

	session := v1.Group("/session")
	session.POST("/create", d.Sessions.Create,
		gates.RequireTier("Only admins and teachers are allowed to create a session", access.Staff...))
	session.GET("/get-all", d.Sessions.GetAll,
		gates.RequireTier("Only admins and teachers are allowed to get all sessions", access.Staff...))
	session.GET("/get-by-id/:sessionId", d.Sessions.GetByID)
	session.GET("/get-by-course-id/:courseId", d.Sessions.GetByCourseID)
	session.GET("/get-by-slug/:sessionSlug", d.Sessions.GetBySlug)

	comment := v1.Group("/comment")
	comment.POST("/create", d.Engage.CreateComment,
		gates.RequireTier("You should be logged in to create a comment", access.LoggedIn...))

	rating := v1.Group("/rating")
	rating.POST("/create/:courseId", d.Engage.CreateRating,
		gates.RequireTier("You should be logged in to create a rating", access.LoggedIn...))
}
