package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/validate"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

const (
	msgInternal    = "Internal server error"
	msgInvalidJSON = "Invalid JSON format in request body"
	msgBodyMissing = "Request body is required"
)

var (
	errInvalidJSON = echo.NewHTTPError(http.StatusBadRequest, msgInvalidJSON)
	errBodyMissing = echo.NewHTTPError(http.StatusBadRequest, msgBodyMissing)
)

func respond(c echo.Context, status int, message string, data any) error {
	body := echo.Map{"message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

// bindBody decodes the request body into a JSON object. Absent bodies are
// rejected.
func bindBody(c echo.Context) (validate.Body, error) {
	if c.Request().ContentLength == 0 {
		return nil, errBodyMissing
	}
	var b validate.Body
	if err := new(echo.DefaultBinder).BindBody(c, &b); err != nil {
		return nil, errInvalidJSON
	}
	if b == nil {
		return nil, errBodyMissing
	}
	return b, nil
}

// statusOf maps an error returned by a handler to its response.
func statusOf(err error) (int, string) {
	var (
		he *echo.HTTPError
		fe *validate.FieldError
		se *service.Error
	)
	switch {
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	case errors.As(err, &fe):
		return http.StatusBadRequest, fe.Message
	case errors.As(err, &se):
		if errors.Is(se, service.ErrForbidden) {
			return http.StatusForbidden, se.Message
		}
		return http.StatusBadRequest, se.Message
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// ErrorHandler renders every error as {"message": ...}. Unexpected errors
// are logged and hidden behind a generic message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", status, "path", c.Path(), "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, echo.Map{"message": msg})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response_failed", "error", werr)
	}
}
