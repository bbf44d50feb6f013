package campusdapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidAuthToken     = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHTTPForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHTTPNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// newHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to
// handle our errors. signalShutdown is called to gracefully stop the server
// whenever a core shutdown error is caught.
func newHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		resp := errorResponse{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				resp.Message = msg
			} else {
				resp.Message = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
			if resp.Message == "" {
				resp.Message = "validation failed"
			}
			resp.Errors = origErr.FieldMap()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			resp.Message = http.StatusText(code)
			logger.Error(resp.Message, errors.Wrap(err, resp.Message))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if !ctx.Response().Committed {
			var err error
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
