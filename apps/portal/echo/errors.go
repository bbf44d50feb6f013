package portalweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core"
)

func errTemplateNotFound(name string) error {
	return errors.Errorf("page template %q not found", name)
}

// newHTTPErrorHandler renders errors as pages. Anything unexpected becomes a
// logged 500; shutdown errors additionally stop the server gracefully.
func (s *Server) newHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := http.StatusInternalServerError
		message := "Something went wrong on our side."

		if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
			code = herr.Code
			if msg, ok := herr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		} else {
			s.deps.Logger.Error(message, errors.Wrap(err, "unhandled error"))
			if core.IsShutdown(err) {
				s.signalShutdown()
			}
		}

		if ctx.Response().Committed {
			return
		}
		if code == http.StatusNotFound {
			err = s.renderPage(ctx, code, "notfound", pageData{Title: "Page not found"})
		} else {
			err = s.renderPage(ctx, code, "error", pageData{
				Title: "Error",
				Data:  message,
			})
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
