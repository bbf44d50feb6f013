package portalweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/services/toast"
	"github.com/campusgate/campusgate/services/upstream"
)

// fetchRecords pulls a collaborator resource for the signed-in user. A token
// rejection mid-session invalidates the session and bounces to the login page;
// done reports that a response has already been written.
func (s *Server) fetchRecords(ctx echo.Context, resource string, mine bool) (records upstream.Records, done bool, err error) {
	snap := contextStore(ctx).Snapshot()

	if mine {
		records, err = s.deps.Upstream.Resources().GetMine(ctx.Request().Context(), snap.Token, resource)
	} else {
		records, err = s.deps.Upstream.Resources().GetAll(ctx.Request().Context(), snap.Token, resource)
	}
	if err == nil {
		return records, false, nil
	}

	if errors.Is(err, auth.ErrInvalidToken) {
		contextStore(ctx).Invalidate(ctx.Request().Context())
		s.pushToast(ctx, toast.KindError, "Your session has expired. Please sign in again.")
		return nil, true, ctx.Redirect(http.StatusSeeOther, "/login")
	}

	s.pushToast(ctx, toast.KindError, authFlowToast(err))
	return nil, false, nil // render the page without records
}

// dashboard is the shared landing page; admins are sent on to their own.
func (s *Server) dashboard(ctx echo.Context) error {
	if contextStore(ctx).Snapshot().Role() == auth.RoleAdmin {
		return ctx.Redirect(http.StatusSeeOther, "/admin/dashboard")
	}
	return s.renderPage(ctx, http.StatusOK, "dashboard", pageData{Title: "Dashboard"})
}

func (s *Server) fees(ctx echo.Context) error {
	records, done, err := s.fetchRecords(ctx, "fees", true /* mine */)
	if done || err != nil {
		return err
	}
	return s.renderPage(ctx, http.StatusOK, "records", pageData{
		Title:   "Fees",
		Records: records,
	})
}

func (s *Server) library(ctx echo.Context) error {
	records, done, err := s.fetchRecords(ctx, "library", true /* mine */)
	if done || err != nil {
		return err
	}
	return s.renderPage(ctx, http.StatusOK, "records", pageData{
		Title:   "Library",
		Records: records,
	})
}

func (s *Server) notifications(ctx echo.Context) error {
	records, done, err := s.fetchRecords(ctx, "notifications", true /* mine */)
	if done || err != nil {
		return err
	}
	return s.renderPage(ctx, http.StatusOK, "records", pageData{
		Title:   "Notifications",
		Records: records,
	})
}

func (s *Server) profilePage(ctx echo.Context) error {
	return s.renderPage(ctx, http.StatusOK, "profile", pageData{Title: "Profile"})
}

// profileRefresh re-fetches the principal from the collaborator and merges it
// into the session without re-authenticating.
func (s *Server) profileRefresh(ctx echo.Context) error {
	store := contextStore(ctx)
	snap := store.Snapshot()

	principal, err := s.deps.Upstream.Profile(ctx.Request().Context(), snap.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			store.Invalidate(ctx.Request().Context())
			s.pushToast(ctx, toast.KindError, "Your session has expired. Please sign in again.")
			return ctx.Redirect(http.StatusSeeOther, "/login")
		}
		s.pushToast(ctx, toast.KindError, authFlowToast(err))
		return ctx.Redirect(http.StatusSeeOther, "/profile")
	}

	store.UpdatePrincipal(ctx.Request().Context(), principal)
	s.pushToast(ctx, toast.KindSuccess, "Profile refreshed.")
	return ctx.Redirect(http.StatusSeeOther, "/profile")
}

func (s *Server) adminDashboard(ctx echo.Context) error {
	return s.renderPage(ctx, http.StatusOK, "admin_dashboard", pageData{Title: "Admin"})
}

func (s *Server) adminNotices(ctx echo.Context) error {
	records, done, err := s.fetchRecords(ctx, "notices", false /* all */)
	if done || err != nil {
		return err
	}
	return s.renderPage(ctx, http.StatusOK, "notices", pageData{
		Title:   "Notices",
		Records: records,
	})
}

func (s *Server) adminCreateNotice(ctx echo.Context) error {
	title := core.CleanString(ctx.FormValue("title"))
	if title == "" {
		s.pushToast(ctx, toast.KindError, "A notice needs a title.")
		return ctx.Redirect(http.StatusSeeOther, "/admin/notices")
	}

	snap := contextStore(ctx).Snapshot()
	payload := map[string]interface{}{
		"title":    title,
		"audience": core.CleanString(ctx.FormValue("audience"), true /* lower */),
	}
	if err := s.deps.Upstream.Resources().Create(ctx.Request().Context(), snap.Token, "notices", payload); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			contextStore(ctx).Invalidate(ctx.Request().Context())
			s.pushToast(ctx, toast.KindError, "Your session has expired. Please sign in again.")
			return ctx.Redirect(http.StatusSeeOther, "/login")
		}
		s.pushToast(ctx, toast.KindError, "Could not publish the notice.")
	} else {
		s.pushToast(ctx, toast.KindSuccess, "Notice published.")
	}
	return ctx.Redirect(http.StatusSeeOther, "/admin/notices")
}

func (s *Server) adminDeleteNotice(ctx echo.Context) error {
	snap := contextStore(ctx).Snapshot()
	if err := s.deps.Upstream.Resources().Delete(ctx.Request().Context(), snap.Token, "notices", ctx.Param("id")); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			contextStore(ctx).Invalidate(ctx.Request().Context())
			s.pushToast(ctx, toast.KindError, "Your session has expired. Please sign in again.")
			return ctx.Redirect(http.StatusSeeOther, "/login")
		}
		s.pushToast(ctx, toast.KindError, "Could not remove the notice.")
	} else {
		s.pushToast(ctx, toast.KindSuccess, "Notice removed.")
	}
	return ctx.Redirect(http.StatusSeeOther, "/admin/notices")
}
