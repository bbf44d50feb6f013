package portalweb

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/session"
	"github.com/campusgate/campusgate/services/toast"
)

const (
	contextStoreKey = "sessionStore"
	clientIDCookie  = "cid"
)

// cookieKeychain backs session.Keychain with the durable `token` cookie.
type cookieKeychain struct {
	ctx echo.Context
}

func (k cookieKeychain) Token() string {
	cookie, err := k.ctx.Cookie(core.Conf.Session.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (k cookieKeychain) Store(token string) {
	k.ctx.SetCookie(&http.Cookie{
		Name:     core.Conf.Session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(core.Conf.Session.CookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   core.Conf.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (k cookieKeychain) Clear() {
	k.ctx.SetCookie(&http.Cookie{
		Name:     core.Conf.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   core.Conf.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientID guarantees every browser has a stable anonymous identifier,
// used to address toasts before and after authentication.
func (s *Server) clientID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, err := ctx.Cookie(clientIDCookie); err != nil {
			id := uuid.NewString()
			ctx.SetCookie(&http.Cookie{
				Name:     clientIDCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(core.Conf.Session.CookieMaxAge / time.Second),
				HttpOnly: true,
				Secure:   core.Conf.Session.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
			ctx.Set(clientIDCookie, id)
		}
		return next(ctx)
	}
}

func clientID(ctx echo.Context) string {
	if id, ok := ctx.Get(clientIDCookie).(string); ok {
		return id
	}
	if cookie, err := ctx.Cookie(clientIDCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// bootstrap materializes the session store for the request and resolves it
// before any guard or handler runs: after this middleware the session status
// is always determinate.
func (s *Server) bootstrap(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		store := session.NewStore(s.deps.Upstream, cookieKeychain{ctx: ctx}, s.deps.Cache)
		if err := store.Hydrate(ctx.Request().Context()); err != nil {
			// the session already reflects the failure; just inform the user
			if errors.Is(err, auth.ErrNetwork) || errors.Is(err, auth.ErrServer) {
				s.pushToast(ctx, toast.KindError, "We could not verify your session. Some features may be unavailable.")
			} else {
				s.pushToast(ctx, toast.KindError, "Your session has expired. Please sign in again.")
			}
		}
		ctx.Set(contextStoreKey, store)
		return next(ctx)
	}
}

func contextStore(ctx echo.Context) *session.Store {
	store, _ := ctx.Get(contextStoreKey).(*session.Store)
	return store
}

// homePath is the role-dependent landing page.
func homePath(snap session.Snapshot) string {
	if snap.Role() == auth.RoleAdmin {
		return "/admin/dashboard"
	}
	return "/dashboard"
}

// guard applies the route access decision for the request's session.
func (s *Server) guard(allowed auth.RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			snap := contextStore(ctx).Snapshot()
			switch auth.Decide(snap.Status, snap.Role(), allowed) {
			case auth.DecisionRender:
				return next(ctx)
			case auth.DecisionRedirectLogin:
				return ctx.Redirect(http.StatusSeeOther, "/login")
			case auth.DecisionRedirectHome:
				return ctx.Redirect(http.StatusSeeOther, homePath(snap))
			default: // DecisionSuspend
				return s.renderPage(ctx, http.StatusOK, "suspense", pageData{Title: "Loading"})
			}
		}
	}
}

// anonymousOnly sends signed-in users to their landing page instead of the
// auth forms.
func (s *Server) anonymousOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		snap := contextStore(ctx).Snapshot()
		if snap.IsAuthenticated() {
			return ctx.Redirect(http.StatusSeeOther, homePath(snap))
		}
		return next(ctx)
	}
}
