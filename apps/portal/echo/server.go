// Package portalweb is the student portal's web shell: it materializes the
// session for every request, guards routes by role and renders the pages.
package portalweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/session"
	"github.com/campusgate/campusgate/services/toast"
	"github.com/campusgate/campusgate/services/upstream"
)

type (
	ServerDeps struct {
		Logger     core.Logger
		Upstream   *upstream.Client
		Cache      session.Cache // nil disables principal caching
		Toasts     toast.Sink
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	parsePageTemplates()
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !core.Conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = s.newHTTPErrorHandler()
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	// every route below sees a hydrated session
	s.app.Use(s.clientID, s.bootstrap)

	s.registerRoutes()
}

// registerRoutes lays out the whole navigable surface. Each route carries a
// guard descriptor; the guard decision runs after the session has hydrated.
func (s *Server) registerRoutes() {
	anyRole := auth.NewRoleSet()
	student := auth.NewRoleSet(auth.RoleStudent)
	admin := auth.NewRoleSet(auth.RoleAdmin)

	s.app.Static("/static", filepath.Join(core.Conf.WorkDir, "assets", "static"))

	s.app.GET("/", s.root)

	// public routes redirect away when already signed in
	s.app.GET("/login", s.loginPage, s.anonymousOnly)
	s.app.POST("/login", s.login, s.anonymousOnly)
	s.app.GET("/register", s.registerPage, s.anonymousOnly)
	s.app.POST("/register", s.register, s.anonymousOnly)
	s.app.GET("/forgot-password", s.forgotPasswordPage, s.anonymousOnly)
	s.app.POST("/forgot-password", s.forgotPassword, s.anonymousOnly)
	s.app.GET("/reset-password", s.resetPasswordPage, s.anonymousOnly)
	s.app.POST("/reset-password", s.resetPassword, s.anonymousOnly)

	s.app.POST("/logout", s.logout)

	// the dashboard admits any signed-in role; the handler sends admins on
	s.app.GET("/dashboard", s.dashboard, s.guard(anyRole))
	s.app.GET("/fees", s.fees, s.guard(student))
	s.app.GET("/library", s.library, s.guard(student))
	s.app.GET("/notifications", s.notifications, s.guard(student))

	s.app.GET("/profile", s.profilePage, s.guard(anyRole))
	s.app.POST("/profile/refresh", s.profileRefresh, s.guard(anyRole))

	s.app.GET("/admin/dashboard", s.adminDashboard, s.guard(admin))
	s.app.GET("/admin/notices", s.adminNotices, s.guard(admin))
	s.app.POST("/admin/notices", s.adminCreateNotice, s.guard(admin))
	s.app.POST("/admin/notices/:id/delete", s.adminDeleteNotice, s.guard(admin))

	// unmatched paths follow the same redirect rule as "/"
	s.app.Any("/*", s.root)
}

func (s *Server) Start() {
	if err := s.app.Start(core.Conf.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error             { return s.errors }
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
