package portalweb

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/session"
	"github.com/campusgate/campusgate/services/toast"
)

func (s *Server) root(ctx echo.Context) error {
	snap := contextStore(ctx).Snapshot()
	if snap.IsAuthenticated() {
		return ctx.Redirect(http.StatusSeeOther, homePath(snap))
	}
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

// fieldErrors translates validator failures into per-field messages for the
// form templates. A non-validator error yields a single generic form error.
func (s *Server) fieldErrors(err error) map[string]string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return map[string]string{"form": "Please check your input and try again."}
	}
	fldErrs := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		fldErrs[fe.Field()] = fe.Translate(s.deps.Translator)
	}
	return fldErrs
}

// authFlowToast maps a failed login/register to the toast the user sees.
func authFlowToast(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, auth.ErrNetwork):
		return "We could not reach the university servers. Check your connection and try again."
	default:
		return "The university servers are having trouble. Please try again later."
	}
}

func (s *Server) loginPage(ctx echo.Context) error {
	return s.renderPage(ctx, http.StatusOK, "login", pageData{Title: "Sign in"})
}

func (s *Server) login(ctx echo.Context) error {
	creds := session.Credentials{
		Email:    core.CleanString(ctx.FormValue("email"), true /* lower */),
		Password: ctx.FormValue("password"),
	}
	if err := s.deps.Validate.Struct(creds); err != nil {
		return s.renderPage(ctx, http.StatusBadRequest, "login", pageData{
			Title:  "Sign in",
			Form:   map[string]string{"email": creds.Email},
			Errors: s.fieldErrors(err),
		})
	}

	principal, err := contextStore(ctx).Login(ctx.Request().Context(), creds)
	if err != nil {
		s.pushToast(ctx, toast.KindError, authFlowToast(err))
		return s.renderPage(ctx, http.StatusUnauthorized, "login", pageData{
			Title: "Sign in",
			Form:  map[string]string{"email": creds.Email},
		})
	}

	s.pushToast(ctx, toast.KindSuccess, "Welcome back, "+principal.Name+"!")
	return ctx.Redirect(http.StatusSeeOther, homePath(contextStore(ctx).Snapshot()))
}

func (s *Server) registerPage(ctx echo.Context) error {
	return s.renderPage(ctx, http.StatusOK, "register", pageData{Title: "Create account"})
}

func (s *Server) register(ctx echo.Context) error {
	reg := session.Registration{
		Name:            core.CleanString(ctx.FormValue("name")),
		Email:           core.CleanString(ctx.FormValue("email"), true /* lower */),
		Password:        ctx.FormValue("password"),
		PasswordConfirm: ctx.FormValue("password_confirm"),
	}
	form := map[string]string{"name": reg.Name, "email": reg.Email}

	if err := s.deps.Validate.Struct(reg); err != nil {
		return s.renderPage(ctx, http.StatusBadRequest, "register", pageData{
			Title:  "Create account",
			Form:   form,
			Errors: s.fieldErrors(err),
		})
	}

	principal, err := contextStore(ctx).Register(ctx.Request().Context(), reg)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// the collaborator rejected the registration payload
			s.pushToast(ctx, toast.KindError, "Registration failed: "+errors.Cause(err).Error())
		} else {
			s.pushToast(ctx, toast.KindError, authFlowToast(err))
		}
		return s.renderPage(ctx, http.StatusBadRequest, "register", pageData{
			Title: "Create account",
			Form:  form,
		})
	}

	s.pushToast(ctx, toast.KindSuccess, "Welcome, "+principal.Name+"! Your account is ready.")
	return ctx.Redirect(http.StatusSeeOther, homePath(contextStore(ctx).Snapshot()))
}

// logout is idempotent: signing out while signed out is still a success.
func (s *Server) logout(ctx echo.Context) error {
	contextStore(ctx).Logout(ctx.Request().Context())
	s.pushToast(ctx, toast.KindSuccess, "You have been signed out.")
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) forgotPasswordPage(ctx echo.Context) error {
	return s.renderPage(ctx, http.StatusOK, "forgot_password", pageData{Title: "Forgot password"})
}

func (s *Server) forgotPassword(ctx echo.Context) error {
	email := core.CleanString(ctx.FormValue("email"), true /* lower */)
	if email == "" {
		return s.renderPage(ctx, http.StatusBadRequest, "forgot_password", pageData{
			Title:  "Forgot password",
			Errors: map[string]string{"email": "this field is required"},
		})
	}

	if err := s.deps.Upstream.RequestPasswordReset(ctx.Request().Context(), email); err != nil {
		s.pushToast(ctx, toast.KindError, authFlowToast(err))
		return s.renderPage(ctx, http.StatusBadRequest, "forgot_password", pageData{
			Title: "Forgot password",
			Form:  map[string]string{"email": email},
		})
	}

	s.pushToast(ctx, toast.KindSuccess,
		"If that email is registered, password reset instructions are on their way.")
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) resetPasswordPage(ctx echo.Context) error {
	return s.renderPage(ctx, http.StatusOK, "reset_password", pageData{
		Title: "Reset password",
		Form: map[string]string{
			"uid":   ctx.QueryParam("uid"),
			"token": ctx.QueryParam("token"),
		},
	})
}

func (s *Server) resetPassword(ctx echo.Context) error {
	uid := ctx.FormValue("uid")
	token := ctx.FormValue("token")
	password := ctx.FormValue("password")
	passwordConfirm := ctx.FormValue("password_confirm")
	form := map[string]string{"uid": uid, "token": token}

	if password == "" || password != passwordConfirm {
		return s.renderPage(ctx, http.StatusBadRequest, "reset_password", pageData{
			Title:  "Reset password",
			Form:   form,
			Errors: map[string]string{"password_confirm": "passwords do not match"},
		})
	}

	err := s.deps.Upstream.ConfirmPasswordReset(ctx.Request().Context(), uid, token, password, passwordConfirm)
	if err != nil {
		s.pushToast(ctx, toast.KindError, "Password reset failed: the link may have expired.")
		return s.renderPage(ctx, http.StatusBadRequest, "reset_password", pageData{
			Title: "Reset password",
			Form:  form,
		})
	}

	s.pushToast(ctx, toast.KindSuccess, "Your password has been reset. You can sign in now.")
	return ctx.Redirect(http.StatusSeeOther, "/login")
}
