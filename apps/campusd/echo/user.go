package campusdapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/user"
)

type authApi struct {
	svc *user.Service
}

func registerAuthAPI(g *echo.Group, svc *user.Service) {
	api := authApi{svc: svc}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/register", api.register)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	ug := g.Group("/users", jwtMiddleware())
	ug.GET("/profile", api.profile)
}

type (
	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	registerRequest struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}

	passwordResetRequest struct {
		Email string `json:"email"`
	}

	authResponse struct {
		Token string         `json:"token"`
		User  auth.Principal `json:"user"`
	}

	profileResponse struct {
		User auth.Principal `json:"user"`
	}

	messageResponse struct {
		Message string `json:"message"`
	}
)

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if data.Email == "" || data.Password == "" {
		return errAuthenticationFailed
	}

	usr, err := authenticate(ctx.Request().Context(), data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}

	token, err := generateToken(getUserClaims(usr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, authResponse{Token: token, User: usr.Principal()})
}

func (api *authApi) register(ctx echo.Context) error {
	var data registerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to registerRequest")
	}

	nu := user.NewUser{
		Name:            data.Name,
		Email:           data.Email,
		Password:        data.Password,
		PasswordConfirm: data.PasswordConfirm,
	}
	if err := nu.Validate(api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), nu)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	usr, err = api.svc.SetLastLogin(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}

	token, err := generateToken(getUserClaims(usr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, authResponse{Token: token, User: usr.Principal()})
}

func (api *authApi) profile(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errInvalidAuthToken
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}
	return ctx.JSON(http.StatusOK, profileResponse{User: usr.Principal()})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data passwordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to passwordResetRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not leak account existence to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, messageResponse{
		Message: "If the email address supplied is associated with an active account, " +
			"instructions to reset your password will arrive shortly.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	if _, err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Password has been reset."})
}
