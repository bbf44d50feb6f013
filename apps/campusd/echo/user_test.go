package campusdapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/user"
)

func Test_authApi_login(t *testing.T) {
	app, svc := newTestServer()
	createUser(t, svc, "Awa Ndiaye", "awa@test.test", "", "LeSecret!10", true)
	createUser(t, svc, "N Dog", "ndog@test.test", "", "LeSecret!10", false)

	invalidCreds := marshallObj(t, errorResponse{Message: "invalid credentials"})

	tests := []httpTest{
		{
			name: "unknown email", body: marshallObj(t, loginRequest{Email: "ghost@test.test", Password: "LeSecret!10"}),
			wantCode: http.StatusUnauthorized, wantData: invalidCreds,
		},
		{
			name: "wrong password", body: marshallObj(t, loginRequest{Email: "awa@test.test", Password: "nope"}),
			wantCode: http.StatusUnauthorized, wantData: invalidCreds,
		},
		{
			name: "empty body", body: []byte("{}"),
			wantCode: http.StatusUnauthorized, wantData: invalidCreds,
		},
		{
			name: "deactivated account", body: marshallObj(t, loginRequest{Email: "ndog@test.test", Password: "LeSecret!10"}),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errorResponse{Message: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/auth/login", "", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("success", func(t *testing.T) {
		body := marshallObj(t, loginRequest{Email: "Awa@Test.Test", Password: "LeSecret!10"})
		req, rec := newAuthRequest(http.MethodPost, "/api/auth/login", "", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp authResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "awa@test.test", resp.User.Email)
		assert.Equal(t, auth.RoleStudent, resp.User.Role)
		assert.NotEmpty(t, resp.User.Profile.GetString("last_login"), "login stamps last_login")

		claims, err := parseToken(resp.Token)
		if err != nil {
			t.Fatalf("parseToken(): %v", err)
		}
		assert.Equal(t, resp.User.ID, claims.Subject)
	})
}

func Test_authApi_register(t *testing.T) {
	app, svc := newTestServer()
	createUser(t, svc, "Awa Ndiaye", "awa@test.test", "", "LeSecret!10", true)

	payload := func(name, email, pwd, confirm string) []byte {
		return marshallObj(t, registerRequest{Name: name, Email: email, Password: pwd, PasswordConfirm: confirm})
	}

	t.Run("invalid payload", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/auth/register", "", payload("Sal", "sal@test.test", "short", "short"))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp errorResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Contains(t, resp.Errors, "password")
	})

	t.Run("email taken", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/auth/register", "", payload("Sal", "awa@test.test", "LeSecret!10", "LeSecret!10"))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp errorResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Contains(t, resp.Errors, "email")
	})

	t.Run("success", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/auth/register", "", payload("Sal Fall", "sal@test.test", "UnSecret!11", "UnSecret!11"))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp authResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, auth.RoleStudent, resp.User.Role, "self-registration is always a student")
		assert.Equal(t, "sal@test.test", resp.User.Profile.GetString("username"))
	})
}

func Test_authApi_profile(t *testing.T) {
	app, svc := newTestServer()
	usr := createUser(t, svc, "Awa Ndiaye", "awa@test.test", "", "LeSecret!10", true)
	ndog := createUser(t, svc, "N Dog", "ndog@test.test", "", "LeSecret!10", false)

	ghost := usr
	ghost.ID = "00000000-0000-0000-0000-000000000000"

	invalidToken := marshallObj(t, errorResponse{Message: "invalid or expired token"})

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "garbage token", token: "lol.nope.nah", wantCode: http.StatusUnauthorized, wantData: invalidToken},
		{name: "unknown subject", token: getToken(t, ghost), wantCode: http.StatusUnauthorized, wantData: invalidToken},
		{
			name: "deactivated account", token: getToken(t, ndog),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errorResponse{Message: "account deactivated"}),
		},
		{name: "success", token: getToken(t, usr), wantData: marshallObj(t, profileResponse{User: usr.Principal()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/users/profile", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_passwordReset(t *testing.T) {
	app, svc := newTestServer()
	usr := createUser(t, svc, "Awa Ndiaye", "awa@test.test", "", "LeSecret!10", true)

	t.Run("request never leaks account existence", func(t *testing.T) {
		for _, email := range []string{"awa@test.test", "ghost@test.test"} {
			req, rec := newAuthRequest(http.MethodPost, "/api/auth/password-reset", "", marshallObj(t, passwordResetRequest{Email: email}))
			app.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %v for %s; body %s", rec.Code, email, rec.Body.String())
			}
		}
	})

	token, err := user.MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	t.Run("confirm with a tampered token", func(t *testing.T) {
		body := marshallObj(t, user.ResetUserPassword{
			UID: user.EncodeUID(usr), Token: "HE4TS-sigsig-sig",
			Password: "NewSecret!11", PasswordConfirm: "NewSecret!11",
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/auth/password-reset-confirm", "", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("confirm resets the password", func(t *testing.T) {
		body := marshallObj(t, user.ResetUserPassword{
			UID: user.EncodeUID(usr), Token: token,
			Password: "NewSecret!11", PasswordConfirm: "NewSecret!11",
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/auth/password-reset-confirm", "", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}

		// the old password no longer works, the new one does
		req, rec = newAuthRequest(http.MethodPost, "/api/auth/login", "", marshallObj(t, loginRequest{Email: "awa@test.test", Password: "LeSecret!10"}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req, rec = newAuthRequest(http.MethodPost, "/api/auth/login", "", marshallObj(t, loginRequest{Email: "awa@test.test", Password: "NewSecret!11"}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
