// Package upstream implements the portal's only dependency on the university
// backend: a REST collaborator speaking JSON over HTTP with bearer tokens.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/session"
)

type Client struct {
	baseURL string
	http    *http.Client
}

var _ session.Authenticator = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: conf.Upstream.BaseURL,
		http:    &http.Client{Timeout: conf.Upstream.Timeout},
	}
}

type (
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

func (c *Client) Login(ctx context.Context, creds session.Credentials) (string, auth.Principal, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", creds, &resp, credentialErrors)
	if err != nil {
		return "", auth.Principal{}, err
	}
	return resp.Token, resp.User, nil
}

func (c *Client) Register(ctx context.Context, reg session.Registration) (string, auth.Principal, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "", reg, &resp, credentialErrors)
	if err != nil {
		return "", auth.Principal{}, err
	}
	return resp.Token, resp.User, nil
}

func (c *Client) Profile(ctx context.Context, token string) (auth.Principal, error) {
	var resp profileResponse
	err := c.do(ctx, http.MethodGet, "/api/users/profile", token, nil, &resp, tokenErrors)
	if err != nil {
		return auth.Principal{}, err
	}
	return resp.User, nil
}

// RequestPasswordReset asks the collaborator to email a reset link.
// The collaborator answers success regardless of whether the email exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/auth/password-reset", "", body, nil, credentialErrors)
}

// ConfirmPasswordReset submits the emailed token together with the new password.
func (c *Client) ConfirmPasswordReset(ctx context.Context, uid, token, password, passwordConfirm string) error {
	body := map[string]string{
		"uid":              uid,
		"token":            token,
		"password":         password,
		"password_confirm": passwordConfirm,
	}
	return c.do(ctx, http.MethodPost, "/api/auth/password-reset-confirm", "", body, nil, credentialErrors)
}

// statusMapper assigns an AuthError kind to a non-2xx status code.
type statusMapper func(code int) error

// credentialErrors is the mapping for login/register style endpoints:
// the client did something wrong with its credentials or inputs.
func credentialErrors(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusBadRequest:
		return auth.ErrInvalidCredentials
	case code >= 500:
		return auth.ErrServer
	}
	return auth.ErrServer
}

// tokenErrors is the mapping for bearer-authenticated endpoints:
// a rejection means the durable token itself is no longer valid.
func tokenErrors(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return auth.ErrInvalidToken
	case code >= 500:
		return auth.ErrServer
	}
	return auth.ErrServer
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}, mapStatus statusMapper) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// transport failures and timeouts surface as a network error,
		// never as an indefinitely pending session
		return errors.Wrap(auth.ErrNetwork, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := mapStatus(resp.StatusCode)
		var msg messageResponse
		if err := json.NewDecoder(resp.Body).Decode(&msg); err == nil && msg.Message != "" {
			return errors.Wrap(kind, msg.Message)
		}
		return errors.Wrap(kind, fmt.Sprintf("upstream status %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(auth.ErrServer, err.Error())
	}
	return nil
}
