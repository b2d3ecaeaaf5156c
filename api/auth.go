package api

import (
	"context"
	"net/http"

	"github.com/goliatone/go-pos-console/form"
)

// LoginResult is the session data returned by a successful login.
type LoginResult struct {
	Username string `json:"username"`
	Roles    []Role `json:"roles"`
	Token    string `json:"token"`
}

// Auth is the /auth surface.
type Auth struct {
	client *Client
}

// NewAuth returns the auth endpoints.
func NewAuth(c *Client) *Auth {
	return &Auth{client: c}
}

// Login exchanges credentials for a token. Bad credentials are an
// apperror.KindUnauthorized error.
func (a *Auth) Login(ctx context.Context, creds form.Credentials) (LoginResult, error) {
	var out LoginResult
	req, err := jsonRequest(http.MethodPost, "/auth/login", nil, creds)
	if err != nil {
		return out, err
	}
	_, err = a.client.call(ctx, req, &out)
	return out, err
}

// ValidateToken checks the current session token. It returns nil when the API
// accepts the token.
func (a *Auth) ValidateToken(ctx context.Context) error {
	req, err := jsonRequest(http.MethodGet, "/auth/validate-token", nil, nil)
	if err != nil {
		return err
	}
	_, err = a.client.call(ctx, req, nil)
	return err
}

// RegisterAdmin creates an admin account. An existing username is an
// apperror.KindConflict error.
func (a *Auth) RegisterAdmin(ctx context.Context, reg form.Registration) (User, error) {
	return a.register(ctx, "/auth/register/admin", reg)
}

// RegisterCustomer creates a customer account.
func (a *Auth) RegisterCustomer(ctx context.Context, reg form.Registration) (User, error) {
	return a.register(ctx, "/auth/register", reg)
}

func (a *Auth) register(ctx context.Context, path string, reg form.Registration) (User, error) {
	var out User
	req, err := jsonRequest(http.MethodPost, path, nil, reg.Credentials)
	if err != nil {
		return out, err
	}
	_, err = a.client.call(ctx, req, &out)
	return out, err
}
