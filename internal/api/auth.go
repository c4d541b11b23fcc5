package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gamexpress/storefront/internal/app/model"
)

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the register payload.
type Registration struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string           `json:"token"`
	User  *model.Principal `json:"user"`
}

func (r *AuthResponse) validate() error {
	if r.Token == "" {
		return errors.New("missing token")
	}
	if r.User == nil {
		return errors.New("missing user")
	}
	return nil
}

type principalResponse struct {
	model.Principal
}

func (r *principalResponse) validate() error {
	if r.ID == 0 && r.Email == "" {
		return errors.New("missing principal")
	}
	return nil
}

// Login exchanges credentials for a token. The caller is expected to have
// run FetchCSRFCookie first.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/login", body: creds}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/register", body: reg}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser validates the bearer token and returns its principal.
func (c *Client) CurrentUser(ctx context.Context) (*model.Principal, error) {
	var resp principalResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/user"}, &resp); err != nil {
		return nil, err
	}
	return &resp.Principal, nil
}

// Logout invalidates the bearer token server side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/logout"}, nil)
}
