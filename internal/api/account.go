package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alphabot/alphabot-client/internal/model"
)

// Login exchanges credentials for an access token. The backend expects an
// OAuth2 password form.
func (c *Client) Login(ctx context.Context, loginID, password string) (*model.Token, error) {
	form := url.Values{}
	form.Set("username", loginID)
	form.Set("password", password)

	var out model.Token
	err := c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/login",
		form:   form,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup creates an account.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	var out model.User
	err := c.do(ctx, request{
		op:     "signup",
		method: http.MethodPost,
		path:   "/api/signup",
		body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	err := c.do(ctx, request{
		op:     "get_me",
		method: http.MethodGet,
		path:   "/users/me",
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes the signed-in user's display name.
func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error) {
	var out model.User
	err := c.do(ctx, request{
		op:     "update_me",
		method: http.MethodPatch,
		path:   "/users/me",
		body:   upd,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, change model.PasswordChange) error {
	return c.do(ctx, request{
		op:     "change_password",
		method: http.MethodPut,
		path:   "/users/me/password",
		body:   change,
		auth:   true,
	}, nil)
}
