// ABOUTME: Credential exchange and current-user lookup
// ABOUTME: Login posts a URL-encoded form; Me verifies a bearer token

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Login exchanges username and password for an access token.
// A rejected credential returns ErrInvalidCredentials and never triggers the
// global logout, since no session exists yet.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	const op = "log in"

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	cl := call{
		op:          op,
		method:      http.MethodPost,
		path:        "/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		anonymous:   true,
	}

	var tok Token
	err := c.do(ctx, cl, &tok)
	if err != nil {
		status := StatusCode(err)
		if status == http.StatusUnauthorized || status == http.StatusBadRequest {
			var apiErr *Error
			errors.As(err, &apiErr)
			return nil, &Error{Op: op, Status: status, Detail: apiErr.Detail, Err: ErrInvalidCredentials}
		}
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &Error{Op: op, Err: errors.New("response has no access_token")}
	}
	return &tok, nil
}

// Me returns the identity behind the stored token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	cl, err := jsonCall("fetch current user", http.MethodGet, "/users/me/", nil)
	if err != nil {
		return nil, err
	}
	var u User
	if err := c.do(ctx, cl, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// MeWithToken returns the identity behind token without consulting storage.
// Used to verify a token before it is persisted or trusted.
func (c *Client) MeWithToken(ctx context.Context, token string) (*User, error) {
	cl, err := jsonCall("fetch current user", http.MethodGet, "/users/me/", nil)
	if err != nil {
		return nil, err
	}
	cl.token = token
	var u User
	if err := c.do(ctx, cl, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
