package backend

import (
	"context"
	"net/http"
)

// Credentials is the body of an email login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the body of an email registration.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Me fetches the user the client's credential belongs to.
func (c *Client) Me(ctx context.Context) (User, error) {
	body, err := c.send(ctx, call{
		method:   http.MethodGet,
		route:    "/user/me",
		path:     "/user/me",
		fallback: "Failed to load user",
	})
	if err != nil {
		return User{}, err
	}

	var u User
	if err := decodeWrite(body, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// EmailLogin exchanges credentials for a backend token.
func (c *Client) EmailLogin(ctx context.Context, in Credentials) (AuthToken, error) {
	return c.authenticate(ctx, "/auth/email/login", in, "Login failed")
}

// EmailRegister registers a user with the backend and returns its token.
func (c *Client) EmailRegister(ctx context.Context, in Registration) (AuthToken, error) {
	return c.authenticate(ctx, "/auth/email/register", in, "Registration failed")
}

func (c *Client) authenticate(ctx context.Context, path string, in any, fallback string) (AuthToken, error) {
	body, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    path,
		path:     path,
		body:     in,
		fallback: fallback,
	})
	if err != nil {
		return AuthToken{}, err
	}

	var tok AuthToken
	if err := decodeWrite(body, &tok); err != nil {
		return AuthToken{}, err
	}
	if tok.AccessToken == "" {
		return AuthToken{}, ErrMalformedResponse
	}
	return tok, nil
}

// ForgotPassword asks the backend to send a reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    "/auth/email/forgot-password",
		path:     "/auth/email/forgot-password",
		body:     map[string]string{"email": email},
		fallback: "Failed to send reset email",
	})
	return err
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    "/auth/email/reset-password",
		path:     "/auth/email/reset-password",
		body:     map[string]string{"token": token, "new_password": password},
		fallback: "Failed to reset password",
	})
	return err
}

// GoogleLoginURL is where the browser goes to start Google sign-in.
func (c *Client) GoogleLoginURL() string {
	return c.baseURL + apiPrefix + "/auth/google/login"
}
