package authsdk

import (
	"context"
	"fmt"
	"net/http"
)

// SignUp creates an account and stores the returned session cookie.
func (c *SDKClient) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	var out AuthResponse
	if err := c.call(ctx, http.MethodPost, "/api/auth/signup", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// SignIn exchanges credentials for a session cookie.
func (c *SDKClient) SignIn(ctx context.Context, email, password string) (*User, error) {
	var out AuthResponse
	req := SignInRequest{Email: email, Password: password}
	if err := c.call(ctx, http.MethodPost, "/api/auth/signin", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Verify returns the account behind the current session cookie.
func (c *SDKClient) Verify(ctx context.Context) (*User, error) {
	var out AuthResponse
	if err := c.call(ctx, http.MethodGet, "/api/auth/verify", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// SignOut asks the server to clear the session cookie.
func (c *SDKClient) SignOut(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
}

// ForgotPassword requests a reset link. The server answers the same way
// whether or not the email is known.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out MessageResponse
	if err := c.call(ctx, http.MethodPost, "/api/auth/forgot-password", ForgotPasswordRequest{Email: email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ResetPassword sets a new password using a token from a reset link.
func (c *SDKClient) ResetPassword(ctx context.Context, token, password string) error {
	return c.call(ctx, http.MethodPost, "/api/auth/reset-password", ResetPasswordRequest{Token: token, Password: password}, nil)
}

// Dashboard fetches the gated dashboard. A redirect is not an error: the
// status and Location header are returned so callers can check the gate.
func (c *SDKClient) Dashboard(ctx context.Context) (int, string, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/dashboard", nil)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect:
		return resp.StatusCode, resp.Header.Get("Location"), nil
	default:
		return resp.StatusCode, "", fmt.Errorf("unexpected dashboard status %d", resp.StatusCode)
	}
}
