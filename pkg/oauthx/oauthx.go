// Package oauthx wraps golang.org/x/oauth2 for the providers the web app
// signs users in with. A provider turns an authorization code into a
// Profile; deciding what that profile is allowed to do is up to the caller.
package oauthx

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("oauthx: provider is not configured")
	ErrInvalidCode   = errors.New("oauthx: invalid authorization code")
	ErrUserInfo      = errors.New("oauthx: failed to fetch user info")
)

// Profile is the identity a provider vouches for.
type Profile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// Provider is one OAuth 2.0 identity provider.
type Provider interface {
	// Name is the short provider id used in routes, e.g. "google".
	Name() string

	// AuthCodeURL returns the consent page URL carrying state.
	AuthCodeURL(state string) string

	// Exchange redeems code and fetches the user's profile.
	Exchange(ctx context.Context, code string) (Profile, error)
}
