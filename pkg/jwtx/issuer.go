package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSecret is returned when no signing secret was configured. It is a
// startup error, not something a request should ever see.
var ErrMissingSecret = errors.New("jwtx: signing secret is not configured")

// Issuer mints and verifies HS256 tokens with one process-wide secret.
type Issuer struct {
	secret []byte

	SessionTTL time.Duration
	ResetTTL   time.Duration

	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewIssuer copies secret and returns an Issuer with the default lifetimes.
func NewIssuer(secret []byte) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	return &Issuer{
		secret:     append([]byte(nil), secret...),
		SessionTTL: DefaultSessionTTL,
		ResetTTL:   DefaultResetTTL,
		Now:        time.Now,
	}, nil
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

// IssueSession signs a session token for the given account.
func (i *Issuer) IssueSession(userID, email, name string) (string, error) {
	return i.sign(newClaims(PurposeSession, userID, email, name, i.SessionTTL, i.now()))
}

// IssueReset signs a password-reset token and returns it with its expiry.
func (i *Issuer) IssueReset(userID, email string) (string, time.Time, error) {
	c := newClaims(PurposeReset, userID, email, "", i.ResetTTL, i.now())
	token, err := i.sign(c)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, c.ExpiresAt.Time, nil
}

// VerifySession implements Verifier.
func (i *Issuer) VerifySession(token string) (SessionClaims, error) {
	return VerifySession(token, i.secret, i.now())
}

// VerifyReset checks a reset token with the issuer's secret.
func (i *Issuer) VerifyReset(token string) (ResetClaims, error) {
	return VerifyReset(token, i.secret, i.now())
}

func (i *Issuer) sign(c Claims) (string, error) {
	if c.UserID == "" || c.Email == "" {
		return "", fmt.Errorf("jwtx: refusing to sign %s token without userId and email", c.Purpose)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign %s token: %w", c.Purpose, err)
	}
	return token, nil
}
