package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes used by the web app.
const (
	// DefaultSessionTTL matches the session cookie max-age.
	DefaultSessionTTL = 7 * 24 * time.Hour

	// DefaultResetTTL bounds how long an emailed reset link stays usable.
	DefaultResetTTL = time.Hour
)

// Purpose tags a token with the one flow it may be used for. A token whose
// purpose does not match the verifier is rejected even when the signature
// checks out.
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "reset"
)

// Claims is the wire shape shared by every token we mint. It is only ever
// handed out to callers after being narrowed to SessionClaims or ResetClaims.
type Claims struct {
	jwt.RegisteredClaims

	UserID  string  `json:"userId"`
	Email   string  `json:"email"`
	Name    string  `json:"name,omitempty"`
	Purpose Purpose `json:"purpose"`
}

// SessionClaims identifies a signed-in account.
type SessionClaims struct {
	UserID    string
	Email     string
	Name      string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ResetClaims authorises a single password change.
type ResetClaims struct {
	UserID    string
	Email     string
	ID        string
	ExpiresAt time.Time
}

func newClaims(purpose Purpose, userID, email, name string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		UserID:  userID,
		Email:   email,
		Name:    name,
		Purpose: purpose,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// narrow checks the purpose tag and the fields every variant needs.
func (c *Claims) narrow(want Purpose) error {
	if c.Purpose != want {
		return ErrPurposeMismatch
	}
	if c.UserID == "" || c.Email == "" || c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	return nil
}

func (c *Claims) session() SessionClaims {
	sc := SessionClaims{
		UserID:    c.UserID,
		Email:     c.Email,
		Name:      c.Name,
		ID:        c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if c.IssuedAt != nil {
		sc.IssuedAt = c.IssuedAt.Time
	}
	return sc
}

func (c *Claims) reset() ResetClaims {
	return ResetClaims{
		UserID:    c.UserID,
		Email:     c.Email,
		ID:        c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}
}
