package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks a session token presented by a client.
type Verifier interface {
	VerifySession(token string) (SessionClaims, error)
}

// ErrInvalidToken is the umbrella every verification failure wraps. Client
// facing code should only ever test for this one.
var ErrInvalidToken = errors.New("jwtx: invalid token")

var (
	ErrMalformed       = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrAlgMismatch     = fmt.Errorf("%w: algorithm mismatch", ErrInvalidToken)
	ErrInvalidSig      = fmt.Errorf("%w: invalid signature", ErrInvalidToken)
	ErrExpired         = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrPurposeMismatch = fmt.Errorf("%w: purpose mismatch", ErrInvalidToken)
	ErrInvalidClaim    = fmt.Errorf("%w: invalid claims", ErrInvalidToken)
)

// VerifySession validates a session token against secret as of now. It has
// no side effects and reads nothing besides its arguments.
func VerifySession(token string, secret []byte, now time.Time) (SessionClaims, error) {
	c, err := parse(token, secret, now, PurposeSession)
	if err != nil {
		return SessionClaims{}, err
	}
	return c.session(), nil
}

// VerifyReset validates a password-reset token against secret as of now.
func VerifyReset(token string, secret []byte, now time.Time) (ResetClaims, error) {
	c, err := parse(token, secret, now, PurposeReset)
	if err != nil {
		return ResetClaims{}, err
	}
	if c.ID == "" {
		// Reset tokens are single use, which needs a jti to key on.
		return ResetClaims{}, ErrInvalidClaim
	}
	return c.reset(), nil
}

func parse(token string, secret []byte, now time.Time, want Purpose) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformed
	}
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return secret, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	if err := claims.narrow(want); err != nil {
		return nil, err
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, ErrAlgMismatch), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrAlgMismatch
	default:
		return fmt.Errorf("%w (%v)", ErrInvalidClaim, err)
	}
}
