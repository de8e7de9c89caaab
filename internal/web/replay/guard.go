// Package replay makes password-reset tokens single use. A token's jti
// fingerprint is claimed once, and any later claim of the same key fails
// until the marker expires along with the token.
package replay

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyClaimed is returned when a key has been claimed before.
var ErrAlreadyClaimed = errors.New("replay: already claimed")

// Guard records single-use keys.
type Guard interface {
	// Claim marks key as used until expiresAt. It returns ErrAlreadyClaimed
	// when key is already marked.
	Claim(ctx context.Context, key string, expiresAt time.Time) error

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}
