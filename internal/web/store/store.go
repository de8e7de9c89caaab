package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, mongo)
// implement this and expose sub-repositories to keep concerns tidy. Every
// repository method is a single statement or single document write, so no
// transaction API is offered.
type Store interface {
	Accounts() Accounts
	Waitlist() Waitlist
	ResetTokens() ResetTokens

	// ApplyMigrations brings the schema (or the indexes) up to date.
	ApplyMigrations(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Accounts interface {
	// FindByEmail matches the email exactly as stored.
	FindByEmail(ctx context.Context, email string) (domain.Account, error)

	FindByID(ctx context.Context, id string) (domain.Account, error)

	// Insert creates an account (id is provided by the caller). It returns
	// ErrAlreadyExists when the email is taken, including when another
	// insert for the same email won a race.
	Insert(ctx context.Context, a domain.Account) error

	// UpdatePasswordHash sets the hash and bumps updated_at. It returns
	// ErrNotFound when no account has the id.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error
}

type Waitlist interface {
	// Insert adds an entry and assigns its position atomically. The stored
	// entry is returned. ErrAlreadyExists when the email is already listed.
	Insert(ctx context.Context, e domain.WaitlistEntry) (domain.WaitlistEntry, error)

	FindByEmail(ctx context.Context, email string) (domain.WaitlistEntry, error)

	Count(ctx context.Context) (int64, error)
}

type ResetTokens interface {
	// MarkUsed records a spent reset token. ErrAlreadyExists when the key
	// was already recorded.
	MarkUsed(ctx context.Context, t domain.UsedResetToken) error

	// DeleteExpired removes markers whose expiry is before now and reports
	// how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
