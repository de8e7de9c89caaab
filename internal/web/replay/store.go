package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
)

// StoreGuard keeps markers in the primary store. Expired markers are removed
// by the housekeeping worker.
type StoreGuard struct {
	st  store.Store
	now func() time.Time
}

func NewStoreGuard(st store.Store) *StoreGuard {
	return &StoreGuard{st: st, now: time.Now}
}

func (g *StoreGuard) Claim(ctx context.Context, key string, expiresAt time.Time) error {
	err := g.st.ResetTokens().MarkUsed(ctx, domain.UsedResetToken{
		Key:       key,
		ExpiresAt: expiresAt,
		CreatedAt: g.now().UTC(),
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrAlreadyClaimed
	default:
		return fmt.Errorf("replay: claim: %w", err)
	}
}

func (g *StoreGuard) Ping(ctx context.Context) error {
	return g.st.Ping(ctx)
}
