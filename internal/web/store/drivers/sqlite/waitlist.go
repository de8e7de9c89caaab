package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
)

type waitlistRepo struct {
	db  *sql.DB
	now func() time.Time
}

// Insert computes the position inside the INSERT itself so two concurrent
// joins can never be handed the same number.
func (r *waitlistRepo) Insert(ctx context.Context, e domain.WaitlistEntry) (domain.WaitlistEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO waitlist (id, email, name, referral_source, position, created_at)
		SELECT ?, ?, ?, ?, COUNT(*) + 1, ? FROM waitlist
		RETURNING position`,
		e.ID, e.Email, e.Name, e.ReferralSource, toMillis(e.CreatedAt),
	).Scan(&e.Position)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("sqlite: insert waitlist entry: %w", mapConstraint(err))
	}

	e.CreatedAt = fromMillis(toMillis(e.CreatedAt))
	return e, nil
}

func (r *waitlistRepo) FindByEmail(ctx context.Context, email string) (domain.WaitlistEntry, error) {
	var (
		e       domain.WaitlistEntry
		created int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, referral_source, position, created_at
		FROM waitlist WHERE email = ?`, email,
	).Scan(&e.ID, &e.Email, &e.Name, &e.ReferralSource, &e.Position, &created)
	if err != nil {
		return domain.WaitlistEntry{}, mapNotFound(err)
	}
	e.CreatedAt = fromMillis(created)
	return e, nil
}

func (r *waitlistRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count waitlist: %w", err)
	}
	return n, nil
}
