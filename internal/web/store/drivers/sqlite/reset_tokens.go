package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
)

type resetTokensRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *resetTokensRepo) MarkUsed(ctx context.Context, t domain.UsedResetToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO used_reset_tokens (token_key, expires_at, created_at) VALUES (?, ?, ?)`,
		t.Key, toMillis(t.ExpiresAt), toMillis(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: mark reset token used: %w", mapConstraint(err))
	}
	return nil
}

func (r *resetTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM used_reset_tokens WHERE expires_at < ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete expired reset tokens: %w", err)
	}
	return res.RowsAffected()
}
