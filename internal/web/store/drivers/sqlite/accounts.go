package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
)

const accountColumns = `id, email, name, password_hash, created_at, updated_at`

type accountsRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *accountsRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) FindByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) Insert(ctx context.Context, a domain.Account) error {
	now := r.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.Name, a.PasswordHash, toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert account: %w", mapConstraint(err))
	}
	return nil
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, toMillis(r.now()), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update password hash: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update password hash: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a                  domain.Account
		created, updated int64
	)
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &created, &updated); err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}
