package domain

import "time"

type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // bcrypt; empty for accounts created through OAuth
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (a Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// UsedResetToken marks a password-reset token as spent. Key is a fingerprint
// of the token's jti, never the token itself.
type UsedResetToken struct {
	Key       string
	ExpiresAt time.Time
	CreatedAt time.Time
}
