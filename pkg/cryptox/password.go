package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for every new hash. Changing it
// only affects hashes minted afterwards; existing hashes carry their own cost.
const PasswordCost = 10

var (
	ErrPasswordMismatch  = errors.New("cryptox: password does not match")
	ErrInvalidHashFormat = errors.New("cryptox: invalid hash format")
	ErrPasswordTooLong   = errors.New("cryptox: password exceeds 72 bytes")
)

// HashPassword returns a salted, self-describing bcrypt hash ($2a$10$...).
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares password against encodedHash in constant time.
// It returns nil on a match, ErrPasswordMismatch on a wrong password and
// ErrInvalidHashFormat when encodedHash is empty or not a bcrypt hash.
func VerifyPassword(password, encodedHash string) error {
	if encodedHash == "" {
		return ErrInvalidHashFormat
	}

	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		// ErrHashTooShort, invalid prefix, version or cost.
		return fmt.Errorf("%w: %v", ErrInvalidHashFormat, err)
	}
}

// HashCost reports the work factor embedded in encodedHash.
func HashCost(encodedHash string) (int, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidHashFormat, err)
	}
	return cost, nil
}
