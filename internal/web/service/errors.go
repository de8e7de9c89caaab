package service

import "errors"

// The error text doubles as the wire code the HTTP layer returns.
var (
	ErrValidation            = errors.New("validation_error")
	ErrAlreadyExists         = errors.New("already_exists")
	ErrInvalidCredentials    = errors.New("invalid_credentials")
	ErrNoToken               = errors.New("no_token")
	ErrInvalidToken          = errors.New("invalid_token")
	ErrInvalidOrExpiredToken = errors.New("invalid_or_expired_token")
	ErrAccountNotFound       = errors.New("user_not_found")

	ErrAlreadyOnWaitlist     = errors.New("already_on_waitlist")
	ErrWaitlistEntryNotFound = errors.New("not_found")
)

var known = []error{
	ErrValidation,
	ErrAlreadyExists,
	ErrInvalidCredentials,
	ErrNoToken,
	ErrInvalidToken,
	ErrInvalidOrExpiredToken,
	ErrAccountNotFound,
	ErrAlreadyOnWaitlist,
	ErrWaitlistEntryNotFound,
}

// outcome turns a service result into a metrics label.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "error"
}
