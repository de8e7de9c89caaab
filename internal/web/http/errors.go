package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
)

// writeServiceError maps a service error to its JSON failure body. Anything
// unrecognised is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var apiErr *authsdk.APIError
	switch {
	case errors.Is(err, service.ErrValidation):
		apiErr = authsdk.ErrValidation
	case errors.Is(err, service.ErrAlreadyExists):
		apiErr = authsdk.ErrAlreadyExists
	case errors.Is(err, service.ErrInvalidCredentials):
		apiErr = authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrNoToken):
		apiErr = authsdk.ErrNoToken
	case errors.Is(err, service.ErrInvalidToken):
		apiErr = authsdk.ErrInvalidToken
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		apiErr = authsdk.ErrInvalidOrExpiredToken
	case errors.Is(err, service.ErrAccountNotFound):
		apiErr = authsdk.ErrUserNotFound
	case errors.Is(err, service.ErrAlreadyOnWaitlist):
		apiErr = authsdk.ErrAlreadyExists.WithMessage("Email already registered on waitlist")
	case errors.Is(err, service.ErrWaitlistEntryNotFound):
		apiErr = authsdk.NewAPIError(http.StatusNotFound, authsdk.CodeNotFound, "No waitlist entry found for this email")
	default:
		slogx.FromContext(r.Context()).Error("failed to "+action, slog.Any("error", err))
		apiErr = authsdk.ErrServerError
	}
	apiErr.WriteError(w)
}

func toUser(a domain.Account) authsdk.User {
	return authsdk.User{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
	}
}

func toWaitlistEntry(e domain.WaitlistEntry) authsdk.WaitlistEntry {
	return authsdk.WaitlistEntry{
		ID:             e.ID,
		Email:          e.Email,
		Name:           e.Name,
		ReferralSource: e.ReferralSource,
		Position:       e.Position,
		CreatedAt:      e.CreatedAt,
	}
}
