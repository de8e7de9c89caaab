package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/aussiebroadwan/launchpad/pkg/httpx"
)

// WaitlistHandler serves /api/waitlist.
type WaitlistHandler struct {
	WaitlistService *service.WaitlistService
}

// HandleJoin godoc
//
//	@Summary		Join the waitlist
//	@Description	Adds an email to the waitlist and returns its position.
//	@Tags			Waitlist
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.JoinWaitlistRequest	true	"Signup"
//	@Success		200		{object}	authsdk.JoinWaitlistResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation_error"
//	@Failure		409		{object}	authsdk.ErrorResponse	"already_exists"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/waitlist [post]
func (h *WaitlistHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.JoinWaitlistRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrValidation.WithMessage("Invalid input data").WriteError(w)
		return
	}

	e, err := h.WaitlistService.Join(r.Context(), service.JoinInput{
		Email:          req.Email,
		Name:           req.Name,
		ReferralSource: req.ReferralSource,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			authsdk.ErrValidation.WithMessage("Invalid input data").WriteError(w)
			return
		}
		writeServiceError(w, r, err, "join waitlist")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.JoinWaitlistResponse{
		Success: true,
		Data:    toWaitlistEntry(e),
		Message: "Successfully joined the waitlist!",
	})
}

// HandleGet godoc
//
//	@Summary		Waitlist lookup
//	@Description	With ?email= returns that entry. Without it returns the total number of entries.
//	@Tags			Waitlist
//	@Produce		json
//	@Param			email	query		string	false	"Email to look up"
//	@Success		200		{object}	authsdk.WaitlistResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation_error"
//	@Failure		404		{object}	authsdk.ErrorResponse	"not_found"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/waitlist [get]
func (h *WaitlistHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("email") {
		h.HandleStats(w, r)
		return
	}

	e, err := h.WaitlistService.Lookup(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			authsdk.ErrValidation.WithMessage("Invalid email parameter").WriteError(w)
			return
		}
		writeServiceError(w, r, err, "look up waitlist entry")
		return
	}

	entry := toWaitlistEntry(e)
	httpx.WriteJSON(w, http.StatusOK, authsdk.WaitlistResponse{
		Success: true,
		Data:    authsdk.WaitlistData{Entry: &entry},
	})
}

// HandleStats godoc
//
//	@Summary		Waitlist size
//	@Tags			Waitlist
//	@Produce		json
//	@Success		200	{object}	authsdk.WaitlistResponse
//	@Failure		500	{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/waitlist/stats [get]
func (h *WaitlistHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	total, err := h.WaitlistService.Total(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "count waitlist")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.WaitlistResponse{
		Success: true,
		Data:    authsdk.WaitlistData{Total: &total},
	})
}
