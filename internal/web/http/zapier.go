package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/aussiebroadwan/launchpad/pkg/httpx"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
	"github.com/aussiebroadwan/launchpad/pkg/webhook"
)

// zapierMaxEventAge bounds how long a signed delivery stays replayable.
const zapierMaxEventAge = 5 * time.Minute

// ZapierHandler receives automation events from Zapier.
type ZapierHandler struct {
	WaitlistService *service.WaitlistService

	// Secret is the shared HMAC key. POST is only routed when it is set.
	Secret string

	// Now defaults to time.Now.
	Now func() time.Time
}

// HandleInfo godoc
//
//	@Summary		Zapier endpoint check
//	@Description	Echoes ?challenge= for Zapier's subscription check. Otherwise lists the supported events.
//	@Tags			Webhooks
//	@Produce		json
//	@Param			challenge	query		string	false	"Challenge to echo"
//	@Success		200			{object}	authsdk.ZapierInfo
//	@Router			/api/webhooks/zapier [get]
func (h *ZapierHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	if challenge := r.URL.Query().Get("challenge"); challenge != "" {
		httpx.WriteJSON(w, http.StatusOK, authsdk.ZapierInfo{Success: true, Challenge: challenge})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ZapierInfo{
		Success:         true,
		Message:         "Zapier webhook endpoint is active",
		SupportedEvents: webhook.SupportedEvents,
	})
}

// HandleEvent godoc
//
//	@Summary		Receive a Zapier event
//	@Description	Accepts an event signed with X-Zapier-Signature, the hex HMAC-SHA256 of the raw body. The timestamp (RFC 3339 or unix seconds) must be under five minutes old.
//	@Tags			Webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Zapier-Signature	header		string				true	"Hex HMAC-SHA256 of the body"
//	@Param			request				body		authsdk.ZapierEvent	true	"Event"
//	@Success		200					{object}	authsdk.ZapierAck
//	@Failure		400					{object}	authsdk.ErrorResponse	"validation_error"
//	@Failure		401					{object}	authsdk.ErrorResponse	"invalid_signature or stale timestamp"
//	@Failure		500					{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/webhooks/zapier [post]
func (h *ZapierHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, httpx.MaxBodyBytes))
	if err != nil {
		authsdk.ErrValidation.WithMessage("Invalid webhook payload").WriteError(w)
		return
	}

	// The signature covers the raw bytes, so it is checked before parsing.
	if err := webhook.VerifyHex(h.Secret, body, r.Header.Get(webhook.HeaderZapierSignature)); err != nil {
		log.Warn("zapier signature rejected", slog.Any("reason", err))
		authsdk.ErrInvalidSignature.WriteError(w)
		return
	}

	var ev webhook.Event
	if err := json.Unmarshal(body, &ev); err != nil || ev.Event == "" || ev.Timestamp == "" {
		authsdk.ErrValidation.WithMessage("Invalid webhook payload").WriteError(w)
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	if err := webhook.CheckFreshness(ev, zapierMaxEventAge, now()); err != nil {
		if errors.Is(err, webhook.ErrStaleEvent) {
			log.Warn("zapier event rejected", slog.String("event", ev.Event), slog.Any("reason", err))
			authsdk.ErrInvalidSignature.WithMessage("Webhook timestamp is outside the accepted window").WriteError(w)
			return
		}
		authsdk.ErrValidation.WithMessage("Invalid webhook timestamp").WriteError(w)
		return
	}

	if err := h.WaitlistService.HandleInbound(r.Context(), ev); err != nil {
		if errors.Is(err, service.ErrValidation) {
			authsdk.ErrValidation.WithMessage("Invalid data for " + ev.Event).WriteError(w)
			return
		}
		log.Error("failed to process zapier event", slog.String("event", ev.Event), slog.Any("error", err))
		authsdk.ErrServerError.WithMessage("Webhook processing failed").WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ZapierAck{
		Success:   true,
		Message:   "Webhook processed successfully",
		EventType: ev.Event,
	})
}
