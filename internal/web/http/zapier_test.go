package http_test

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/aussiebroadwan/launchpad/pkg/webhook"
	"github.com/stretchr/testify/require"
)

const zapierSecret = "zapier-shared-secret"

func signedZapier(t *testing.T, payload any) request {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	h := http.Header{}
	h.Set(webhook.HeaderZapierSignature, webhook.SignHex(zapierSecret, raw))
	return request{method: http.MethodPost, target: "/api/webhooks/zapier", body: raw, header: h}
}

func TestZapierInfo(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, request{method: http.MethodGet, target: "/api/webhooks/zapier"})
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[authsdk.ZapierInfo](t, rec)
	require.True(t, info.Success)
	require.Equal(t, "Zapier webhook endpoint is active", info.Message)
	require.ElementsMatch(t, webhook.SupportedEvents, info.SupportedEvents)

	rec = s.do(t, request{method: http.MethodGet, target: "/api/webhooks/zapier?challenge=abc123"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc123", decode[authsdk.ZapierInfo](t, rec).Challenge)
}

func TestZapierDisabledWithoutSecret(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, signedZapier(t, webhook.Event{Event: webhook.EventPaymentSuccess, Timestamp: time.Now().UTC().Format(time.RFC3339)}))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestZapierEvents(t *testing.T) {
	s := newTestServer(t, withZapierSecret(zapierSecret))
	ts := time.Now().UTC().Format(time.RFC3339)

	t.Run("signup joins the waitlist", func(t *testing.T) {
		rec := s.do(t, signedZapier(t, map[string]any{
			"event":     webhook.EventWaitlistSignup,
			"timestamp": ts,
			"data":      map[string]string{"email": "zap@example.com", "name": "Zap", "referralSource": "zapier"},
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		ack := decode[authsdk.ZapierAck](t, rec)
		require.True(t, ack.Success)
		require.Equal(t, "Webhook processed successfully", ack.Message)
		require.Equal(t, webhook.EventWaitlistSignup, ack.EventType)

		e, err := s.store.Waitlist().FindByEmail(t.Context(), "zap@example.com")
		require.NoError(t, err)
		require.Equal(t, "zapier", e.ReferralSource)
	})

	t.Run("duplicate signup is acknowledged", func(t *testing.T) {
		rec := s.do(t, signedZapier(t, map[string]any{
			"event":     webhook.EventWaitlistSignup,
			"timestamp": ts,
			"data":      map[string]string{"email": "zap@example.com"},
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("other events are acknowledged", func(t *testing.T) {
		for _, ev := range []string{webhook.EventNewsletterSubscribe, webhook.EventOpportunityCreated, webhook.EventPaymentSuccess, "something.else"} {
			rec := s.do(t, signedZapier(t, map[string]any{"event": ev, "timestamp": ts, "data": map[string]any{}}))
			require.Equal(t, http.StatusOK, rec.Code, ev)
			require.Equal(t, ev, decode[authsdk.ZapierAck](t, rec).EventType)
		}
	})

	t.Run("bad signature", func(t *testing.T) {
		req := signedZapier(t, map[string]any{"event": webhook.EventPaymentSuccess, "timestamp": ts})
		req.header.Set(webhook.HeaderZapierSignature, webhook.SignHex("wrong-secret", req.body.([]byte)))
		requireError(t, s.do(t, req), http.StatusUnauthorized, authsdk.CodeInvalidSignature)
	})

	t.Run("missing signature", func(t *testing.T) {
		req := signedZapier(t, map[string]any{"event": webhook.EventPaymentSuccess, "timestamp": ts})
		req.header.Del(webhook.HeaderZapierSignature)
		requireError(t, s.do(t, req), http.StatusUnauthorized, authsdk.CodeInvalidSignature)
	})

	t.Run("sha256 prefix accepted", func(t *testing.T) {
		req := signedZapier(t, map[string]any{"event": webhook.EventPaymentSuccess, "timestamp": ts})
		req.header.Set(webhook.HeaderZapierSignature, "sha256="+req.header.Get(webhook.HeaderZapierSignature))
		require.Equal(t, http.StatusOK, s.do(t, req).Code)
	})

	t.Run("replayed delivery is rejected", func(t *testing.T) {
		stale := time.Now().Add(-10 * time.Minute).UTC().Format(time.RFC3339)
		req := signedZapier(t, map[string]any{
			"event":     webhook.EventWaitlistSignup,
			"timestamp": stale,
			"data":      map[string]string{"email": "replay@example.com"},
		})
		requireError(t, s.do(t, req), http.StatusUnauthorized, authsdk.CodeInvalidSignature)

		_, err := s.store.Waitlist().FindByEmail(t.Context(), "replay@example.com")
		require.Error(t, err)
	})

	t.Run("future timestamp is rejected", func(t *testing.T) {
		future := time.Now().Add(10 * time.Minute).UTC().Format(time.RFC3339)
		req := signedZapier(t, map[string]any{"event": webhook.EventPaymentSuccess, "timestamp": future})
		requireError(t, s.do(t, req), http.StatusUnauthorized, authsdk.CodeInvalidSignature)
	})

	t.Run("unix seconds timestamp accepted", func(t *testing.T) {
		unix := strconv.FormatInt(time.Now().Unix(), 10)
		req := signedZapier(t, map[string]any{"event": webhook.EventPaymentSuccess, "timestamp": unix})
		require.Equal(t, http.StatusOK, s.do(t, req).Code)
	})

	invalid := []struct {
		name    string
		payload any
	}{
		{"missing timestamp", map[string]any{"event": webhook.EventPaymentSuccess}},
		{"missing event", map[string]any{"timestamp": ts}},
		{"unreadable timestamp", map[string]any{"event": webhook.EventPaymentSuccess, "timestamp": "last tuesday"}},
		{"signup with bad email", map[string]any{"event": webhook.EventWaitlistSignup, "timestamp": ts, "data": map[string]string{"email": "nope"}}},
		{"signup without data", map[string]any{"event": webhook.EventWaitlistSignup, "timestamp": ts}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			requireError(t, s.do(t, signedZapier(t, tt.payload)), http.StatusBadRequest, authsdk.CodeValidation)
		})
	}
}
