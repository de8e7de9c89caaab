package webhook_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/launchpad/pkg/webhook"
	"github.com/stretchr/testify/require"
)

var fastBackoff = webhook.ExponentialBackoff{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

func TestNewRelayValidatesURLs(t *testing.T) {
	for _, u := range []string{"ftp://hooks.example.com/x", "/relative", "http://"} {
		_, err := webhook.NewRelay(webhook.RelayConfig{URLs: []string{u}})
		require.ErrorIs(t, err, webhook.ErrInvalidURL, u)
	}
}

func TestRelayDeliversSignedEvent(t *testing.T) {
	var (
		mu   sync.Mutex
		got  webhook.Event
		hdrs http.Header
		body []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		body, _ = io.ReadAll(r.Body)
		hdrs = r.Header.Clone()
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	relay, err := webhook.NewRelay(webhook.RelayConfig{
		URLs:    []string{srv.URL + "/hooks/catch/123/abc"},
		Secret:  "relay-secret",
		Backoff: fastBackoff,
	})
	require.NoError(t, err)
	require.Equal(t, 1, relay.Targets())

	e, err := webhook.NewEvent(webhook.EventWaitlistSignup, map[string]string{"email": "a@x.com"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, relay.Deliver(context.Background(), e))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, webhook.EventWaitlistSignup, got.Event)
	require.JSONEq(t, `{"email":"a@x.com"}`, string(got.Data))
	require.Equal(t, webhook.EventWaitlistSignup, hdrs.Get(webhook.HeaderEvent))

	sig, err := webhook.ParseSignatureHeaders(hdrs)
	require.NoError(t, err)
	require.NoError(t, webhook.VerifySignature("relay-secret", body, sig, time.Minute, time.Now()))
}

func TestRelayRetries(t *testing.T) {
	t.Run("recovers after transient failures", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		var attempts []webhook.DeliveryResult
		relay, err := webhook.NewRelay(webhook.RelayConfig{
			URLs:       []string{srv.URL},
			Backoff:    fastBackoff,
			OnDelivery: func(r webhook.DeliveryResult) { attempts = append(attempts, r) },
		})
		require.NoError(t, err)

		require.NoError(t, relay.Deliver(context.Background(), webhook.Event{Event: "x", Data: json.RawMessage(`{}`)}))
		require.Equal(t, int32(3), calls.Load())
		require.Len(t, attempts, 3)
		require.Equal(t, 3, attempts[2].Attempt)
		require.Equal(t, http.StatusOK, attempts[2].StatusCode)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		relay, err := webhook.NewRelay(webhook.RelayConfig{URLs: []string{srv.URL}, MaxRetries: 2, Backoff: fastBackoff})
		require.NoError(t, err)

		err = relay.Deliver(context.Background(), webhook.Event{Event: "x", Data: json.RawMessage(`{}`)})
		require.ErrorIs(t, err, webhook.ErrDeliveryFailed)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are permanent", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "gone", http.StatusGone)
		}))
		t.Cleanup(srv.Close)

		relay, err := webhook.NewRelay(webhook.RelayConfig{URLs: []string{srv.URL}, Backoff: fastBackoff})
		require.NoError(t, err)

		err = relay.Deliver(context.Background(), webhook.Event{Event: "x", Data: json.RawMessage(`{}`)})
		require.ErrorIs(t, err, webhook.ErrPermanentFailure)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("one failing target does not stop the others", func(t *testing.T) {
		var okCalls atomic.Int32
		ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			okCalls.Add(1)
		}))
		t.Cleanup(ok.Close)
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		t.Cleanup(bad.Close)

		relay, err := webhook.NewRelay(webhook.RelayConfig{URLs: []string{bad.URL, ok.URL}, Backoff: fastBackoff})
		require.NoError(t, err)

		err = relay.Deliver(context.Background(), webhook.Event{Event: "x", Data: json.RawMessage(`{}`)})
		require.ErrorIs(t, err, webhook.ErrPermanentFailure)
		require.Equal(t, int32(1), okCalls.Load())
	})
}

func TestRelayWithoutTargets(t *testing.T) {
	relay, err := webhook.NewRelay(webhook.RelayConfig{})
	require.NoError(t, err)
	require.Zero(t, relay.Targets())
	require.NoError(t, relay.Deliver(context.Background(), webhook.Event{Event: "x"}))
}
