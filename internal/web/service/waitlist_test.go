package service_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
	"github.com/aussiebroadwan/launchpad/pkg/webhook"
	"github.com/stretchr/testify/require"
)

func newWaitlist(t *testing.T) (*service.WaitlistService, *capturePublisher) {
	t.Helper()

	f := newFixture(t)
	pub := &capturePublisher{}
	return &service.WaitlistService{Store: f.store, Events: pub}, pub
}

func TestWaitlistJoin(t *testing.T) {
	svc, pub := newWaitlist(t)
	ctx := t.Context()

	first, err := svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: " Alice ", ReferralSource: "twitter"})
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Position)
	require.Equal(t, "Alice", first.Name)

	second, err := svc.Join(ctx, service.JoinInput{Email: "b@x.com"})
	require.NoError(t, err)
	require.Equal(t, int64(2), second.Position)

	_, err = svc.Join(ctx, service.JoinInput{Email: "a@x.com"})
	require.ErrorIs(t, err, service.ErrAlreadyOnWaitlist)

	total, err := svc.Total(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	require.Len(t, pub.events, 2)
	require.Equal(t, webhook.EventWaitlistSignup, pub.events[0].Event)

	var data map[string]any
	require.NoError(t, json.Unmarshal(pub.events[0].Data, &data))
	require.Equal(t, "a@x.com", data["email"])
	require.Equal(t, "twitter", data["referralSource"])
	require.EqualValues(t, 1, data["position"])

	_, err = time.Parse(time.RFC3339Nano, pub.events[0].Timestamp)
	require.NoError(t, err)
}

func TestWaitlistJoinValidation(t *testing.T) {
	svc, pub := newWaitlist(t)

	for _, email := range []string{"", "not-an-email", "Alice <a@x.com>"} {
		_, err := svc.Join(t.Context(), service.JoinInput{Email: email})
		require.ErrorIs(t, err, service.ErrValidation, email)
	}
	require.Empty(t, pub.events)
}

func TestWaitlistJoinSurvivesPublishFailure(t *testing.T) {
	svc, pub := newWaitlist(t)
	pub.err = webhook.ErrQueueFull

	e, err := svc.Join(t.Context(), service.JoinInput{Email: "a@x.com"})
	require.NoError(t, err)
	require.Equal(t, int64(1), e.Position)
}

func TestWaitlistLookup(t *testing.T) {
	svc, _ := newWaitlist(t)
	ctx := t.Context()

	joined, err := svc.Join(ctx, service.JoinInput{Email: "a@x.com", Name: "Alice"})
	require.NoError(t, err)

	got, err := svc.Lookup(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, joined.ID, got.ID)
	require.Equal(t, joined.Position, got.Position)

	_, err = svc.Lookup(ctx, "b@x.com")
	require.ErrorIs(t, err, service.ErrWaitlistEntryNotFound)

	_, err = svc.Lookup(ctx, "nope")
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestHandleInbound(t *testing.T) {
	svc, pub := newWaitlist(t)
	ctx := t.Context()

	signup := func(data string) webhook.Event {
		return webhook.Event{Event: webhook.EventWaitlistSignup, Timestamp: "2025-03-01T12:00:00Z", Data: json.RawMessage(data)}
	}

	require.NoError(t, svc.HandleInbound(ctx, signup(`{"email":"z@x.com","name":"Zed"}`)))
	e, err := svc.Lookup(ctx, "z@x.com")
	require.NoError(t, err)
	require.Equal(t, "Zed", e.Name)
	require.Empty(t, pub.events, "inbound signups are not relayed back out")

	require.NoError(t, svc.HandleInbound(ctx, signup(`{"email":"z@x.com"}`)), "duplicates are acknowledged")

	require.ErrorIs(t, svc.HandleInbound(ctx, signup(`{"email":"bad"}`)), service.ErrValidation)
	require.ErrorIs(t, svc.HandleInbound(ctx, signup(`[1,2]`)), service.ErrValidation)
	require.ErrorIs(t, svc.HandleInbound(ctx, webhook.Event{Event: webhook.EventWaitlistSignup}), service.ErrValidation)

	require.NoError(t, svc.HandleInbound(ctx, webhook.Event{Event: webhook.EventPaymentSuccess, Data: json.RawMessage(`{}`)}))
	require.NoError(t, svc.HandleInbound(ctx, webhook.Event{Event: "something.else"}))

	total, err := svc.Total(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestHousekeepingPurgesExpiredMarkers(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, f.store.ResetTokens().MarkUsed(ctx, domain.UsedResetToken{Key: "old", ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, f.store.ResetTokens().MarkUsed(ctx, domain.UsedResetToken{Key: "live", ExpiresAt: now.Add(time.Minute), CreatedAt: now}))

	hk := service.NewHousekeepingService(f.store, slogx.Discard(), time.Hour)
	hk.Now = func() time.Time { return now }

	require.Equal(t, int64(1), hk.RunOnce(ctx))
	require.Zero(t, hk.RunOnce(ctx))

	// The live marker is still enforced.
	err := f.store.ResetTokens().MarkUsed(ctx, domain.UsedResetToken{Key: "live", ExpiresAt: now.Add(time.Minute), CreatedAt: now})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	hk.Stop() // never started
	hk.Start()
	hk.Start()
	hk.Stop()
	hk.Stop()
}
