package web_test

import (
	"testing"

	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestWaitlistPositions(t *testing.T) {
	client := authsdk.NewSDKClient(setupWebContainer(t))
	ctx := t.Context()

	first, err := client.JoinWaitlist(ctx, authsdk.JoinWaitlistRequest{Email: "first@example.com"})
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Position)

	second, err := client.JoinWaitlist(ctx, authsdk.JoinWaitlistRequest{Email: "second@example.com", ReferralSource: "e2e"})
	require.NoError(t, err)
	require.Equal(t, int64(2), second.Position)

	_, err = client.JoinWaitlist(ctx, authsdk.JoinWaitlistRequest{Email: "first@example.com"})
	require.ErrorIs(t, err, authsdk.ErrAlreadyExists)

	found, err := client.LookupWaitlist(ctx, "second@example.com")
	require.NoError(t, err)
	require.Equal(t, second.ID, found.ID)

	total, err := client.WaitlistTotal(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}
