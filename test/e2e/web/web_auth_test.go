package web_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestSessionLifecycle walks an account through sign up, verify, sign out
// and sign in against a real container.
func TestSessionLifecycle(t *testing.T) {
	baseURL := setupWebContainer(t)
	ctx := t.Context()

	client, user := signUp(t, baseURL, "lifecycle@example.com")
	require.Equal(t, "lifecycle@example.com", user.Email)

	me, err := client.Verify(ctx)
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)

	require.NoError(t, client.SignOut(ctx))
	_, err = client.Verify(ctx)
	require.ErrorIs(t, err, authsdk.ErrNoToken)

	again, err := client.SignIn(ctx, "lifecycle@example.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID)
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	baseURL := setupWebContainer(t)
	signUp(t, baseURL, "dupe@example.com")

	_, err := authsdk.NewSDKClient(baseURL).SignUp(t.Context(), authsdk.SignUpRequest{
		Email:    "dupe@example.com",
		Password: testPassword,
	})
	require.ErrorIs(t, err, authsdk.ErrAlreadyExists)
}

func TestSignInWrongPassword(t *testing.T) {
	baseURL := setupWebContainer(t)
	signUp(t, baseURL, "wrong@example.com")

	_, err := authsdk.NewSDKClient(baseURL).SignIn(t.Context(), "wrong@example.com", "not-the-password")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
}

func TestVerifyTamperedToken(t *testing.T) {
	baseURL := setupWebContainer(t)
	client, _ := signUp(t, baseURL, "tamper@example.com")

	client.SetSessionToken(client.SessionToken() + "x")
	_, err := client.Verify(t.Context())
	require.ErrorIs(t, err, authsdk.ErrInvalidToken)
}

func TestForgotPasswordDoesNotLeakAccounts(t *testing.T) {
	baseURL := setupWebContainer(t)
	signUp(t, baseURL, "known@example.com")
	client := authsdk.NewSDKClient(baseURL)

	known, err := client.ForgotPassword(t.Context(), "known@example.com")
	require.NoError(t, err)
	unknown, err := client.ForgotPassword(t.Context(), "unknown@example.com")
	require.NoError(t, err)
	require.Equal(t, known, unknown)
}

func TestDashboardGate(t *testing.T) {
	baseURL := setupWebContainer(t)
	ctx := t.Context()

	status, location, err := authsdk.NewSDKClient(baseURL).Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, status)
	require.Equal(t, "/auth", location)

	client, _ := signUp(t, baseURL, "dash@example.com")
	status, _, err = client.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
}
