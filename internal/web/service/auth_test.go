package service_test

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"github.com/aussiebroadwan/launchpad/pkg/cryptox"
	"github.com/aussiebroadwan/launchpad/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSignUpThenSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	up, err := f.auth.SignUp(ctx, service.SignUpInput{Name: "Alice", Email: " a@x.com ", Password: "longenough1"})
	require.NoError(t, err)
	require.Equal(t, "a@x.com", up.Account.Email)
	require.NotEmpty(t, up.Account.ID)

	upClaims, err := f.issuer.VerifySession(up.Token)
	require.NoError(t, err)
	require.Equal(t, up.Account.ID, upClaims.UserID)

	in, err := f.auth.SignIn(ctx, "a@x.com", "longenough1")
	require.NoError(t, err)

	inClaims, err := f.issuer.VerifySession(in.Token)
	require.NoError(t, err)
	require.Equal(t, up.Account.ID, inClaims.UserID)
	require.Equal(t, "Alice", inClaims.Name)

	stored, err := f.store.Accounts().FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotEqual(t, "longenough1", stored.PasswordHash)
	require.NoError(t, cryptox.VerifyPassword("longenough1", stored.PasswordHash))
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   service.SignUpInput
	}{
		{"missing email", service.SignUpInput{Password: "pw"}},
		{"blank email", service.SignUpInput{Email: "   ", Password: "pw"}},
		{"missing password", service.SignUpInput{Email: "a@x.com"}},
		{"password over bcrypt limit", service.SignUpInput{Email: "a@x.com", Password: strings.Repeat("p", 73)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.SignUp(t.Context(), tt.in)
			require.ErrorIs(t, err, service.ErrValidation)
		})
	}

	_, err := f.store.Accounts().FindByEmail(t.Context(), "a@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSignUpDuplicate(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.SignUp(t.Context(), service.SignUpInput{Email: "a@x.com", Password: "pw-1"})
	require.NoError(t, err)

	_, err = f.auth.SignUp(t.Context(), service.SignUpInput{Email: "a@x.com", Password: "pw-2"})
	require.ErrorIs(t, err, service.ErrAlreadyExists)

	// The original password still works.
	_, err = f.auth.SignIn(t.Context(), "a@x.com", "pw-1")
	require.NoError(t, err)
}

func TestConcurrentSignUpCreatesOneAccount(t *testing.T) {
	f := newFixture(t)

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := make(chan struct{})
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.auth.SignUp(t.Context(), service.SignUpInput{Email: "race@x.com", Password: "pw"})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, service.ErrAlreadyExists):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, n-1, dup)
}

func TestSignInFailuresLookAlike(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.auth.SignUp(ctx, service.SignUpInput{Email: "a@x.com", Password: "right"})
	require.NoError(t, err)
	require.NoError(t, f.store.Accounts().Insert(ctx, domain.Account{ID: "oauth-only", Email: "o@x.com"}))

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"wrong password", "a@x.com", "wrong", service.ErrInvalidCredentials},
		{"unknown email", "nobody@x.com", "right", service.ErrInvalidCredentials},
		{"oauth-only account", "o@x.com", "anything", service.ErrInvalidCredentials},
		{"missing password", "a@x.com", "", service.ErrValidation},
		{"missing email", "", "right", service.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.auth.SignIn(ctx, tt.email, tt.password)
			require.ErrorIs(t, err, tt.want)
			require.Empty(t, res.Token)
		})
	}
}

// Each rejected sign-in must cost at least one bcrypt comparison, otherwise
// response time tells unknown, OAuth-only and password accounts apart.
func TestSignInFailuresCostABcryptRound(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.auth.SignUp(ctx, service.SignUpInput{Email: "a@x.com", Password: "right"})
	require.NoError(t, err)
	require.NoError(t, f.store.Accounts().Insert(ctx, domain.Account{ID: "oauth-only", Email: "o@x.com"}))

	hash, err := cryptox.HashPassword("reference")
	require.NoError(t, err)

	// Minimums filter scheduler noise, which only ever adds time.
	fastest := func(fn func()) time.Duration {
		best := time.Duration(1<<63 - 1)
		for range 3 {
			start := time.Now()
			fn()
			best = min(best, time.Since(start))
		}
		return best
	}

	bcryptRound := fastest(func() { _ = cryptox.VerifyPassword("wrong", hash) })

	for name, email := range map[string]string{
		"wrong password":     "a@x.com",
		"unknown email":      "nobody@x.com",
		"oauth-only account": "o@x.com",
	} {
		t.Run(name, func(t *testing.T) {
			took := fastest(func() {
				_, err := f.auth.SignIn(ctx, email, "wrong")
				require.ErrorIs(t, err, service.ErrInvalidCredentials)
			})
			require.GreaterOrEqual(t, took, bcryptRound/2, "sign-in rejected in %s, one bcrypt round takes %s", took, bcryptRound)
		})
	}
}

func TestWhoami(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	up, err := f.auth.SignUp(ctx, service.SignUpInput{Name: "Alice", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	acc, err := f.auth.Whoami(ctx, up.Token)
	require.NoError(t, err)
	require.Equal(t, up.Account.ID, acc.ID)

	_, err = f.auth.Whoami(ctx, "")
	require.ErrorIs(t, err, service.ErrNoToken)

	_, err = f.auth.Whoami(ctx, "not.a.jwt")
	require.ErrorIs(t, err, service.ErrInvalidToken)

	reset, _, err := f.issuer.IssueReset(up.Account.ID, "a@x.com")
	require.NoError(t, err)
	_, err = f.auth.Whoami(ctx, reset)
	require.ErrorIs(t, err, service.ErrInvalidToken)

	ghost, err := f.issuer.IssueSession("01HZZZZZZZZZZZZZZZZZZZZZZZ", "ghost@x.com", "")
	require.NoError(t, err)
	_, err = f.auth.Whoami(ctx, ghost)
	require.ErrorIs(t, err, service.ErrAccountNotFound)
}

func TestCompleteOAuth(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	t.Run("created", func(t *testing.T) {
		res, err := f.auth.CompleteOAuth(ctx, domain.OAuthProfile{Email: "new@x.com", EmailVerified: true, Name: "New"})
		require.NoError(t, err)
		require.Equal(t, domain.OAuthCreated, res.Outcome)
		require.NotEmpty(t, res.Token)

		stored, err := f.store.Accounts().FindByEmail(ctx, "new@x.com")
		require.NoError(t, err)
		require.Equal(t, res.Account.ID, stored.ID)
		require.False(t, stored.HasPassword())

		claims, err := f.issuer.VerifySession(res.Token)
		require.NoError(t, err)
		require.Equal(t, stored.ID, claims.UserID)
	})

	t.Run("linked", func(t *testing.T) {
		res, err := f.auth.CompleteOAuth(ctx, domain.OAuthProfile{Email: "new@x.com", EmailVerified: true})
		require.NoError(t, err)
		require.Equal(t, domain.OAuthLinked, res.Outcome)
		require.NotEmpty(t, res.Token)

		stored, err := f.store.Accounts().FindByEmail(ctx, "new@x.com")
		require.NoError(t, err)
		require.Equal(t, res.Account.ID, stored.ID)
	})

	t.Run("denied for password account", func(t *testing.T) {
		up, err := f.auth.SignUp(ctx, service.SignUpInput{Email: "pw@x.com", Password: "secret"})
		require.NoError(t, err)
		before, err := f.store.Accounts().FindByEmail(ctx, "pw@x.com")
		require.NoError(t, err)

		res, err := f.auth.CompleteOAuth(ctx, domain.OAuthProfile{Email: "pw@x.com", EmailVerified: true, Name: "Mallory"})
		require.NoError(t, err)
		require.Equal(t, domain.OAuthDenied, res.Outcome)
		require.Empty(t, res.Token)

		after, err := f.store.Accounts().FindByEmail(ctx, "pw@x.com")
		require.NoError(t, err)
		require.Equal(t, before, after)
		require.Equal(t, up.Account.ID, after.ID)
	})

	t.Run("denied for unverified email", func(t *testing.T) {
		res, err := f.auth.CompleteOAuth(ctx, domain.OAuthProfile{Email: "unverified@x.com"})
		require.NoError(t, err)
		require.Equal(t, domain.OAuthDenied, res.Outcome)

		_, err = f.store.Accounts().FindByEmail(ctx, "unverified@x.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestConcurrentOAuthCreatesOneAccount(t *testing.T) {
	f := newFixture(t)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []service.OAuthResult
		errs    []error
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.auth.CompleteOAuth(t.Context(), domain.OAuthProfile{Email: "g@x.com", EmailVerified: true})
			mu.Lock()
			defer mu.Unlock()
			results = append(results, res)
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	ids := map[string]struct{}{}
	created := 0
	for _, r := range results {
		require.NotEmpty(t, r.Token)
		ids[r.Account.ID] = struct{}{}
		if r.Outcome == domain.OAuthCreated {
			created++
		}
	}
	require.Len(t, ids, 1)
	require.Equal(t, 1, created)
}

func resetTokenFrom(t *testing.T, link string) string {
	t.Helper()

	u, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, "/reset-password", u.Path)
	return u.Query().Get("token")
}

func TestForgotPassword(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.auth.SignUp(ctx, service.SignUpInput{Name: "Alice", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	t.Run("unknown email is silent", func(t *testing.T) {
		require.NoError(t, f.auth.ForgotPassword(ctx, "nobody@x.com"))
		require.Empty(t, f.mailer.messages())
	})

	t.Run("blank email", func(t *testing.T) {
		require.ErrorIs(t, f.auth.ForgotPassword(ctx, " "), service.ErrValidation)
	})

	t.Run("known email gets a one hour link", func(t *testing.T) {
		issued := time.Now()
		require.NoError(t, f.auth.ForgotPassword(ctx, "a@x.com"))

		msgs := f.mailer.messages()
		require.Len(t, msgs, 1)
		require.Equal(t, "a@x.com", msgs[0].To)

		idx := strings.Index(msgs[0].TextBody, "https://launchpad.example.com/reset-password?token=")
		require.GreaterOrEqual(t, idx, 0)
		link := strings.Fields(msgs[0].TextBody[idx:])[0]

		claims, err := f.issuer.VerifyReset(resetTokenFrom(t, link))
		require.NoError(t, err)
		require.Equal(t, "a@x.com", claims.Email)
		require.WithinDuration(t, issued.Add(time.Hour), claims.ExpiresAt, 5*time.Second)
	})

	t.Run("delivery failure keeps the response", func(t *testing.T) {
		f.mailer.fail = true
		defer func() { f.mailer.fail = false }()
		require.NoError(t, f.auth.ForgotPassword(ctx, "a@x.com"))
	})
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	up, err := f.auth.SignUp(ctx, service.SignUpInput{Email: "a@x.com", Password: "old-password"})
	require.NoError(t, err)

	token, _, err := f.issuer.IssueReset(up.Account.ID, "a@x.com")
	require.NoError(t, err)

	require.NoError(t, f.auth.ResetPassword(ctx, token, "new-password"))

	_, err = f.auth.SignIn(ctx, "a@x.com", "new-password")
	require.NoError(t, err)
	_, err = f.auth.SignIn(ctx, "a@x.com", "old-password")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	t.Run("token is single use", func(t *testing.T) {
		err := f.auth.ResetPassword(ctx, token, "third-password")
		require.ErrorIs(t, err, service.ErrInvalidOrExpiredToken)

		_, err = f.auth.SignIn(ctx, "a@x.com", "new-password")
		require.NoError(t, err)
	})
}

func TestResetPasswordRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	up, err := f.auth.SignUp(ctx, service.SignUpInput{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)
	before, err := f.store.Accounts().FindByID(ctx, up.Account.ID)
	require.NoError(t, err)

	past, err := jwtx.NewIssuer(testSecret)
	require.NoError(t, err)
	past.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := past.IssueReset(up.Account.ID, "a@x.com")
	require.NoError(t, err)

	other, err := jwtx.NewIssuer([]byte("a-different-secret-entirely-0000"))
	require.NoError(t, err)
	forged, _, err := other.IssueReset(up.Account.ID, "a@x.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, service.ErrInvalidOrExpiredToken},
		{"wrong secret", forged, service.ErrInvalidOrExpiredToken},
		{"session token", up.Token, service.ErrInvalidOrExpiredToken},
		{"malformed", "garbage", service.ErrInvalidOrExpiredToken},
		{"missing", "", service.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, f.auth.ResetPassword(ctx, tt.token, "new-password"), tt.want)
		})
	}

	after, err := f.store.Accounts().FindByID(ctx, up.Account.ID)
	require.NoError(t, err)
	require.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestResetPasswordForMissingAccount(t *testing.T) {
	f := newFixture(t)

	token, _, err := f.issuer.IssueReset("01HZZZZZZZZZZZZZZZZZZZZZZZ", "ghost@x.com")
	require.NoError(t, err)

	require.ErrorIs(t, f.auth.ResetPassword(t.Context(), token, "pw"), service.ErrAccountNotFound)
}

func TestOAuthAccountCanSetPasswordThenIsDenied(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	res, err := f.auth.CompleteOAuth(ctx, domain.OAuthProfile{Email: "g@x.com", EmailVerified: true})
	require.NoError(t, err)
	require.Equal(t, domain.OAuthCreated, res.Outcome)

	require.NoError(t, f.auth.ForgotPassword(ctx, "g@x.com"))
	msgs := f.mailer.messages()
	require.Len(t, msgs, 1)
	idx := strings.Index(msgs[0].TextBody, "https://")
	token := resetTokenFrom(t, strings.Fields(msgs[0].TextBody[idx:])[0])

	require.NoError(t, f.auth.ResetPassword(ctx, token, "now-with-password"))

	res, err = f.auth.CompleteOAuth(ctx, domain.OAuthProfile{Email: "g@x.com", EmailVerified: true})
	require.NoError(t, err)
	require.Equal(t, domain.OAuthDenied, res.Outcome)
}
