package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/metrics"
	"github.com/aussiebroadwan/launchpad/internal/web/replay"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"github.com/aussiebroadwan/launchpad/pkg/cryptox"
	"github.com/aussiebroadwan/launchpad/pkg/idx"
	"github.com/aussiebroadwan/launchpad/pkg/jwtx"
	"github.com/aussiebroadwan/launchpad/pkg/mailx"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// AuthService runs the sign-up, sign-in, OAuth and password reset flows.
type AuthService struct {
	Store  store.Store
	Tokens *jwtx.Issuer
	Guard  replay.Guard
	Mailer mailx.Sender

	// AppURL is the public origin reset links point at.
	AppURL string

	Metrics metrics.Recorder
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is a signed-in account and its fresh session token.
type AuthResult struct {
	Account domain.Account
	Token   string
}

// OAuthResult carries the token back to the caller that sets the cookie.
// Token is empty when Outcome is denied.
type OAuthResult struct {
	Outcome domain.OAuthOutcome
	Account domain.Account
	Token   string
}

// dummyHash is compared against when the email is unknown or the account
// has no password, so every miss costs the same bcrypt round as a wrong
// password.
var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword("launchpad-timing-equaliser")
	if err != nil {
		panic(err)
	}
	return h
})

// SignUp creates a password account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (res AuthResult, err error) {
	defer func() { s.record("signup", err) }()
	log := slogx.FromContext(ctx)

	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, ErrValidation
	}
	if len(in.Password) > maxPasswordBytes {
		return AuthResult{}, ErrValidation
	}

	// 1. Cheap pre-check; the unique index still decides races below.
	_, err = s.Store.Accounts().FindByEmail(ctx, email)
	switch {
	case err == nil:
		return AuthResult{}, ErrAlreadyExists
	case !errors.Is(err, store.ErrNotFound):
		log.Error("failed to look up account", slog.Any("error", err))
		return AuthResult{}, err
	}

	// 2. Hash and insert.
	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return AuthResult{}, ErrValidation
		}
		log.Error("failed to hash password", slog.Any("error", err))
		return AuthResult{}, err
	}

	now := time.Now().UTC()
	acc := domain.Account{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Accounts().Insert(ctx, acc); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Info("sign-up lost insert race", slog.String("email", email))
			return AuthResult{}, ErrAlreadyExists
		}
		log.Error("failed to insert account", slog.Any("error", err))
		return AuthResult{}, err
	}

	// 3. Sign in.
	token, err := s.Tokens.IssueSession(acc.ID, acc.Email, acc.Name)
	if err != nil {
		log.Error("failed to issue session", slog.Any("error", err))
		return AuthResult{}, err
	}

	log.Info("account created", slog.String("user_id", acc.ID))
	return AuthResult{Account: acc, Token: token}, nil
}

// SignIn checks a password. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (res AuthResult, err error) {
	defer func() { s.record("signin", err) }()
	log := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return AuthResult{}, ErrValidation
	}

	acc, err := s.Store.Accounts().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, dummyHash())
			return AuthResult{}, ErrInvalidCredentials
		}
		log.Error("failed to look up account", slog.Any("error", err))
		return AuthResult{}, err
	}

	// OAuth-only accounts pay the same bcrypt round as an unknown email.
	if !acc.HasPassword() {
		_ = cryptox.VerifyPassword(password, dummyHash())
		log.Debug("password sign-in on account without password", slog.String("user_id", acc.ID))
		return AuthResult{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, acc.PasswordHash); err != nil {
		log.Debug("password rejected", slog.String("user_id", acc.ID), slog.Any("reason", err))
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.Tokens.IssueSession(acc.ID, acc.Email, acc.Name)
	if err != nil {
		log.Error("failed to issue session", slog.Any("error", err))
		return AuthResult{}, err
	}
	return AuthResult{Account: acc, Token: token}, nil
}

// Whoami resolves a session token to its current account.
func (s *AuthService) Whoami(ctx context.Context, token string) (domain.Account, error) {
	if token == "" {
		return domain.Account{}, ErrNoToken
	}

	claims, err := s.Tokens.VerifySession(token)
	if err != nil {
		slogx.FromContext(ctx).Debug("session rejected", slog.Any("reason", err))
		return domain.Account{}, ErrInvalidToken
	}

	acc, err := s.Store.Accounts().FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, err
	}
	return acc, nil
}

// CompleteOAuth reconciles a provider profile with local accounts. A
// password account is never signed in or modified through OAuth.
func (s *AuthService) CompleteOAuth(ctx context.Context, p domain.OAuthProfile) (res OAuthResult, err error) {
	defer func() {
		if err != nil {
			s.record("oauth", err)
			return
		}
		s.metrics().RecordAuth("oauth", string(res.Outcome))
	}()
	log := slogx.FromContext(ctx)

	email := strings.TrimSpace(p.Email)
	if email == "" || !p.EmailVerified {
		log.Info("oauth sign-in denied: email missing or unverified")
		return OAuthResult{Outcome: domain.OAuthDenied}, nil
	}

	acc, err := s.Store.Accounts().FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.resolveExisting(ctx, acc)
	case !errors.Is(err, store.ErrNotFound):
		log.Error("failed to look up account", slog.Any("error", err))
		return OAuthResult{}, err
	}

	now := time.Now().UTC()
	acc = domain.Account{
		ID:        idx.NewAt(now).String(),
		Email:     email,
		Name:      strings.TrimSpace(p.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Accounts().Insert(ctx, acc); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			log.Error("failed to insert account", slog.Any("error", err))
			return OAuthResult{}, err
		}

		// Someone else created the email between our read and insert.
		existing, err := s.Store.Accounts().FindByEmail(ctx, email)
		if err != nil {
			log.Error("failed to re-read account after insert race", slog.Any("error", err))
			return OAuthResult{}, fmt.Errorf("oauth: re-read after race: %w", err)
		}
		return s.resolveExisting(ctx, existing)
	}

	token, err := s.Tokens.IssueSession(acc.ID, acc.Email, acc.Name)
	if err != nil {
		log.Error("failed to issue session", slog.Any("error", err))
		return OAuthResult{}, err
	}

	log.Info("account created via oauth", slog.String("user_id", acc.ID))
	return OAuthResult{Outcome: domain.OAuthCreated, Account: acc, Token: token}, nil
}

func (s *AuthService) resolveExisting(ctx context.Context, acc domain.Account) (OAuthResult, error) {
	log := slogx.FromContext(ctx)

	if acc.HasPassword() {
		log.Warn("oauth sign-in denied for password account", slog.String("user_id", acc.ID))
		return OAuthResult{Outcome: domain.OAuthDenied}, nil
	}

	token, err := s.Tokens.IssueSession(acc.ID, acc.Email, acc.Name)
	if err != nil {
		log.Error("failed to issue session", slog.Any("error", err))
		return OAuthResult{}, err
	}
	return OAuthResult{Outcome: domain.OAuthLinked, Account: acc, Token: token}, nil
}

// ForgotPassword emails a reset link when the account exists. It reports
// success either way, and a failed delivery is only logged.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.record("forgot_password", err) }()
	log := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" {
		return ErrValidation
	}

	acc, err := s.Store.Accounts().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		log.Error("failed to look up account", slog.Any("error", err))
		return err
	}

	token, _, err := s.Tokens.IssueReset(acc.ID, acc.Email)
	if err != nil {
		log.Error("failed to issue reset token", slog.Any("error", err))
		return err
	}

	msg, err := mailx.PasswordReset(acc.Email, mailx.PasswordResetData{
		Name:      acc.Name,
		Link:      s.resetLink(token),
		ExpiresIn: s.Tokens.ResetTTL,
	})
	if err != nil {
		log.Error("failed to render reset email", slog.Any("error", err))
		return nil
	}

	if err := s.Mailer.Send(ctx, msg); err != nil {
		log.Error("failed to send reset email", slog.String("user_id", acc.ID), slog.Any("error", err))
		return nil
	}

	log.Info("password reset email sent", slog.String("user_id", acc.ID))
	return nil
}

func (s *AuthService) resetLink(token string) string {
	return strings.TrimRight(s.AppURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// ResetPassword spends a reset token. Each token works once; the marker is
// claimed before the hash is written, so a failed update still uses it up.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { s.record("reset_password", err) }()
	log := slogx.FromContext(ctx)

	if token == "" || newPassword == "" || len(newPassword) > maxPasswordBytes {
		return ErrValidation
	}

	// 1. Verify.
	claims, err := s.Tokens.VerifyReset(token)
	if err != nil {
		log.Debug("reset token rejected", slog.Any("reason", err))
		return ErrInvalidOrExpiredToken
	}

	// 2. Claim the single-use marker.
	if err := s.Guard.Claim(ctx, cryptox.FingerprintToken(claims.ID), claims.ExpiresAt); err != nil {
		if errors.Is(err, replay.ErrAlreadyClaimed) {
			log.Warn("reset token replayed", slog.String("user_id", claims.UserID))
			return ErrInvalidOrExpiredToken
		}
		log.Error("failed to claim reset token", slog.Any("error", err))
		return err
	}

	// 3. Hash and store.
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	if err := s.Store.Accounts().UpdatePasswordHash(ctx, claims.UserID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		log.Error("failed to update password", slog.Any("error", err))
		return err
	}

	log.Info("password reset", slog.String("user_id", claims.UserID))
	return nil
}

func (s *AuthService) metrics() metrics.Recorder {
	if s.Metrics == nil {
		return metrics.Nop{}
	}
	return s.Metrics
}

func (s *AuthService) record(op string, err error) {
	s.metrics().RecordAuth(op, outcome(err))
}
