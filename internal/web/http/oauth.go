package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/launchpad/internal/web/domain"
	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/pkg/cryptox"
	"github.com/aussiebroadwan/launchpad/pkg/oauthx"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
)

// Error values placed on the sign-in page redirect.
const (
	OAuthErrorAccessDenied  = "AccessDenied"
	OAuthErrorCallback      = "OAuthCallback"
	OAuthErrorConfiguration = "Configuration"
)

// DashboardPath is where a successful OAuth sign-in lands.
const DashboardPath = "/dashboard"

// OAuthHandler runs the Google authorization code flow.
type OAuthHandler struct {
	AuthService *service.AuthService

	// Provider is nil when Google sign-in is not configured.
	Provider      oauthx.Provider
	SecureCookies bool
}

// HandleStart godoc
//
//	@Summary		Start Google sign-in
//	@Description	Sets a short-lived state cookie and redirects to Google's consent screen.
//	@Tags			OAuth
//	@Success		302	"Redirect to the provider, or to /auth?error=Configuration"
//	@Router			/api/auth/google [get]
func (h *OAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		redirectSignInError(w, r, OAuthErrorConfiguration)
		return
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to generate oauth state", slog.Any("error", err))
		redirectSignInError(w, r, OAuthErrorCallback)
		return
	}

	setStateCookie(w, state, h.SecureCookies)
	http.Redirect(w, r, h.Provider.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Google sign-in callback
//	@Description	Checks the state, exchanges the code and reconciles the Google profile with local accounts.
//	@Description	Success sets the session cookie and redirects to /dashboard. Failures redirect to /auth with an error value.
//	@Tags			OAuth
//	@Param			code	query	string	false	"Authorization code"
//	@Param			state	query	string	false	"State echoed by the provider"
//	@Param			error	query	string	false	"Provider error, e.g. access_denied"
//	@Success		302		"Redirect to /dashboard or /auth?error=..."
//	@Router			/api/auth/callback/google [get]
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	if h.Provider == nil {
		redirectSignInError(w, r, OAuthErrorConfiguration)
		return
	}

	// The state cookie is single use whatever happens next.
	expected := cookieValue(r, StateCookie)
	clearStateCookie(w, h.SecureCookies)

	q := r.URL.Query()
	if perr := q.Get("error"); perr != "" {
		log.Info("provider returned an error", slog.String("provider", h.Provider.Name()), slog.String("error", perr))
		if perr == "access_denied" {
			redirectSignInError(w, r, OAuthErrorAccessDenied)
			return
		}
		redirectSignInError(w, r, OAuthErrorCallback)
		return
	}

	if !cryptox.EqualTokens(expected, q.Get("state")) {
		log.Warn("oauth state mismatch")
		redirectSignInError(w, r, OAuthErrorCallback)
		return
	}

	code := q.Get("code")
	if code == "" {
		redirectSignInError(w, r, OAuthErrorCallback)
		return
	}

	profile, err := h.Provider.Exchange(r.Context(), code)
	if err != nil {
		log.Warn("oauth exchange failed", slog.String("provider", h.Provider.Name()), slog.Any("error", err))
		redirectSignInError(w, r, OAuthErrorCallback)
		return
	}

	res, err := h.AuthService.CompleteOAuth(r.Context(), domain.OAuthProfile{
		Subject:       profile.Subject,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		Name:          profile.Name,
	})
	if err != nil {
		log.Error("failed to complete oauth sign-in", slog.Any("error", err))
		redirectSignInError(w, r, OAuthErrorCallback)
		return
	}

	if res.Outcome == domain.OAuthDenied {
		redirectSignInError(w, r, OAuthErrorAccessDenied)
		return
	}

	setSessionCookie(w, res.Token, h.SecureCookies)
	http.Redirect(w, r, DashboardPath, http.StatusFound)
}

func redirectSignInError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, SignInPath+"?error="+url.QueryEscape(code), http.StatusFound)
}
