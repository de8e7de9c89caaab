package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/aussiebroadwan/launchpad/pkg/httpx"
	"github.com/aussiebroadwan/launchpad/pkg/jwtx"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
)

// SignInPath is where RequireSession sends visitors without a session.
const SignInPath = "/auth"

type sessionKey struct{}

// SessionFromContext returns the claims RequireSession verified.
func SessionFromContext(ctx context.Context) (jwtx.SessionClaims, bool) {
	c, ok := ctx.Value(sessionKey{}).(jwtx.SessionClaims)
	return c, ok
}

// RequireSession gates page routes on a valid session cookie. Anything else
// is redirected to the sign-in page rather than answered with JSON.
func RequireSession(verifier jwtx.Verifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			token := cookieValue(r, SessionCookie)
			if token == "" {
				log.Debug("no session cookie, redirecting to sign-in")
				http.Redirect(w, r, SignInPath, http.StatusFound)
				return
			}

			claims, err := verifier.VerifySession(token)
			if err != nil {
				log.Debug("session rejected, redirecting to sign-in", slog.Any("reason", err))
				http.Redirect(w, r, SignInPath, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DashboardHandler answers for the signed-in user straight from the token
// claims, without touching the store.
type DashboardHandler struct {
	Verifier jwtx.Verifier
}

// ServeHTTP godoc
//
//	@Summary		Dashboard
//	@Description	Session-gated page. Without a valid session the browser is redirected to /auth.
//	@Tags			Pages
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{object}	authsdk.AuthResponse
//	@Success		302	"Redirect to /auth"
//	@Router			/dashboard [get]
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		var err error
		claims, err = h.Verifier.VerifySession(cookieValue(r, SessionCookie))
		if err != nil {
			http.Redirect(w, r, SignInPath, http.StatusFound)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		Success: true,
		User: authsdk.User{
			ID:    claims.UserID,
			Email: claims.Email,
			Name:  claims.Name,
		},
	})
}
