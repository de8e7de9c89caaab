package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/aussiebroadwan/launchpad/pkg/jwtx"
)

const (
	// SessionCookie carries the session token.
	SessionCookie = authsdk.SessionCookieName

	// StateCookie carries the OAuth state between redirect and callback.
	StateCookie = "oauth_state"

	stateCookiePath = "/api/auth"
	stateCookieTTL  = 10 * time.Minute
)

// sessionMaxAge is the cookie lifetime in seconds, matching the token.
var sessionMaxAge = int(jwtx.DefaultSessionTTL / time.Second)

func setSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// The state cookie is Lax: it has to survive the top-level redirect back
// from the provider, which Strict would drop.
func setStateCookie(w http.ResponseWriter, state string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   int(stateCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearStateCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    "",
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// cookieValue returns the named cookie's value, or "" when absent.
func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
