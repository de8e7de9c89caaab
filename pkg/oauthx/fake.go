package oauthx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// FakeServer is an httptest OAuth server for exercising the code flow in
// tests. Codes map to the profile the userinfo endpoint should return.
type FakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	profiles map[string]Profile
	tokens   map[string]Profile
}

// NewFakeServer starts a fake provider. Close it when done.
func NewFakeServer() *FakeServer {
	f := &FakeServer{
		profiles: make(map[string]Profile),
		tokens:   make(map[string]Profile),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /authorize", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /token", f.handleToken)
	mux.HandleFunc("GET /userinfo", f.handleUserInfo)

	f.Server = httptest.NewServer(mux)
	return f
}

// AddCode registers an authorization code that resolves to p.
func (f *FakeServer) AddCode(code string, p Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[code] = p
}

// GoogleConfig points a Google provider at the fake server.
func (f *FakeServer) GoogleConfig() GoogleConfig {
	return GoogleConfig{
		ClientID:     "fake-client",
		ClientSecret: "fake-secret",
		RedirectURL:  "http://localhost/api/auth/callback/google",
		Scopes:       []string{"openid", "email", "profile"},
		AuthURL:      f.URL + "/authorize",
		TokenURL:     f.URL + "/token",
		UserInfoURL:  f.URL + "/userinfo",
	}
}

func (f *FakeServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	code := r.PostForm.Get("code")

	f.mu.Lock()
	p, ok := f.profiles[code]
	if ok {
		delete(f.profiles, code)
		f.tokens["at-"+code] = p
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "at-" + code,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (f *FakeServer) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) <= len(prefix) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	p, ok := f.tokens[auth[len(prefix):]]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(googleUser{
		Sub:           p.Subject,
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		Name:          p.Name,
	})
}
