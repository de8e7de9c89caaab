package oauthx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is Google's OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleConfig holds configuration for the Google provider. The endpoint
// overrides exist for tests and are normally left empty.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_REDIRECT_URL"`
	Scopes       []string `env:"GOOGLE_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`

	AuthURL     string `env:"GOOGLE_AUTH_URL"`
	TokenURL    string `env:"GOOGLE_TOKEN_URL"`
	UserInfoURL string `env:"GOOGLE_USERINFO_URL"`
}

// Enabled reports whether credentials were supplied.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type googleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogle returns the Google provider, or ErrNotConfigured when cfg has no
// credentials.
func NewGoogle(cfg GoogleConfig) (Provider, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	userInfo := cfg.UserInfoURL
	if userInfo == "" {
		userInfo = GoogleUserInfoURL
	}

	return &googleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfo,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *googleProvider) Exchange(ctx context.Context, code string) (Profile, error) {
	if code == "" {
		return Profile{}, ErrInvalidCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return Profile{}, errors.Join(ErrInvalidCode, err)
	}

	u, err := p.fetchUser(ctx, tok)
	if err != nil {
		return Profile{}, errors.Join(ErrUserInfo, err)
	}

	return Profile{
		Subject:       u.Sub,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Name:          u.Name,
	}, nil
}

func (p *googleProvider) fetchUser(ctx context.Context, tok *oauth2.Token) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

type googleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

var _ Provider = (*googleProvider)(nil)
