package authsdk

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// SessionCookieName is the cookie the server uses to carry the session token.
const SessionCookieName = "token"

// SDKClient is a client for the launchpad web API.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient returns a client with its own cookie jar. Redirects are not
// followed so callers can observe the 302s the API uses for gating and OAuth.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil)

	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// SessionToken returns the session token currently held in the cookie jar.
func (c *SDKClient) SessionToken() string {
	if c.HTTPClient.Jar == nil {
		return ""
	}
	req, err := http.NewRequest(http.MethodGet, c.url("/"), nil)
	if err != nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(req.URL) {
		if ck.Name == SessionCookieName {
			return ck.Value
		}
	}
	return ""
}

// SetSessionToken replaces the session cookie held by the client.
func (c *SDKClient) SetSessionToken(token string) {
	if c.HTTPClient.Jar == nil {
		return
	}
	req, err := http.NewRequest(http.MethodGet, c.url("/"), nil)
	if err != nil {
		return
	}
	c.HTTPClient.Jar.SetCookies(req.URL, []*http.Cookie{{
		Name:  SessionCookieName,
		Value: token,
		Path:  "/",
	}})
}
