package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	webhttp "github.com/aussiebroadwan/launchpad/internal/web/http"
	"github.com/aussiebroadwan/launchpad/internal/web/metrics"
	"github.com/aussiebroadwan/launchpad/internal/web/replay"
	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/internal/web/store/drivers/sqlite"
	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/aussiebroadwan/launchpad/pkg/jwtx"
	"github.com/aussiebroadwan/launchpad/pkg/mailx"
	"github.com/aussiebroadwan/launchpad/pkg/oauthx"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("http-test-secret-0123456789abcdef")

type captureMailer struct {
	mu   sync.Mutex
	sent []mailx.Message
}

func (m *captureMailer) Send(_ context.Context, msg mailx.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) messages() []mailx.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailx.Message(nil), m.sent...)
}

type testServer struct {
	router *webhttp.Router
	store  *sqlite.Store
	issuer *jwtx.Issuer
	mailer *captureMailer
}

type option func(*webhttp.Router)

func withOAuth(p oauthx.Provider) option {
	return func(r *webhttp.Router) { r.OAuth = p }
}

func withZapierSecret(secret string) option {
	return func(r *webhttp.Router) { r.ZapierSecret = secret }
}

func withStaticDir(dir string) option {
	return func(r *webhttp.Router) { r.StaticDir = dir }
}

func newTestServer(t *testing.T, opts ...option) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations(t.Context()))
	t.Cleanup(func() { _ = st.Close() })

	iss, err := jwtx.NewIssuer(testSecret)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)
	guard := replay.NewStoreGuard(st)
	mailer := &captureMailer{}

	r := webhttp.NewRouter(iss, "test", st, guard, slogx.Discard(), rec)
	r.Gatherer = reg
	r.AuthService = &service.AuthService{
		Store:   st,
		Tokens:  iss,
		Guard:   guard,
		Mailer:  mailer,
		AppURL:  "https://launchpad.example.com",
		Metrics: rec,
	}
	r.WaitlistService = &service.WaitlistService{Store: st, Metrics: rec}
	r.TrustedProxyHops = 1
	for _, opt := range opts {
		opt(r)
	}
	r.ApplyRoutes()

	return &testServer{router: r, store: st, issuer: iss, mailer: mailer}
}

// clientSeq hands every request its own forwarded IP, as if from behind one
// proxy, so the per-route rate limiters never interfere with ordinary tests.
var clientSeq atomic.Int64

func nextClientIP() string {
	n := clientSeq.Add(1)
	return fmt.Sprintf("10.%d.%d.%d", (n>>16)&0xff, (n>>8)&0xff, n&0xff)
}

type request struct {
	method  string
	target  string
	body    any
	header  http.Header
	cookies []*http.Cookie
	ip      string
}

func (s *testServer) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	switch b := req.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	case []byte:
		body = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	r := httptest.NewRequest(req.method, req.target, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	ip := req.ip
	if ip == "" {
		ip = nextClientIP()
	}
	r.Header.Set("X-Forwarded-For", ip)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	return rec
}

func (s *testServer) signUp(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	rec := s.do(t, request{
		method: http.MethodPost,
		target: "/api/auth/signup",
		body:   authsdk.SignUpRequest{Name: "Test", Email: email, Password: password},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c := findCookie(rec, webhttp.SessionCookie)
	require.NotNil(t, c)
	return c
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) authsdk.ErrorResponse {
	t.Helper()

	require.Equal(t, status, rec.Code, rec.Body.String())
	er := decode[authsdk.ErrorResponse](t, rec)
	require.False(t, er.Success)
	require.Equal(t, code, er.Error)
	require.NotEmpty(t, er.Message)
	return er
}

var resetTokenPattern = regexp.MustCompile(`token=([^\s"<&]+)`)

// resetTokenFrom pulls the token out of the reset link in the text body.
func resetTokenFrom(t *testing.T, msg mailx.Message) string {
	t.Helper()

	m := resetTokenPattern.FindStringSubmatch(msg.TextBody)
	require.Len(t, m, 2, msg.TextBody)

	token, err := url.QueryUnescape(m[1])
	require.NoError(t, err)
	return token
}
