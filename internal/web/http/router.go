package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/metrics"
	"github.com/aussiebroadwan/launchpad/internal/web/replay"
	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"github.com/aussiebroadwan/launchpad/pkg/httpx"
	"github.com/aussiebroadwan/launchpad/pkg/jwtx"
	"github.com/aussiebroadwan/launchpad/pkg/oauthx"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/aussiebroadwan/launchpad/api/web" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	guard replay.Guard

	AuthService     *service.AuthService
	WaitlistService *service.WaitlistService

	// OAuth is nil when no provider is configured; the OAuth routes then
	// redirect with a configuration error.
	OAuth oauthx.Provider

	// ZapierSecret enables POST /api/webhooks/zapier when set.
	ZapierSecret string

	// Gatherer backs GET /metrics. Optional.
	Gatherer prometheus.Gatherer

	// StaticDir serves the built frontend at / when set.
	StaticDir string

	// SecureCookies marks session and state cookies Secure.
	SecureCookies bool

	// TrustedProxyHops is how many reverse proxies append to
	// X-Forwarded-For. Zero rate limits on the peer address.
	TrustedProxyHops int
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	guard replay.Guard,
	logger *slog.Logger,
	rec metrics.Recorder,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		guard:        guard,
		logger:       logger,
	}

	if rec == nil {
		rec = metrics.Nop{}
	}

	// Set default middleware chain. Metrics sit innermost so they can read
	// the pattern the mux matched.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, "/livez", "/readyz", "/metrics"),
		metrics.HTTPMiddleware(rec),
	}

	return r
}

func (r *Router) limitByIP(cfg httpx.RateLimitConfig) httpx.Middleware {
	return httpx.RateLimitByIP(cfg, r.TrustedProxyHops)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerOAuth()
	r.registerDashboard()
	r.registerWaitlist()
	r.registerWebhooks()
	r.registerSystem()

	// Method-qualified so it can coexist with the static "GET /" mount.
	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	if r.StaticDir != "" {
		r.Mux.Handle("GET /", StaticHandler(r.StaticDir))
	}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Launchpad Web API
//	@version		0.1.0
//	@description	Accounts, sessions, password reset, Google sign-in, the waitlist and the Zapier webhook for the Launchpad site.
//	@description
//	@description	Sessions are HS256 JWTs carried in an HttpOnly "token" cookie.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/launchpad
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:3000
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						token
//	@description				Session JWT set by sign-up, sign-in and the Google callback.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService:   r.AuthService,
		SecureCookies: r.SecureCookies,
	}

	// Credential and reset endpoints - strict rate limit by IP
	r.Mux.Handle("POST /api/auth/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignUp),
			r.limitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/signin",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			r.limitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			r.limitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			r.limitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /api/auth/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			r.limitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/signout",
		httpx.Chain(http.HandlerFunc(h.HandleSignOut),
			r.limitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerOAuth() {
	h := &OAuthHandler{
		AuthService:   r.AuthService,
		Provider:      r.OAuth,
		SecureCookies: r.SecureCookies,
	}

	r.Mux.Handle("GET /api/auth/google",
		httpx.Chain(http.HandlerFunc(h.HandleStart),
			r.limitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/auth/callback/google",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			r.limitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerDashboard() {
	h := &DashboardHandler{Verifier: r.verifier}
	secured := httpx.Chain(h, RequireSession(r.verifier))

	r.Mux.Handle("GET /dashboard", secured)
	r.Mux.Handle("GET /dashboard/", secured)
}

func (r *Router) registerWaitlist() {
	h := &WaitlistHandler{WaitlistService: r.WaitlistService}

	r.Mux.Handle("POST /api/waitlist",
		httpx.Chain(http.HandlerFunc(h.HandleJoin),
			r.limitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/waitlist",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.limitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /api/waitlist/stats",
		httpx.Chain(http.HandlerFunc(h.HandleStats),
			r.limitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerWebhooks() {
	h := &ZapierHandler{
		WaitlistService: r.WaitlistService,
		Secret:          r.ZapierSecret,
	}

	r.Mux.Handle("GET /api/webhooks/zapier",
		httpx.Chain(http.HandlerFunc(h.HandleInfo),
			r.limitByIP(httpx.PublicLimit),
		),
	)

	// Unsigned deliveries are never accepted, so without a secret the
	// route is simply absent.
	if r.ZapierSecret == "" {
		r.logger.Warn("ZAPIER_WEBHOOK_SECRET is not set, POST /api/webhooks/zapier is disabled")
		return
	}
	r.Mux.Handle("POST /api/webhooks/zapier",
		httpx.Chain(http.HandlerFunc(h.HandleEvent),
			r.limitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - public rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			r.limitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.guard),
			r.limitByIP(httpx.PublicLimit),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", metrics.Handler(r.Gatherer))
	}
}
