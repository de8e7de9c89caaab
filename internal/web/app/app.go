package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/launchpad/internal/web/http"
	"github.com/aussiebroadwan/launchpad/internal/web/metrics"
	"github.com/aussiebroadwan/launchpad/internal/web/replay"
	"github.com/aussiebroadwan/launchpad/internal/web/service"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"github.com/aussiebroadwan/launchpad/pkg/httpx"
	"github.com/aussiebroadwan/launchpad/pkg/jwtx"
	"github.com/aussiebroadwan/launchpad/pkg/mailx"
	"github.com/aussiebroadwan/launchpad/pkg/oauthx"
	"github.com/aussiebroadwan/launchpad/pkg/slogx"
	"github.com/aussiebroadwan/launchpad/pkg/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the web service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	guard    replay.Guard
	redis    *redis.Client // only when RESET_GUARD=redis
	tokens   *jwtx.Issuer
	mailer   mailx.Sender
	oauth    oauthx.Provider
	registry *prometheus.Registry
	metrics  *metrics.Collector

	// Background workers
	dispatcher          *webhook.Dispatcher // nil without relay targets
	housekeepingService *service.HousekeepingService

	// Services
	authService     *service.AuthService
	waitlistService *service.WaitlistService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// Option adjusts an Application before its dependencies are built.
type Option func(*Application)

// WithLogOutput sends logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(app *Application) {
		app.logger = newLogger(app.cfg, w)
	}
}

func newLogger(cfg Config, w io.Writer) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "launchpad-web",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  w,
	})
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg:    cfg,
		logger: newLogger(cfg, nil),
	}
	for _, opt := range opts {
		opt(app)
	}

	if len(cfg.JWTSecret) < minSecretBytes {
		app.logger.Warn("JWT_SECRET is shorter than recommended", "min_bytes", minSecretBytes)
	}

	// Rate limit profiles can be tuned per deployment
	httpx.LoadRateLimitsFromEnv()

	ctx := context.Background()
	if err := app.initInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()
	if app.dispatcher != nil {
		app.dispatcher.Start()
	}

	app.logger.Info("web service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			if app.dispatcher != nil {
				ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
				_ = app.dispatcher.Stop(ctx)
				cancel()
			}
			app.housekeepingService.Stop()
			app.closeInfrastructure()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down web service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Queued events get whatever is left of the grace period
	if app.dispatcher != nil {
		if err := app.dispatcher.Stop(ctx); err != nil {
			app.logger.Warn("webhook dispatcher did not drain", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeInfrastructure(); err != nil {
		return err
	}

	app.logger.Info("web service stopped")
	return nil
}

// initInfrastructure opens the store, the replay guard and the outbound
// integrations.
func (app *Application) initInfrastructure(ctx context.Context) error {
	db, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	app.db = db

	guard, client, err := app.openGuard(ctx)
	if err != nil {
		return err
	}
	app.guard = guard
	app.redis = client

	if app.mailer, err = app.newMailer(); err != nil {
		return err
	}
	if app.oauth, err = app.newOAuthProvider(); err != nil {
		return err
	}

	app.registry = metrics.NewRegistry()
	app.metrics = metrics.NewCollector(app.registry)
	return nil
}

// closeInfrastructure releases whatever initInfrastructure managed to open.
func (app *Application) closeInfrastructure() error {
	var errs []error

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
		app.redis = nil
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
		app.db = nil
	}

	return errors.Join(errs...)
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	tokens, err := jwtx.NewIssuer([]byte(app.cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	app.tokens = tokens

	app.authService = &service.AuthService{
		Store:   app.db,
		Tokens:  app.tokens,
		Guard:   app.guard,
		Mailer:  app.mailer,
		AppURL:  app.cfg.AppURL,
		Metrics: app.metrics,
	}

	app.waitlistService = &service.WaitlistService{
		Store:   app.db,
		Metrics: app.metrics,
	}

	if len(app.cfg.RelayURLs) > 0 {
		relay, err := webhook.NewRelay(webhook.RelayConfig{
			URLs:   app.cfg.RelayURLs,
			Secret: app.cfg.RelaySecret,
			OnDelivery: func(res webhook.DeliveryResult) {
				app.metrics.RecordWebhookDelivery(res.Event, res.Err == nil, res.Duration)
			},
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		if app.cfg.RelaySecret == "" {
			app.logger.Warn("WEBHOOK_RELAY_SECRET is not set, outbound webhooks are unsigned")
		}

		app.dispatcher = webhook.NewDispatcher(relay, app.logger, app.cfg.RelayQueueSize)
		app.waitlistService.Events = app.dispatcher
		app.logger.Info("webhook relay enabled", "targets", relay.Targets())
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokens,
		BuildVersion,
		app.db,
		app.guard,
		app.logger,
		app.metrics,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.WaitlistService = app.waitlistService
	router.OAuth = app.oauth
	router.ZapierSecret = app.cfg.ZapierSecret
	router.Gatherer = app.registry
	router.StaticDir = app.cfg.StaticDir
	router.SecureCookies = app.cfg.Production()
	router.TrustedProxyHops = app.cfg.TrustedProxyHops
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
