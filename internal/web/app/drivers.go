package app

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/launchpad/internal/web/replay"
	"github.com/aussiebroadwan/launchpad/internal/web/store"
	"github.com/aussiebroadwan/launchpad/internal/web/store/drivers/mongo"
	"github.com/aussiebroadwan/launchpad/internal/web/store/drivers/sqlite"
	"github.com/aussiebroadwan/launchpad/pkg/mailx"
	"github.com/aussiebroadwan/launchpad/pkg/oauthx"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// openStore connects the configured driver and brings its schema up to date.
func (app *Application) openStore(ctx context.Context) (store.Store, error) {
	var st store.Store

	switch app.cfg.StoreDriver {
	case "mongo":
		mcfg, err := env.ParseAs[mongo.Config]()
		if err != nil {
			return nil, fmt.Errorf("%w: mongo: %w", ErrConfiguration, err)
		}
		ms, err := mongo.Connect(ctx, mcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		app.logger.Info("connected to mongo", "database", mcfg.Database)
		st = ms

	default:
		ss, err := sqlite.NewStore(app.cfg.DatabaseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		app.logger.Info("opened sqlite database", "file", app.cfg.DatabaseFile)
		st = ss
	}

	if err := st.ApplyMigrations(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return st, nil
}

// openGuard returns the replay guard for reset tokens. The store guard
// shares the database; the Redis guard lets keys expire on their own.
func (app *Application) openGuard(ctx context.Context) (replay.Guard, *redis.Client, error) {
	if app.cfg.ResetGuard != "redis" {
		return replay.NewStoreGuard(app.db), nil, nil
	}

	rcfg, err := env.ParseAs[replay.RedisConfig]()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: redis: %w", ErrConfiguration, err)
	}

	client, err := replay.ConnectRedis(ctx, rcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.logger.Info("reset tokens guarded by redis", "prefix", rcfg.KeyPrefix)
	return replay.NewRedisGuard(client, rcfg.KeyPrefix), client, nil
}

func (app *Application) newMailer() (mailx.Sender, error) {
	if app.cfg.MailDriver != "postmark" {
		app.logger.Warn("MAIL_DRIVER=log, reset emails are logged instead of sent")
		return mailx.LogSender{}, nil
	}

	pcfg, err := env.ParseAs[mailx.PostmarkConfig]()
	if err != nil {
		return nil, fmt.Errorf("%w: postmark: %w", ErrConfiguration, err)
	}

	sender, err := mailx.NewPostmarkSender(pcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return sender, nil
}

// newOAuthProvider returns nil when Google credentials are absent, which
// leaves the OAuth routes answering with a configuration error.
func (app *Application) newOAuthProvider() (oauthx.Provider, error) {
	gcfg, err := env.ParseAs[oauthx.GoogleConfig]()
	if err != nil {
		return nil, fmt.Errorf("%w: google: %w", ErrConfiguration, err)
	}
	if !gcfg.Enabled() {
		app.logger.Info("google sign-in disabled, GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
		return nil, nil
	}

	if gcfg.RedirectURL == "" {
		gcfg.RedirectURL = app.cfg.AppURL + "/api/auth/callback/google"
	}

	provider, err := oauthx.NewGoogle(gcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: google: %w", ErrConfiguration, err)
	}
	return provider, nil
}
