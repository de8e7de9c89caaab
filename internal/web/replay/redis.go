package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisNotReady = errors.New("replay: redis not ready")

// RedisConfig is parsed from the environment when RESET_GUARD=redis.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL,required"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"launchpad:reset:"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// ConnectRedis dials Redis and retries until it answers PING.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("replay: parse redis url: %w", err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	var lastErr error
	for range max(cfg.RetryAttempts, 1) {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

// RedisGuard claims keys with SET NX and lets Redis expire them.
type RedisGuard struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisGuard(client redis.UniversalClient, prefix string) *RedisGuard {
	return &RedisGuard{client: client, prefix: prefix, now: time.Now}
}

func (g *RedisGuard) Claim(ctx context.Context, key string, expiresAt time.Time) error {
	// The marker lives as long as the token, and at least a second.
	ttl := max(expiresAt.Sub(g.now()), time.Second)

	ok, err := g.client.SetNX(ctx, g.prefix+key, 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("replay: claim: %w", err)
	}
	if !ok {
		return ErrAlreadyClaimed
	}
	return nil
}

func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}
