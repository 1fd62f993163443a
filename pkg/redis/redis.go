package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config is read from the REDIS_* environment.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

var (
	ErrEmptyConnectionURL           = errors.New("redis: connection url is empty")
	ErrFailedToParseRedisConnString = errors.New("redis: parse connection url")
	ErrRedisNotReady                = errors.New("redis: server not ready")
	ErrHealthcheckFailed            = errors.New("redis: healthcheck failed")
)

// Connect dials cfg.ConnectionURL and pings until the server answers. It
// gives up after cfg.RetryAttempts pings or once cfg.ConnectTimeout passes.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := redis.NewClient(opts)
	if err := ping(ctx, client, max(cfg.RetryAttempts, 1), cfg.RetryInterval); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrRedisNotReady, err)
	}
	return client, nil
}

func ping(ctx context.Context, client *redis.Client, attempts int, interval time.Duration) error {
	var err error
	for attempt := range attempts {
		if attempt > 0 {
			t := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		if err = client.Ping(ctx).Err(); err == nil {
			return nil
		}
	}
	return err
}

// Healthcheck pings client on every call.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
