package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	goredis "github.com/redis/go-redis/v9"

	"github.com/flamingonails/bookings/pkg/broadcast"
	"github.com/flamingonails/bookings/pkg/config"
	"github.com/flamingonails/bookings/pkg/httpserver"
	"github.com/flamingonails/bookings/pkg/mongo"
	"github.com/flamingonails/bookings/pkg/pg"
	"github.com/flamingonails/bookings/pkg/ratelimiter"
	"github.com/flamingonails/bookings/pkg/redis"
	"github.com/flamingonails/bookings/svc/booking"
	"github.com/flamingonails/bookings/svc/booking/store/mongostore"
	"github.com/flamingonails/bookings/svc/booking/store/pgstore"
	"github.com/flamingonails/bookings/svc/booking/store/redisstore"
	"github.com/flamingonails/bookings/svc/booking/store/sqlitestore"
)

var (
	ErrUnknownStoreDriver = errors.New("unknown store driver")
	ErrUnknownFeedDriver  = errors.New("unknown change feed driver")
	ErrUnknownLimitStore  = errors.New("unknown rate limit store")
)

// app holds the connections shared by every command.
type app struct {
	cfg     appConfig
	log     *slog.Logger
	store   booking.Store
	checks  map[string]httpserver.Check
	redis   *goredis.Client
	closers []func() error
}

func openApp(ctx context.Context, cfg appConfig, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, checks: make(map[string]httpserver.Check)}
	if err := a.openStore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case DriverMemory:
		a.store = booking.NewMemoryStore()

	case DriverSQLite:
		s, err := sqlitestore.Open(ctx, a.cfg.SQLitePath, sqlitestore.WithLogger(a.log))
		if err != nil {
			return err
		}
		a.onClose(s.Close)
		a.store = s
		a.checks["sqlite"] = s.Healthcheck

	case DriverPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		a.onClose(func() error { pool.Close(); return nil })
		a.store = pgstore.New(pool)
		a.checks["postgres"] = pg.Healthcheck(pool)

	case DriverRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return err
		}
		s := redisstore.New(client, redisstore.WithPrefix(a.cfg.RedisKeyPrefix))
		a.store = s
		a.checks["redis"] = s.Healthcheck

	case DriverMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		client, err := mongo.New(ctx, cfg)
		if err != nil {
			return err
		}
		a.onClose(func() error { return client.Disconnect(context.WithoutCancel(ctx)) })
		s := mongostore.New(client.Database(cfg.Database))
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.store = s
		a.checks["mongo"] = mongo.Healthcheck(client)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreDriver, a.cfg.StoreDriver)
	}

	a.log.DebugContext(ctx, "store ready", slog.String("driver", a.cfg.StoreDriver))
	return nil
}

// redisClient connects once and shares the client between the store and the feed.
func (a *app) redisClient(ctx context.Context) (*goredis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.onClose(client.Close)
	a.redis = client
	if _, ok := a.checks["redis"]; !ok {
		a.checks["redis"] = redis.Healthcheck(client)
	}
	return client, nil
}

func (a *app) changeFeed(ctx context.Context) (broadcast.Broadcaster[booking.Change], error) {
	var feed broadcast.Broadcaster[booking.Change]
	switch a.cfg.ChangeFeed {
	case FeedMemory:
		feed = broadcast.NewMemoryBroadcaster[booking.Change](a.cfg.ChangeFeedBuffer)
	case FeedRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		feed = broadcast.NewRedisBroadcaster[booking.Change](client, a.cfg.ChangeFeedChannel, a.cfg.ChangeFeedBuffer)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeedDriver, a.cfg.ChangeFeed)
	}
	a.onClose(feed.Close)
	return feed, nil
}

// limitStore picks where intake rate limit buckets live.
func (a *app) limitStore(ctx context.Context, cfg ratelimiter.Config) (ratelimiter.Store, error) {
	switch cfg.Store {
	case "", DriverMemory:
		s := ratelimiter.NewMemoryStore()
		a.onClose(func() error {
			s.Close()
			return nil
		})
		return s, nil
	case DriverRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix(a.cfg.RedisKeyPrefix+":ratelimit:")), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLimitStore, cfg.Store)
	}
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for _, fn := range slices.Backward(a.closers) {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
