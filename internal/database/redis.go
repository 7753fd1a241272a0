package database

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/redis-counter/internal/config"
)

// ErrUnreachable is returned once the whole connection budget is spent.
var ErrUnreachable = errors.New("redis unreachable")

// Open connects to Redis and verifies the connection with PING. Each attempt
// builds a fresh client; failed clients are closed before the next attempt.
// Attempts are spaced by a fixed delay and there is no retry after Open
// returns.
func Open(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	return open(ctx, cfg, opts.Addr, pingClient(opts, pingTimeout(cfg)))
}

// connectFunc performs a single connection attempt.
type connectFunc func(ctx context.Context) (*redis.Client, error)

// pingClient builds a client and keeps it only if PING succeeds.
func pingClient(opts *redis.Options, timeout time.Duration) connectFunc {
	return func(ctx context.Context) (*redis.Client, error) {
		c := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := c.Ping(pingCtx).Err(); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	}
}

func open(ctx context.Context, cfg config.RedisConfig, addr string, connect connectFunc) (*redis.Client, error) {
	var client *redis.Client
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1 // retry-go treats 0 as unlimited
	}

	err := retry.Do(
		func() error {
			c, err := connect(ctx)
			if err != nil {
				return err
			}
			client = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(cfg.MaxAttempts)),
		retry.Delay(cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).
				Str("addr", addr).
				Msgf("redis connection attempt %d/%d failed", n+1, cfg.MaxAttempts)
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreachable, "%s after %d attempts: %v", addr, cfg.MaxAttempts, err)
	}

	log.Info().Str("addr", addr).Msg("connected to redis")
	return client, nil
}

func pingTimeout(cfg config.RedisConfig) time.Duration {
	if cfg.PingTimeout > 0 {
		return cfg.PingTimeout
	}
	return 2 * time.Second
}
