package database

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/redis-counter/internal/config"
)

// countingConnect wraps connect and records how many attempts were made.
func countingConnect(connect connectFunc, n *int32) connectFunc {
	return func(ctx context.Context) (*redis.Client, error) {
		atomic.AddInt32(n, 1)
		return connect(ctx)
	}
}

func TestOpenConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	var attempts int32
	cfg := config.RedisConfig{MaxAttempts: 3, RetryDelay: time.Millisecond}
	opts := &redis.Options{Addr: mr.Addr()}
	client, err := open(context.Background(), cfg, opts.Addr, countingConnect(pingClient(opts, time.Second), &attempts))
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestOpenGivesUpAfterBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	var attempts int32
	cfg := config.RedisConfig{MaxAttempts: 3, RetryDelay: 20 * time.Millisecond}
	opts := &redis.Options{Addr: addr, MaxRetries: -1}
	start := time.Now()
	client, err := open(context.Background(), cfg, addr, countingConnect(pingClient(opts, 100*time.Millisecond), &attempts))

	assert.Nil(t, client)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	// two waits between three attempts
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestOpenRecoversWithinBudget(t *testing.T) {
	mr := miniredis.RunT(t)

	var attempts int32
	connect := func(ctx context.Context) (*redis.Client, error) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return nil, errors.New("connection refused")
		}
		return pingClient(&redis.Options{Addr: mr.Addr()}, time.Second)(ctx)
	}

	cfg := config.RedisConfig{MaxAttempts: 5, RetryDelay: time.Millisecond}
	client, err := open(context.Background(), cfg, mr.Addr(), connect)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestOpenZeroAttemptsMeansOne(t *testing.T) {
	var attempts int32
	connect := func(context.Context) (*redis.Client, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.New("connection refused")
	}

	_, err := open(context.Background(), config.RedisConfig{MaxAttempts: 0}, "redis:6379", connect)

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestOpenStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	connect := func(context.Context) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}

	cfg := config.RedisConfig{MaxAttempts: 50, RetryDelay: time.Second}
	start := time.Now()
	_, err := open(ctx, cfg, "redis:6379", connect)

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
