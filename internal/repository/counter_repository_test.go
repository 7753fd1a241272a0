package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*CounterRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCounterRepo(rdb), mr
}

func TestGetMissingKey(t *testing.T) {
	repo, mr := newTestRepo(t)

	v, found, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, v)
	assert.False(t, mr.Exists(CounterKey))
}

func TestInitDoesNotClobber(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Init(ctx))
	mr.CheckGet(t, CounterKey, "0")

	require.NoError(t, mr.Set(CounterKey, "7"))
	require.NoError(t, repo.Init(ctx))
	mr.CheckGet(t, CounterKey, "7")
}

func TestIncrFromMissingKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		n, err := repo.Incr(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	v, found, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(5), v)
}

func TestConcurrentIncr(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := repo.Incr(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	mr.CheckGet(t, CounterKey, "200")
}

func TestReset(t *testing.T) {
	repo, mr := newTestRepo(t)
	require.NoError(t, mr.Set(CounterKey, "42"))

	require.NoError(t, repo.Reset(context.Background()))
	mr.CheckGet(t, CounterKey, "0")
}

func TestGetCorruptValue(t *testing.T) {
	repo, mr := newTestRepo(t)
	require.NoError(t, mr.Set(CounterKey, "banana"))

	_, _, err := repo.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptValue))
}

func TestStoreDown(t *testing.T) {
	repo, mr := newTestRepo(t)
	mr.Close()
	ctx := context.Background()

	_, _, err := repo.Get(ctx)
	assert.Error(t, err)
	_, err = repo.Incr(ctx)
	assert.Error(t, err)
	assert.Error(t, repo.Reset(ctx))
	assert.Error(t, repo.Ping(ctx))
}
