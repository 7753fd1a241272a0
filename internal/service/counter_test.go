package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	q "github.com/iliyamo/redis-counter/internal/queue"
	"github.com/iliyamo/redis-counter/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []q.CounterChangedEvent
	err    error
}

func (p *recordingPublisher) PublishCounterChanged(_ context.Context, ev q.CounterChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func newTestService(t *testing.T, opts ...Option) (*CounterService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCounterService(repository.NewCounterRepo(rdb), opts...), mr
}

func TestReadFreshStore(t *testing.T) {
	svc, mr := newTestService(t)

	n, err := svc.Read(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	mr.CheckGet(t, repository.CounterKey, "0")
}

func TestCurrentLeavesMissingKey(t *testing.T) {
	svc, mr := newTestService(t)

	n, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, mr.Exists(repository.CounterKey))
}

func TestIncrementSequential(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 10; i++ {
		n, err := svc.Increment(ctx)
		require.NoError(t, err)
		last = n
	}
	assert.Equal(t, int64(10), last)

	n, err := svc.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestIncrementConcurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Increment(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := svc.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)
}

func TestResetAlwaysZero(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()
	require.NoError(t, mr.Set(repository.CounterKey, "99"))

	n, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.Read(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreFailuresAreReturned(t *testing.T) {
	svc, mr := newTestService(t)
	mr.Close()
	ctx := context.Background()

	_, err := svc.Read(ctx)
	assert.Error(t, err)
	_, err = svc.Increment(ctx)
	assert.Error(t, err)
	_, err = svc.Reset(ctx)
	assert.Error(t, err)
	assert.Error(t, svc.Ping(ctx))
}

func TestEventsPublishedOnChange(t *testing.T) {
	pub := &recordingPublisher{}
	fixed := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, WithEvents(pub), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	_, err := svc.Read(ctx)
	require.NoError(t, err)
	_, err = svc.Increment(ctx)
	require.NoError(t, err)
	_, err = svc.Increment(ctx)
	require.NoError(t, err)
	_, err = svc.Reset(ctx)
	require.NoError(t, err)

	require.Len(t, pub.events, 3)
	assert.Equal(t, q.ActionIncrement, pub.events[0].Action)
	assert.Equal(t, int64(1), pub.events[0].Count)
	assert.Equal(t, int64(2), pub.events[1].Count)
	assert.Equal(t, q.ActionReset, pub.events[2].Action)
	assert.Equal(t, "2026-10-19T08:00:00Z", pub.events[2].OccurredAt)
	_, err = uuid.Parse(pub.events[0].EventID)
	assert.NoError(t, err)
	assert.NotEqual(t, pub.events[0].EventID, pub.events[1].EventID)
}

func TestPublishFailureDoesNotFailIncrement(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, WithEvents(pub))

	n, err := svc.Increment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, pub.events, 1)
}
