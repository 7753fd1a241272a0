// Package service implements the counter operations on top of the Redis
// repository and fans out change notifications.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	q "github.com/iliyamo/redis-counter/internal/queue"
)

// Store is the subset of repository.CounterRepo the service needs.
type Store interface {
	Get(ctx context.Context) (value int64, found bool, err error)
	Init(ctx context.Context) error
	Incr(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
}

// CounterService exposes read/increment/reset/ping. Every call goes straight
// to the store; nothing is cached in process.
type CounterService struct {
	store  Store
	events EventPublisher
	now    func() time.Time
}

// Option configures a CounterService.
type Option func(*CounterService)

// WithEvents publishes a CounterChangedEvent after every successful change.
func WithEvents(p EventPublisher) Option {
	return func(s *CounterService) { s.events = p }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *CounterService) { s.now = now }
}

func NewCounterService(store Store, opts ...Option) *CounterService {
	s := &CounterService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the current value, initialising a missing key to 0.
func (s *CounterService) Read(ctx context.Context) (int64, error) {
	v, found, err := s.store.Get(ctx)
	if err != nil {
		return 0, err
	}
	if !found {
		if err := s.store.Init(ctx); err != nil {
			return 0, err
		}
	}
	return v, nil
}

// Current returns the current value without touching a missing key.
func (s *CounterService) Current(ctx context.Context) (int64, error) {
	v, _, err := s.store.Get(ctx)
	return v, err
}

// Increment atomically adds one and returns the new value.
func (s *CounterService) Increment(ctx context.Context) (int64, error) {
	n, err := s.store.Incr(ctx)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, q.ActionIncrement, n)
	return n, nil
}

// Reset stores 0 and returns it.
func (s *CounterService) Reset(ctx context.Context) (int64, error) {
	if err := s.store.Reset(ctx); err != nil {
		return 0, err
	}
	s.publish(ctx, q.ActionReset, 0)
	return 0, nil
}

// Ping reports whether the store answers.
func (s *CounterService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish is best effort: a broker outage never fails a counter operation.
func (s *CounterService) publish(ctx context.Context, action string, count int64) {
	if s.events == nil {
		return
	}
	ev := q.CounterChangedEvent{
		EventID:    uuid.NewString(),
		Action:     action,
		Count:      count,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishCounterChanged(ctx, ev); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("counter event not published")
	}
}
