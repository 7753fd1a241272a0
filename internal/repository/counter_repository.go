package repository

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// CounterKey is the single key holding the counter value.
const CounterKey = "counter"

// CounterRepo maps counter operations onto single Redis commands.
type CounterRepo struct{ RDB redis.Cmdable }

func NewCounterRepo(rdb redis.Cmdable) *CounterRepo { return &CounterRepo{RDB: rdb} }

// Get returns the stored value. found is false when the key does not exist.
func (r *CounterRepo) Get(ctx context.Context) (value int64, found bool, err error) {
	value, err = r.RDB.Get(ctx, CounterKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, false, nil
	case isParseError(err):
		return 0, true, errors.Wrapf(ErrCorruptValue, "get %s", CounterKey)
	case err != nil:
		return 0, false, errors.Wrapf(err, "get %s", CounterKey)
	}
	return value, true, nil
}

// Init stores 0 when the key is missing. SETNX keeps a concurrent INCR that
// lands between the caller's GET and this call from being overwritten.
func (r *CounterRepo) Init(ctx context.Context) error {
	if err := r.RDB.SetNX(ctx, CounterKey, 0, 0).Err(); err != nil {
		return errors.Wrapf(err, "init %s", CounterKey)
	}
	return nil
}

// Incr atomically adds one; a missing key counts as 0.
func (r *CounterRepo) Incr(ctx context.Context) (int64, error) {
	n, err := r.RDB.Incr(ctx, CounterKey).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "incr %s", CounterKey)
	}
	return n, nil
}

// Reset unconditionally stores 0.
func (r *CounterRepo) Reset(ctx context.Context) error {
	if err := r.RDB.Set(ctx, CounterKey, 0, 0).Err(); err != nil {
		return errors.Wrapf(err, "reset %s", CounterKey)
	}
	return nil
}

// Ping is the liveness check used by the health endpoint.
func (r *CounterRepo) Ping(ctx context.Context) error {
	return r.RDB.Ping(ctx).Err()
}

func isParseError(err error) bool {
	var numErr *strconv.NumError
	return errors.As(err, &numErr)
}
