// Package repository holds the Redis access code for the counter. The
// sentinel errors below let higher layers distinguish a broken value from an
// unreachable store; both are still reported to HTTP callers as degraded
// responses rather than error statuses.
package repository

import "errors"

// ErrCorruptValue is returned when the counter key holds something that is
// not a base-10 integer (for example after a manual SET from redis-cli).
var ErrCorruptValue = errors.New("counter value is not an integer")
