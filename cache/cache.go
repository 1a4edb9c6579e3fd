// Package cache defines the key-value port the health-check engine persists
// its run state through, plus the in-process fallback used when no durable
// backend is reachable. Durable adapters live in the redis and postgres
// subpackages.
package cache

import (
	"context"
	"errors"
	"time"
)

// TTL conventions: keys carrying day-scoped state live about a day,
// everything else about an hour, so abandoned keys age out on their own.
const (
	TTLDay  = 24 * time.Hour
	TTLHour = time.Hour
)

// ErrProbeMismatch reports a probe round trip that read back a different
// value than it wrote.
var ErrProbeMismatch = errors.New("cache: probe round trip returned wrong value")

// Store is the engine's cache port.
//
// Contract:
//   - Implementations must be safe for concurrent use.
//   - Read returns (nil, false) on miss and on any backend error; callers
//     treat a broken backend the same as a miss.
//   - Write replaces the value and resets the TTL; ttl <= 0 stores nothing.
//   - Delete is idempotent.
//   - DeleteMatched removes keys matching a shell-style glob pattern and may
//     be a no-op for backends without pattern scans.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, bool)
	Write(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteMatched(ctx context.Context, pattern string) error
}
