package driven

import (
	"context"
	"time"
)

// RebuildLock provides cross-process exclusion around index rebuilds.
// It matters when several processes share one collection (pgvector, qdrant).
type RebuildLock interface {
	// Acquire attempts to take the named lock for ttl.
	// Returns false if another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Extend resets the TTL of a lock this instance still holds. Returns an
	// error wrapping domain.ErrRebuildInProgress when the lock was lost.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Release drops the named lock if this instance holds it.
	Release(ctx context.Context, name string) error

	// Ping checks the lock backend is reachable.
	Ping(ctx context.Context) error
}
