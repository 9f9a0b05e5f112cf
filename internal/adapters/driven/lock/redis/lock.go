// Package redis provides a cross-process rebuild lock backed by Redis.
//
// Two sercha-rag processes sharing one persistent index would otherwise be
// able to drop and rebuild the same collection at once. Ingestion takes this
// lock for the collection before the reset step.
package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.RebuildLock = (*Lock)(nil)

const lockPrefix = "sercha-rag:rebuild:"

// Lock implements RebuildLock with SET NX and an owner token.
type Lock struct {
	client  *redis.Client
	ownerID string
	owned   bool
}

// NewLock connects to the Redis server at addr.
func NewLock(addr string) *Lock {
	l := NewLockWithClient(redis.NewClient(&redis.Options{Addr: addr}))
	l.owned = true
	return l
}

// NewLockWithClient wraps an existing client; Close leaves it open.
func NewLockWithClient(client *redis.Client) *Lock {
	hostname, _ := os.Hostname()
	return &Lock{
		client:  client,
		ownerID: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()),
	}
}

// Acquire takes the named lock for ttl. False means another owner holds it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockPrefix+name, l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// extendScript renews the key's TTL only while it still carries our token.
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	end
	return 0
`)

// Extend renews the lock for ttl. A lock that expired, or that another
// owner took after it expired, is reported as ErrRebuildInProgress.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	renewed, err := extendScript.Run(ctx, l.client, []string{lockPrefix + name}, l.ownerID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if renewed == 0 {
		return fmt.Errorf("lock %s expired: %w", name, domain.ErrRebuildInProgress)
	}
	return nil
}

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release drops the lock if this instance holds it. Expired or foreign
// locks are left alone.
func (l *Lock) Release(ctx context.Context, name string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{lockPrefix + name}, l.ownerID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Ping checks Redis is reachable.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID identifies this lock holder.
func (l *Lock) OwnerID() string {
	return l.ownerID
}

// Close closes the client if NewLock created it.
func (l *Lock) Close() error {
	if !l.owned {
		return nil
	}
	return l.client.Close()
}
