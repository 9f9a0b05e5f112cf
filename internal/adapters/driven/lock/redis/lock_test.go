package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestLock_OwnerIDUnique(t *testing.T) {
	_, client := setupTestRedis(t)

	a, b := NewLockWithClient(client), NewLockWithClient(client)
	if a.OwnerID() == "" {
		t.Fatal("expected non-empty owner ID")
	}
	if a.OwnerID() == b.OwnerID() {
		t.Errorf("expected unique owner IDs, got %s twice", a.OwnerID())
	}
}

func TestLock_AcquireExclusive(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	first, second := NewLockWithClient(client), NewLockWithClient(client)

	ok, err := first.Acquire(ctx, "documents", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = second.Acquire(ctx, "documents", time.Minute)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Error("expected second acquire to fail while held")
	}

	// Other collections are independent.
	ok, err = second.Acquire(ctx, "other", time.Minute)
	if err != nil || !ok {
		t.Errorf("acquire other collection: ok=%v err=%v", ok, err)
	}
}

func TestLock_ReleaseOnlyByOwner(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	owner, other := NewLockWithClient(client), NewLockWithClient(client)
	if ok, _ := owner.Acquire(ctx, "documents", time.Minute); !ok {
		t.Fatal("expected acquire")
	}

	if err := other.Release(ctx, "documents"); err != nil {
		t.Fatalf("foreign release: %v", err)
	}
	if !mr.Exists(lockPrefix + "documents") {
		t.Fatal("foreign release removed the lock")
	}

	if err := owner.Release(ctx, "documents"); err != nil {
		t.Fatalf("owner release: %v", err)
	}
	if mr.Exists(lockPrefix + "documents") {
		t.Error("owner release left the lock in place")
	}
}

func TestLock_ExpiresAfterTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	first, second := NewLockWithClient(client), NewLockWithClient(client)
	if ok, _ := first.Acquire(ctx, "documents", time.Second); !ok {
		t.Fatal("expected acquire")
	}
	mr.FastForward(2 * time.Second)

	ok, err := second.Acquire(ctx, "documents", time.Second)
	if err != nil || !ok {
		t.Errorf("acquire after expiry: ok=%v err=%v", ok, err)
	}
}

func TestLock_ReleaseUnheld(t *testing.T) {
	_, client := setupTestRedis(t)
	if err := NewLockWithClient(client).Release(context.Background(), "nothing"); err != nil {
		t.Errorf("release of unheld lock: %v", err)
	}
}

func TestLock_Ping(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLockWithClient(client)

	if err := lock.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	mr.Close()
	if err := lock.Ping(context.Background()); err == nil {
		t.Error("expected ping to fail after server shutdown")
	}
}

func TestNewLock_OwnsClient(t *testing.T) {
	mr, _ := setupTestRedis(t)
	lock := NewLock(mr.Addr())
	if err := lock.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := lock.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestLock_ExtendKeepsLockPastOriginalTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	owner, other := NewLockWithClient(client), NewLockWithClient(client)
	if ok, _ := owner.Acquire(ctx, "documents", 2*time.Second); !ok {
		t.Fatal("expected acquire")
	}
	mr.FastForward(time.Second)
	if err := owner.Extend(ctx, "documents", 10*time.Second); err != nil {
		t.Fatalf("extend: %v", err)
	}
	mr.FastForward(5 * time.Second)

	if ok, _ := other.Acquire(ctx, "documents", time.Second); ok {
		t.Error("lock was taken although it had been extended")
	}
}

func TestLock_ExtendLostLock(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	owner, other := NewLockWithClient(client), NewLockWithClient(client)
	if ok, _ := owner.Acquire(ctx, "documents", time.Second); !ok {
		t.Fatal("expected acquire")
	}
	mr.FastForward(2 * time.Second)
	if ok, _ := other.Acquire(ctx, "documents", time.Minute); !ok {
		t.Fatal("expected acquire after expiry")
	}

	err := owner.Extend(ctx, "documents", time.Minute)
	if !errors.Is(err, domain.ErrRebuildInProgress) {
		t.Fatalf("extend of lost lock: got %v, want ErrRebuildInProgress", err)
	}
	if got, _ := mr.Get(lockPrefix + "documents"); got != other.OwnerID() {
		t.Errorf("extend touched a foreign lock: owner now %q", got)
	}
}
