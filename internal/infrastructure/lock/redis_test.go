package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "contentgen:run-lock", ttl, nil), mr
}

func TestRedisLockerIsExclusive(t *testing.T) {
	t.Parallel()

	locker, mr := newLocker(t, time.Minute)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first TryLock to succeed, got %v (%v)", ok, err)
	}
	if mr.TTL("contentgen:run-lock") != time.Minute {
		t.Fatalf("expected ttl to be set, got %s", mr.TTL("contentgen:run-lock"))
	}

	if _, ok, err := locker.TryLock(ctx); err != nil || ok {
		t.Fatalf("expected second TryLock to fail, got %v (%v)", ok, err)
	}

	release()
	if mr.Exists("contentgen:run-lock") {
		t.Fatal("release must delete the key")
	}

	release2, ok, err := locker.TryLock(ctx)
	if err != nil || !ok {
		t.Fatalf("expected lock after release, got %v (%v)", ok, err)
	}
	release2()
}

func TestRedisLockerDoesNotReleaseForeignLock(t *testing.T) {
	t.Parallel()

	locker, mr := newLocker(t, time.Second)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx)
	if err != nil || !ok {
		t.Fatalf("TryLock: %v (%v)", ok, err)
	}

	mr.FastForward(2 * time.Second)
	other, ok, err := locker.TryLock(ctx)
	if err != nil || !ok {
		t.Fatalf("expected lock after expiry, got %v (%v)", ok, err)
	}

	release()
	if !mr.Exists("contentgen:run-lock") {
		t.Fatal("stale holder must not delete the new holder's key")
	}
	other()
}

func TestRedisLockerReportsConnectionErrors(t *testing.T) {
	t.Parallel()

	locker, mr := newLocker(t, time.Minute)
	mr.Close()

	if _, _, err := locker.TryLock(context.Background()); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
