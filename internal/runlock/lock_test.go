package runlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

func newTestLock(t *testing.T) *Lock {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLock(client, "test:run", time.Minute)
}

func TestAcquireAndRelease(t *testing.T) {
	lock := newTestLock(t)
	ctx := context.Background()
	campaignID := uuid.New()

	lease, ok, err := lock.Acquire(ctx, campaignID)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatal("expected lock to be acquired")
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}

	// Lock must be reusable after release.
	if _, ok, err = lock.Acquire(ctx, campaignID); err != nil || !ok {
		t.Fatalf("expected reacquire after release, ok=%v err=%v", ok, err)
	}
}

func TestAcquireContention(t *testing.T) {
	lock := newTestLock(t)
	ctx := context.Background()
	campaignID := uuid.New()

	if _, ok, err := lock.Acquire(ctx, campaignID); err != nil || !ok {
		t.Fatalf("first acquire failed, ok=%v err=%v", ok, err)
	}

	lease, ok, err := lock.Acquire(ctx, campaignID)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok || lease != nil {
		t.Fatal("expected second acquire to be rejected while held")
	}
}

func TestLocksAreIndependentPerCampaign(t *testing.T) {
	lock := newTestLock(t)
	ctx := context.Background()

	if _, ok, err := lock.Acquire(ctx, uuid.New()); err != nil || !ok {
		t.Fatalf("acquire campaign a, ok=%v err=%v", ok, err)
	}
	if _, ok, err := lock.Acquire(ctx, uuid.New()); err != nil || !ok {
		t.Fatalf("acquire campaign b, ok=%v err=%v", ok, err)
	}
}
