package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/driveloop/fleetlink/tokencache"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	prefix := "fleetlink-test-" + uuid.NewString()

	s, err := New(addr, WithPrefix(prefix), WithTTL(time.Minute))
	if err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		keys, _ := s.client.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			_ = s.client.Del(ctx, keys...).Err()
		}
		_ = s.Close()
	})
	return s
}

func TestRedisStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "webfleet:ops@acme.nl", "session-1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	token, err := s.Get(ctx, "webfleet:ops@acme.nl")
	if err != nil || token != "session-1" {
		t.Fatalf("Get = %q, %v", token, err)
	}
}

func TestRedisStore_MissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "absent")
	if !errors.Is(err, tokencache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	prefix := "fleetlink-test-" + uuid.NewString()

	s, err := New(addr, WithPrefix(prefix), WithTTL(time.Second))
	if err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	if err := s.Put(ctx, "k", "tok"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(1500 * time.Millisecond)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, tokencache.ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}
