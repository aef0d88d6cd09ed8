package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/venuescout/auth-service/internal/ports"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestRateCounterWindow(t *testing.T) {
	srv, client := newTestClient(t)
	store := NewRedisRateCounterStore(client)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, remaining, err := store.Incr(ctx, "totp_verify:abc", time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if count != want {
			t.Fatalf("count = %d, want %d", count, want)
		}
		if remaining <= 0 || remaining > time.Minute {
			t.Fatalf("remaining = %v, want within (0, 1m]", remaining)
		}
	}

	count, err := store.Count(ctx, "totp_verify:abc")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	// The window elapses and the counter starts over.
	srv.FastForward(2 * time.Minute)
	count, _, err = store.Incr(ctx, "totp_verify:abc", time.Minute)
	if err != nil {
		t.Fatalf("incr after window: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after window = %d, want 1", count)
	}
}

func TestRateCounterReset(t *testing.T) {
	_, client := newTestClient(t)
	store := NewRedisRateCounterStore(client)
	ctx := context.Background()

	if _, _, err := store.Incr(ctx, "magic_link_verify:1.2.3.4", time.Minute); err != nil {
		t.Fatalf("incr: %v", err)
	}
	if err := store.Reset(ctx, "magic_link_verify:1.2.3.4"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	count, err := store.Count(ctx, "magic_link_verify:1.2.3.4")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count after reset = %d, want 0", count)
	}
}

func TestSessionRevocationStore(t *testing.T) {
	srv, client := newTestClient(t)
	store := NewRedisSessionRevocationStore(client)
	ctx := context.Background()

	jti := uuid.New()
	revoked, err := store.IsRevoked(ctx, jti)
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatalf("fresh jti should not be revoked")
	}

	if err := store.MarkRevoked(ctx, jti, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("mark revoked: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, jti)
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatalf("marked jti should report revoked")
	}

	// The marker expires together with the token's own lifetime.
	srv.FastForward(2 * time.Hour)
	revoked, err = store.IsRevoked(ctx, jti)
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatalf("marker should expire with the token")
	}
}

func TestOAuthStateStore(t *testing.T) {
	srv, client := newTestClient(t)
	store := NewRedisOAuthStateStore(client)
	ctx := context.Background()

	missing, err := store.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("unknown state should return nil, got %+v", missing)
	}

	now := time.Now().UTC().Truncate(time.Second)
	value := ports.OAuthState{Provider: "google", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	if err := store.Put(ctx, "state-1", value, 10*time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "state-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Provider != "google" || !got.ExpiresAt.Equal(value.ExpiresAt) {
		t.Fatalf("unexpected state: %+v", got)
	}

	if err := store.Delete(ctx, "state-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = store.Get(ctx, "state-1")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("deleted state should be gone")
	}

	if err := store.Put(ctx, "state-2", value, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	srv.FastForward(2 * time.Minute)
	got, err = store.Get(ctx, "state-2")
	if err != nil {
		t.Fatalf("get expired: %v", err)
	}
	if got != nil {
		t.Fatalf("expired state should be gone")
	}
}
