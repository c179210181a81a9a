package auth

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDenylist(t *testing.T) (*RedisDenylist, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})
	return NewRedisDenylist(client), m
}

func TestDenylistRevokeUntilExpiry(t *testing.T) {
	d, m := newTestDenylist(t)
	ctx := context.Background()

	if err := d.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := d.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatalf("expected token to be revoked")
	}

	m.FastForward(2 * time.Minute)
	revoked, err = d.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatalf("expected entry to expire with the token")
	}
}

func TestDenylistSkipsExpiredTokens(t *testing.T) {
	d, m := newTestDenylist(t)
	ctx := context.Background()

	if err := d.Revoke(ctx, "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if m.Exists("revoked:old") {
		t.Fatalf("expected no key for an already expired token")
	}
}
