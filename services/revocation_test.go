package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestTokenRevocationList(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewTokenRevocationList(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer rl.Close()
	ctx := context.Background()

	if rl.IsRevoked(ctx, "abc") {
		t.Fatal("fresh token reported revoked")
	}

	if err := rl.Revoke(ctx, "abc", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !rl.IsRevoked(ctx, "abc") {
		t.Error("revoked token not reported")
	}
	if mr.Exists("revoked:abc") {
		t.Error("raw token must not be used as the key")
	}

	mr.FastForward(2 * time.Minute)
	if rl.IsRevoked(ctx, "abc") {
		t.Error("revocation should expire with the token")
	}

	if err := rl.Revoke(ctx, "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke expired: %v", err)
	}
	if rl.IsRevoked(ctx, "old") {
		t.Error("expired token should not be stored")
	}
}
