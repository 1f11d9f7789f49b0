package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"notesapi/log"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// TokenRevocationList stores hashes of revoked bearer tokens in Redis until
// the token would have expired anyway.
type TokenRevocationList struct {
	Client *redis.Client
}

func NewTokenRevocationList(client *redis.Client) *TokenRevocationList {
	return &TokenRevocationList{Client: client}
}

func revocationKey(tokenString string) string {
	sum := blake2b.Sum256([]byte(tokenString))
	return "revoked:" + hex.EncodeToString(sum[:])
}

// Revoke blacklists a token until expiresAt. Already expired tokens are
// ignored.
func (rl *TokenRevocationList) Revoke(ctx context.Context, tokenString string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := rl.Client.Set(ctx, revocationKey(tokenString), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token in Redis: %w", err)
	}
	return nil
}

// IsRevoked fails open: if Redis is unreachable the token is treated as
// valid and a warning is logged.
func (rl *TokenRevocationList) IsRevoked(ctx context.Context, tokenString string) bool {
	n, err := rl.Client.Exists(ctx, revocationKey(tokenString)).Result()
	if err != nil {
		log.Logger().Warningf(nil, "error checking token revocation list: %v", err)
		return false
	}
	return n > 0
}

func (rl *TokenRevocationList) Close() error {
	return rl.Client.Close()
}
