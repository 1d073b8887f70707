package redisx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Sessions tracks revoked gateway tokens. The gateway invalidates sessions on
// its side too, but the blacklist lets protected routes reject a logged-out
// token without a gateway round trip.
type Sessions struct{ client *redis.Client }

func NewSessions(addr string) *Sessions {
	return &Sessions{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (s *Sessions) GetClient() *redis.Client { return s.client }

func (s *Sessions) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked_token:" + hex.EncodeToString(sum[:])
}

// Revoke blacklists a token until its own expiry would have passed anyway.
func (s *Sessions) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(token), 1, ttl).Err()
}

// IsRevoked reports whether the token has been blacklisted. Redis being down
// fails open; the gateway still authenticates every data request.
func (s *Sessions) IsRevoked(ctx context.Context, token string) bool {
	n, err := s.client.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
