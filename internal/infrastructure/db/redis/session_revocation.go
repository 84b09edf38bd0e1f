package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ballotcore/election-system/internal/core/domain"
)

// SessionRevocations records revoked voter token ids until the token would
// have expired anyway.
// Key format: revoked:<token_id>
type SessionRevocations struct {
	client *redis.Client
	now    func() time.Time
}

func NewSessionRevocations(client *redis.Client) *SessionRevocations {
	return &SessionRevocations{client: client, now: time.Now}
}

// Revoke marks tokenID revoked. Tokens already past until need no entry.
func (s *SessionRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SessionRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

func key(tokenID string) string {
	return "revoked:" + tokenID
}
