package ports

import (
	"context"
	"time"
)

// SessionRevoker tracks voter tokens that were invalidated before expiry.
type SessionRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
