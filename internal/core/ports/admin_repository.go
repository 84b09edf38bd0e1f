package ports

import (
	"context"
	"time"

	"github.com/ballotcore/election-system/internal/core/domain"
)

// AdminRepository defines persistence for admin accounts and their
// single-use verification and reset tickets.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
	FindByID(ctx context.Context, id string) (*domain.Admin, error)
	FindByEmail(ctx context.Context, email string) (*domain.Admin, error)
	FindByVerificationToken(ctx context.Context, token string) (*domain.Admin, error)

	// SetVerificationTicket stores a fresh delivery token and OTP secret while
	// the account is still unverified.
	SetVerificationTicket(ctx context.Context, adminID, token, secret string) (bool, error)

	// ConsumeVerificationTicket marks the holder of token verified and clears
	// the token and secret in the same update.
	ConsumeVerificationTicket(ctx context.Context, token string) (bool, error)

	// SetResetToken overwrites any existing reset token.
	SetResetToken(ctx context.Context, adminID, token string, expires time.Time) error

	// CompleteReset sets the new hash and clears token and expiry, matched on
	// an unexpired token.
	CompleteReset(ctx context.Context, token, passwordHash string, now time.Time) (bool, error)
}
