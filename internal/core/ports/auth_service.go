package ports

import (
	"context"

	"github.com/ballotcore/election-system/internal/core/domain"
)

// AdminAuthService covers admin registration, login and password reset.
type AdminAuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.Admin, error)
	Login(ctx context.Context, email, password string) (string, *domain.Admin, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CompleteReset(ctx context.Context, token, newPassword string) error
	ParseToken(token string) (domain.AdminCredential, error)
}

// VerificationService binds a TOTP code to an admin email through a
// single-use delivery token.
type VerificationService interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, deliveryToken, code string) error
}

// VoterAuthService issues and checks credentials scoped to one election.
type VoterAuthService interface {
	AccessKey(electionID, voterID string) string
	Login(ctx context.Context, electionID, voterID, accessKey string) (string, domain.VoterCredential, error)
	ParseToken(token string) (domain.VoterCredential, error)
	Revoke(ctx context.Context, cred domain.VoterCredential) error
	IsRevoked(ctx context.Context, cred domain.VoterCredential) (bool, error)
}
