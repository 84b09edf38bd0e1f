package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by the core wraps exactly one of these
// kinds so callers can branch with errors.Is.
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyVoted         = errors.New("already voted")
	ErrAlreadyVerified      = errors.New("already verified")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvariantViolation   = errors.New("invariant violation")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConflict             = errors.New("conflict")
)

// ErrInvalidCredentials is returned by admin login for both unknown emails and
// wrong passwords.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)

var (
	ErrScopeMismatch      = fmt.Errorf("credential scoped to another election: %w", ErrUnauthorized)
	ErrSessionExpired     = fmt.Errorf("session expired: %w", ErrUnauthorized)
	ErrSessionRevoked     = fmt.Errorf("session revoked: %w", ErrUnauthorized)
	ErrVotingClosed       = fmt.Errorf("voting window is closed: %w", ErrUnauthorized)
	ErrEmailNotVerified   = fmt.Errorf("email not verified: %w", ErrUnauthorized)
	ErrInvalidAccessKey   = fmt.Errorf("invalid voter access key: %w", ErrUnauthorized)
	ErrElectionNotFound   = fmt.Errorf("election %w", ErrNotFound)
	ErrVoterNotFound      = fmt.Errorf("voter %w", ErrNotFound)
	ErrAdminNotFound      = fmt.Errorf("admin %w", ErrNotFound)
	ErrAdminExists        = fmt.Errorf("admin already exists: %w", ErrConflict)
	ErrElectionOngoing    = fmt.Errorf("election is ongoing: %w", ErrInvariantViolation)
	ErrElectionClosed     = fmt.Errorf("election is no longer upcoming: %w", ErrInvariantViolation)
	ErrResultsNotReady    = fmt.Errorf("results are published once the election is completed: %w", ErrInvariantViolation)
	ErrInvalidWindow      = fmt.Errorf("start date must be before end date: %w", ErrInvalidInput)
	ErrDuplicateVoter     = fmt.Errorf("duplicate voter id: %w", ErrInvalidInput)
	ErrDuplicateCandidate = fmt.Errorf("duplicate candidate id: %w", ErrInvalidInput)
	ErrEmptyBallot        = fmt.Errorf("ballot has no selections: %w", ErrInvalidInput)
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrStoreUnavailable, "store_unavailable"},
	{ErrAlreadyVoted, "already_voted"},
	{ErrAlreadyVerified, "already_verified"},
	{ErrInvalidOrExpiredCode, "invalid_or_expired_code"},
	{ErrInvalidToken, "invalid_token"},
	{ErrInvariantViolation, "invariant_violation"},
	{ErrUnauthorized, "unauthorized"},
	{ErrNotFound, "not_found"},
	{ErrInvalidInput, "invalid_input"},
	{ErrConflict, "conflict"},
}

// KindOf returns the taxonomy kind of err as a short label, "ok" for nil and
// "internal" for errors outside the taxonomy.
func KindOf(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
