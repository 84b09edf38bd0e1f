package domain

import "time"

// Token audiences. A token minted for one audience never parses as the other.
const (
	AudienceAdmin = "admin"
	AudienceVoter = "voter"
)

// AdminCredential authorizes admin-gated operations.
type AdminCredential struct {
	AdminID string
	TokenID string
}

// VoterCredential authorizes ballot operations in exactly one election.
type VoterCredential struct {
	VoterID    string
	ElectionID string
	TokenID    string
	ExpiresAt  time.Time
}

// AuthorizeElection must be called on every use of the credential: it rejects
// use against any other election and use past the voting window.
func (c VoterCredential) AuthorizeElection(electionID string, now time.Time) error {
	if c.VoterID == "" || c.ElectionID == "" {
		return ErrUnauthorized
	}
	if c.ElectionID != electionID {
		return ErrScopeMismatch
	}
	if !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt) {
		return ErrSessionExpired
	}
	return nil
}
