package ports

import (
	"context"
	"time"

	"github.com/ballotcore/election-system/internal/core/domain"
)

// ElectionConfig is the admin-editable part of an election.
type ElectionConfig struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Candidates  []domain.Candidate
	Voters      []domain.Voter
}

// ElectionRepository handles election persistence. Every mutation is a single
// conditional update: the filter carries the precondition, and the boolean
// result reports whether a document matched it.
type ElectionRepository interface {
	Create(ctx context.Context, e *domain.Election) (*domain.Election, error)
	FindByID(ctx context.Context, id string) (*domain.Election, error)
	ListByCreator(ctx context.Context, adminID string) ([]*domain.Election, error)

	// FindStale returns elections whose stored status lags the phase implied
	// by now.
	FindStale(ctx context.Context, now time.Time) ([]*domain.Election, error)

	// AdvanceStatus writes to only where the stored status is still from.
	AdvanceStatus(ctx context.Context, id string, from, to domain.ElectionStatus) (bool, error)

	// UpdateConfig replaces the configuration of an election owned by adminID
	// that is still upcoming and whose start date is after now.
	UpdateConfig(ctx context.Context, id, adminID string, cfg ElectionConfig, now time.Time) (bool, error)

	// Delete removes an election owned by adminID unless it is ongoing, either
	// by stored status or because now falls inside its window.
	Delete(ctx context.Context, id, adminID string, now time.Time) (bool, error)

	// RecordVote sets isVoted and votedFor on the voter, matched on
	// (electionID, voterID, isVoted=false) and the window containing now.
	RecordVote(ctx context.Context, electionID, voterID string, votedFor []string, now time.Time) (bool, error)
}
