package ports

import (
	"context"
	"time"

	"github.com/ballotcore/election-system/internal/core/domain"
)

// ReconcileReport summarises one status reconciliation pass.
type ReconcileReport struct {
	Checked  int       `json:"checked"`
	Advanced int       `json:"advanced"`
	Failed   int       `json:"failed"`
	At       time.Time `json:"at"`
}

// CandidateTally is the vote count of one candidate.
type CandidateTally struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name,omitempty"`
	Votes       int    `json:"votes"`
}

// SlotTally groups tallies by contest. Selections that match no configured
// candidate are reported under an empty slot.
type SlotTally struct {
	Slot       string           `json:"slot"`
	Candidates []CandidateTally `json:"candidates"`
}

// ClusterTurnout reports participation per voter cluster.
type ClusterTurnout struct {
	Cluster string `json:"cluster"`
	Voters  int    `json:"voters"`
	Voted   int    `json:"voted"`
}

// ElectionResults is only produced for completed elections.
type ElectionResults struct {
	ElectionID  string           `json:"election_id"`
	Name        string           `json:"name"`
	TotalVoters int              `json:"total_voters"`
	BallotsCast int              `json:"ballots_cast"`
	Tallies     []SlotTally      `json:"tallies"`
	Turnout     []ClusterTurnout `json:"turnout"`
}

// BallotView is what a voter sees before casting a ballot.
type BallotView struct {
	ElectionID  string             `json:"election_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	StartDate   time.Time          `json:"start_date"`
	EndDate     time.Time          `json:"end_date"`
	Candidates  []domain.Candidate `json:"candidates"`
	HasVoted    bool               `json:"has_voted"`
}

// ElectionService owns election administration and the status state machine.
type ElectionService interface {
	Create(ctx context.Context, cred domain.AdminCredential, cfg ElectionConfig) (*domain.Election, error)
	Get(ctx context.Context, cred domain.AdminCredential, id string) (*domain.Election, error)
	List(ctx context.Context, cred domain.AdminCredential) ([]*domain.Election, error)
	UpdateConfig(ctx context.Context, cred domain.AdminCredential, id string, cfg ElectionConfig) (*domain.Election, error)
	Delete(ctx context.Context, cred domain.AdminCredential, id string) error
	Results(ctx context.Context, cred domain.AdminCredential, id string) (*ElectionResults, error)
	Ballot(ctx context.Context, cred domain.VoterCredential, id string) (*BallotView, error)
	Reconcile(ctx context.Context, now time.Time) (ReconcileReport, error)
}

// VoteService records ballots.
type VoteService interface {
	RecordVote(ctx context.Context, cred domain.VoterCredential, electionID string, selections map[string]string) error
}

// NotificationService enqueues voter notifications.
type NotificationService interface {
	EnqueueVoterCredentials(ctx context.Context, cred domain.AdminCredential, electionID string) (string, error)
}

// StatusReconciler runs one reconciliation against the current time.
type StatusReconciler interface {
	Run(ctx context.Context) (ReconcileReport, error)
}
