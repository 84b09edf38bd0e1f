package domain

import (
	"sort"
	"time"
)

// ElectionStatus represents the lifecycle phase of an election.
type ElectionStatus string

const (
	StatusUpcoming  ElectionStatus = "upcoming"
	StatusOngoing   ElectionStatus = "ongoing"
	StatusCompleted ElectionStatus = "completed"
)

var statusRank = map[ElectionStatus]int{
	StatusUpcoming:  0,
	StatusOngoing:   1,
	StatusCompleted: 2,
}

// Rank orders statuses Upcoming < Ongoing < Completed. Unknown values rank -1.
func (s ElectionStatus) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// Valid reports whether s is one of the three lifecycle phases.
func (s ElectionStatus) Valid() bool {
	return s.Rank() >= 0
}

// CanAdvanceTo reports whether next is strictly later in the lifecycle than s.
// Transitions never go backwards; Completed is terminal.
func (s ElectionStatus) CanAdvanceTo(next ElectionStatus) bool {
	return next.Valid() && next.Rank() > s.Rank()
}

// StatusAt computes the phase implied by the voting window at instant now.
//
//	now <  start        → Upcoming
//	start <= now < end  → Ongoing
//	now >= end          → Completed
func StatusAt(start, end, now time.Time) ElectionStatus {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.Before(end):
		return StatusOngoing
	default:
		return StatusCompleted
	}
}

// Candidate is a choice in one contest (slot) of an election.
type Candidate struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	Slot string `json:"slot" bson:"slot"`
}

// Voter is a roll entry embedded in its election.
type Voter struct {
	ID       string   `json:"id" bson:"id"`
	Email    string   `json:"email,omitempty" bson:"email,omitempty"`
	Cluster  string   `json:"cluster" bson:"cluster"`
	IsVoted  bool     `json:"is_voted" bson:"isVoted"`
	VotedFor []string `json:"voted_for" bson:"votedFor"`
}

// Election is the aggregate root. Status is the materialized phase and may lag
// StatusAt by at most one status-updater period.
type Election struct {
	ID          string         `json:"id" bson:"-"`
	Name        string         `json:"name" bson:"name"`
	Description string         `json:"description" bson:"desc"`
	Status      ElectionStatus `json:"status" bson:"status"`
	StartDate   time.Time      `json:"start_date" bson:"startDate"`
	EndDate     time.Time      `json:"end_date" bson:"endDate"`
	CreatedBy   string         `json:"created_by" bson:"createdBy"`
	Candidates  []Candidate    `json:"candidates" bson:"candidates"`
	Voters      []Voter        `json:"voters" bson:"voters"`
	CreatedAt   time.Time      `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updatedAt"`
}

// StatusAt returns the phase the election should be in at now.
func (e *Election) StatusAt(now time.Time) ElectionStatus {
	return StatusAt(e.StartDate, e.EndDate, now)
}

// IsVotingOpen reports whether now falls inside [StartDate, EndDate).
func (e *Election) IsVotingOpen(now time.Time) bool {
	return e.StatusAt(now) == StatusOngoing
}

// IsLocked reports whether the configuration must be treated as immutable:
// either the stored status has left Upcoming or the window has already begun.
func (e *Election) IsLocked(now time.Time) bool {
	return e.Status != StatusUpcoming || !now.Before(e.StartDate)
}

// FindVoter returns the voter with the given id, or nil.
func (e *Election) FindVoter(id string) *Voter {
	for i := range e.Voters {
		if e.Voters[i].ID == id {
			return &e.Voters[i]
		}
	}
	return nil
}

// ValidateWindow checks the voting window is non-empty.
func ValidateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidWindow
	}
	return nil
}

// ValidateRoll checks voter and candidate ids are unique within the election.
func ValidateRoll(voters []Voter, candidates []Candidate) error {
	seen := make(map[string]struct{}, len(voters))
	for _, v := range voters {
		if _, dup := seen[v.ID]; dup || v.ID == "" {
			return ErrDuplicateVoter
		}
		seen[v.ID] = struct{}{}
	}
	seen = make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup || c.ID == "" {
			return ErrDuplicateCandidate
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// BallotSequence flattens slot → candidate selections into the stored votedFor
// sequence, ordered by slot name so the same ballot always stores identically.
func BallotSequence(selections map[string]string) []string {
	slots := make([]string, 0, len(selections))
	for slot := range selections {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, selections[slot])
	}
	return out
}
