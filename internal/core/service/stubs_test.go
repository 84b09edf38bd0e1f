package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory election repository. Every mutation runs under the mutex and
// applies the same preconditions as the Mongo filters.
// ---------------------------------------------------------------------------

type stubElectionRepo struct {
	mu        sync.Mutex
	elections map[string]*domain.Election
	seq       int
	advanceFn func(id string) error // if set, AdvanceStatus returns its error first
	findErr   error
}

func newStubElectionRepo() *stubElectionRepo {
	return &stubElectionRepo{elections: make(map[string]*domain.Election)}
}

func cloneElection(e *domain.Election) *domain.Election {
	clone := *e
	clone.Candidates = append([]domain.Candidate(nil), e.Candidates...)
	clone.Voters = make([]domain.Voter, len(e.Voters))
	for i, v := range e.Voters {
		v.VotedFor = append([]string(nil), v.VotedFor...)
		clone.Voters[i] = v
	}
	return &clone
}

func (r *stubElectionRepo) put(e *domain.Election) *domain.Election {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		r.seq++
		e.ID = fmt.Sprintf("e%d", r.seq)
	}
	r.elections[e.ID] = cloneElection(e)
	return e
}

func (r *stubElectionRepo) get(id string) *domain.Election {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneElection(r.elections[id])
}

func (r *stubElectionRepo) Create(_ context.Context, e *domain.Election) (*domain.Election, error) {
	return cloneElection(r.put(cloneElection(e))), nil
}

func (r *stubElectionRepo) FindByID(_ context.Context, id string) (*domain.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	e, ok := r.elections[id]
	if !ok {
		return nil, domain.ErrElectionNotFound
	}
	return cloneElection(e), nil
}

func (r *stubElectionRepo) ListByCreator(_ context.Context, adminID string) ([]*domain.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Election
	for _, e := range r.elections {
		if e.CreatedBy == adminID {
			out = append(out, cloneElection(e))
		}
	}
	return out, nil
}

func (r *stubElectionRepo) FindStale(_ context.Context, now time.Time) ([]*domain.Election, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*domain.Election
	for _, e := range r.elections {
		if e.Status.CanAdvanceTo(e.StatusAt(now)) {
			out = append(out, cloneElection(e))
		}
	}
	return out, nil
}

func (r *stubElectionRepo) AdvanceStatus(_ context.Context, id string, from, to domain.ElectionStatus) (bool, error) {
	if r.advanceFn != nil {
		if err := r.advanceFn(id); err != nil {
			return false, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elections[id]
	if !ok || e.Status != from || !from.CanAdvanceTo(to) {
		return false, nil
	}
	e.Status = to
	return true, nil
}

func (r *stubElectionRepo) UpdateConfig(_ context.Context, id, adminID string, cfg ports.ElectionConfig, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elections[id]
	if !ok || e.CreatedBy != adminID || e.Status != domain.StatusUpcoming || !now.Before(e.StartDate) {
		return false, nil
	}
	e.Name, e.Description = cfg.Name, cfg.Description
	e.StartDate, e.EndDate = cfg.StartDate, cfg.EndDate
	e.Candidates, e.Voters = cfg.Candidates, cfg.Voters
	e.UpdatedAt = now
	return true, nil
}

func (r *stubElectionRepo) Delete(_ context.Context, id, adminID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elections[id]
	if !ok || e.CreatedBy != adminID || e.Status == domain.StatusOngoing || e.IsVotingOpen(now) {
		return false, nil
	}
	delete(r.elections, id)
	return true, nil
}

func (r *stubElectionRepo) RecordVote(_ context.Context, electionID, voterID string, votedFor []string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elections[electionID]
	if !ok || !e.IsVotingOpen(now) {
		return false, nil
	}
	for i := range e.Voters {
		if e.Voters[i].ID == voterID && !e.Voters[i].IsVoted {
			e.Voters[i].IsVoted = true
			e.Voters[i].VotedFor = append([]string(nil), votedFor...)
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// In-memory admin repository
// ---------------------------------------------------------------------------

type stubAdminRepo struct {
	mu     sync.Mutex
	admins map[string]*domain.Admin
	seq    int
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{admins: make(map[string]*domain.Admin)}
}

func cloneAdmin(a *domain.Admin) *domain.Admin {
	clone := *a
	return &clone
}

func (r *stubAdminRepo) Create(_ context.Context, admin *domain.Admin) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Email == admin.Email {
			return nil, domain.ErrAdminExists
		}
	}
	r.seq++
	clone := cloneAdmin(admin)
	clone.ID = fmt.Sprintf("a%d", r.seq)
	r.admins[clone.ID] = clone
	return cloneAdmin(clone), nil
}

func (r *stubAdminRepo) FindByID(_ context.Context, id string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	return cloneAdmin(a), nil
}

func (r *stubAdminRepo) find(match func(*domain.Admin) bool) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if match(a) {
			return cloneAdmin(a), nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

func (r *stubAdminRepo) FindByEmail(_ context.Context, email string) (*domain.Admin, error) {
	return r.find(func(a *domain.Admin) bool { return a.Email == email })
}

func (r *stubAdminRepo) FindByVerificationToken(_ context.Context, token string) (*domain.Admin, error) {
	return r.find(func(a *domain.Admin) bool { return token != "" && a.VerificationToken == token })
}

func (r *stubAdminRepo) SetVerificationTicket(_ context.Context, adminID, token, secret string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[adminID]
	if !ok || a.EmailVerified {
		return false, nil
	}
	a.VerificationToken, a.OTPSecret = token, secret
	return true, nil
}

func (r *stubAdminRepo) ConsumeVerificationTicket(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if token != "" && a.VerificationToken == token && !a.EmailVerified {
			a.EmailVerified = true
			a.VerificationToken, a.OTPSecret = "", ""
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAdminRepo) SetResetToken(_ context.Context, adminID, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[adminID]
	if !ok {
		return domain.ErrAdminNotFound
	}
	a.ResetToken = token
	a.ResetExpires = &expires
	return nil
}

func (r *stubAdminRepo) CompleteReset(_ context.Context, token, passwordHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if token != "" && a.ResetToken == token && a.ResetExpires != nil && a.ResetExpires.After(now) {
			a.PasswordHash = passwordHash
			a.ResetToken, a.ResetExpires = "", nil
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Queue, mailer and revocation fakes
// ---------------------------------------------------------------------------

type stubQueue struct {
	mu         sync.Mutex
	tasks      []domain.Task
	enqueueErr error
}

func (q *stubQueue) Enqueue(_ context.Context, task domain.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *stubQueue) Reserve(context.Context, time.Duration) (*ports.Delivery, error) { return nil, nil }
func (q *stubQueue) Ack(context.Context, *ports.Delivery) error                      { return nil }
func (q *stubQueue) Retry(context.Context, *ports.Delivery, int) (bool, error)       { return false, nil }
func (q *stubQueue) Recover(context.Context) (int, error)                            { return 0, nil }
func (q *stubQueue) Depth(context.Context) (int64, error)                            { return 0, nil }

func (q *stubQueue) last() (domain.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return domain.Task{}, false
	}
	return q.tasks[len(q.tasks)-1], true
}

type stubMailer struct {
	mu     sync.Mutex
	sent   []ports.Message
	failTo map[string]bool
}

func (m *stubMailer) Send(_ context.Context, msg ports.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[msg.To] {
		return errors.New("smtp: mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type stubRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Time)}
}

func (r *stubRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.revoked[tokenID] = until
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

// fixedClock returns a clock stuck at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func ongoingElection(adminID string, voters ...string) *domain.Election {
	e := &domain.Election{
		Name:      "Board 2026",
		Status:    domain.StatusOngoing,
		StartDate: testNow.Add(-time.Hour),
		EndDate:   testNow.Add(time.Hour),
		CreatedBy: adminID,
		Candidates: []domain.Candidate{
			{ID: "c1", Name: "Ada", Slot: "president"},
			{ID: "c2", Name: "Grace", Slot: "president"},
			{ID: "c3", Name: "Linus", Slot: "secretary"},
		},
	}
	for _, v := range voters {
		e.Voters = append(e.Voters, domain.Voter{ID: v, Email: v + "@example.com", Cluster: "north"})
	}
	return e
}
