package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
)

func setupElections(t *testing.T) (*ElectionService, *stubElectionRepo, domain.AdminCredential) {
	t.Helper()
	admins := newStubAdminRepo()
	admin, err := admins.Create(context.Background(), &domain.Admin{Name: "Kim", Email: "kim@example.com"})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	admins.admins[admin.ID].EmailVerified = true

	repo := newStubElectionRepo()
	svc := NewElectionService(repo, admins, zerolog.Nop())
	svc.now = fixedClock(testNow)
	return svc, repo, domain.AdminCredential{AdminID: admin.ID}
}

func upcomingConfig() ports.ElectionConfig {
	return ports.ElectionConfig{
		Name:      "Council",
		StartDate: testNow.Add(time.Hour),
		EndDate:   testNow.Add(3 * time.Hour),
		Candidates: []domain.Candidate{
			{ID: "c1", Name: "Ada", Slot: "chair"},
			{ID: "c2", Name: "Bea", Slot: "chair"},
		},
		Voters: []domain.Voter{
			{ID: "v1", Email: "V1@Example.com", Cluster: "north"},
			{ID: "v2", Cluster: "south"},
		},
	}
}

func TestElectionService_Create(t *testing.T) {
	svc, repo, cred := setupElections(t)

	cfg := upcomingConfig()
	cfg.Voters[0].IsVoted = true // ballot state from input is discarded

	e, err := svc.Create(context.Background(), cred, cfg)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	stored := repo.get(e.ID)
	if stored.Status != domain.StatusUpcoming || stored.CreatedBy != cred.AdminID {
		t.Fatalf("unexpected stored election: %+v", stored)
	}
	if stored.Voters[0].IsVoted || stored.Voters[0].Email != "v1@example.com" {
		t.Fatalf("roll must be normalized, got %+v", stored.Voters[0])
	}
}

func TestElectionService_Create_Validation(t *testing.T) {
	svc, _, cred := setupElections(t)

	inverted := upcomingConfig()
	inverted.EndDate = inverted.StartDate
	if _, err := svc.Create(context.Background(), cred, inverted); !errors.Is(err, domain.ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}

	dup := upcomingConfig()
	dup.Voters[1].ID = "v1"
	if _, err := svc.Create(context.Background(), cred, dup); !errors.Is(err, domain.ErrDuplicateVoter) {
		t.Errorf("expected ErrDuplicateVoter, got %v", err)
	}
}

func TestElectionService_Create_RequiresVerifiedAdmin(t *testing.T) {
	admins := newStubAdminRepo()
	admin, _ := admins.Create(context.Background(), &domain.Admin{Name: "Lee", Email: "lee@example.com"})
	svc := NewElectionService(newStubElectionRepo(), admins, zerolog.Nop())

	_, err := svc.Create(context.Background(), domain.AdminCredential{AdminID: admin.ID}, upcomingConfig())
	if !errors.Is(err, domain.ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	if _, err := svc.Create(context.Background(), domain.AdminCredential{}, upcomingConfig()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without credential, got %v", err)
	}
}

func TestElectionService_Get_ScopedToCreator(t *testing.T) {
	svc, repo, cred := setupElections(t)
	other := repo.put(ongoingElection("someone-else"))

	if _, err := svc.Get(context.Background(), cred, other.ID); !errors.Is(err, domain.ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound for foreign election, got %v", err)
	}
}

func TestElectionService_UpdateConfig(t *testing.T) {
	svc, _, cred := setupElections(t)
	e, _ := svc.Create(context.Background(), cred, upcomingConfig())

	cfg := upcomingConfig()
	cfg.Name = "Council (amended)"
	updated, err := svc.UpdateConfig(context.Background(), cred, e.ID, cfg)
	if err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	if updated.Name != "Council (amended)" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}
}

func TestElectionService_UpdateConfig_LockedOnceStarted(t *testing.T) {
	svc, repo, cred := setupElections(t)

	ongoing := repo.put(ongoingElection(cred.AdminID, "v1"))
	if _, err := svc.UpdateConfig(context.Background(), cred, ongoing.ID, upcomingConfig()); !errors.Is(err, domain.ErrElectionOngoing) {
		t.Fatalf("expected ErrElectionOngoing, got %v", err)
	}

	done := ongoingElection(cred.AdminID, "v1")
	done.Status = domain.StatusCompleted
	done.StartDate, done.EndDate = testNow.Add(-3*time.Hour), testNow.Add(-time.Hour)
	done = repo.put(done)
	if _, err := svc.UpdateConfig(context.Background(), cred, done.ID, upcomingConfig()); !errors.Is(err, domain.ErrElectionClosed) {
		t.Fatalf("expected ErrElectionClosed for completed election, got %v", err)
	}
	if !errors.Is(domain.ErrElectionClosed, domain.ErrInvariantViolation) {
		t.Fatal("ErrElectionClosed must be an invariant violation")
	}
}

func TestElectionService_UpdateConfig_StaleUpcomingStatus(t *testing.T) {
	svc, repo, cred := setupElections(t)

	// stored status lags: still upcoming but the window has begun
	lagging := ongoingElection(cred.AdminID, "v1")
	lagging.Status = domain.StatusUpcoming
	lagging = repo.put(lagging)

	if _, err := svc.UpdateConfig(context.Background(), cred, lagging.ID, upcomingConfig()); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestElectionService_Delete(t *testing.T) {
	svc, repo, cred := setupElections(t)
	upcoming, _ := svc.Create(context.Background(), cred, upcomingConfig())
	ongoing := repo.put(ongoingElection(cred.AdminID, "v1"))

	if err := svc.Delete(context.Background(), cred, ongoing.ID); !errors.Is(err, domain.ErrElectionOngoing) {
		t.Fatalf("expected ErrElectionOngoing, got %v", err)
	}
	if err := svc.Delete(context.Background(), cred, upcoming.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), cred, upcoming.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), domain.AdminCredential{AdminID: "intruder"}, ongoing.ID); !errors.Is(err, domain.ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound for foreign admin, got %v", err)
	}
}

func TestElectionService_Results(t *testing.T) {
	svc, repo, cred := setupElections(t)

	e := ongoingElection(cred.AdminID, "v1", "v2", "v3")
	e.Voters[2].Cluster = "south"
	e = repo.put(e)

	if _, err := svc.Results(context.Background(), cred, e.ID); !errors.Is(err, domain.ErrResultsNotReady) {
		t.Fatalf("expected ErrResultsNotReady while ongoing, got %v", err)
	}

	stored := repo.elections[e.ID]
	stored.Status = domain.StatusCompleted
	stored.Voters[0].IsVoted, stored.Voters[0].VotedFor = true, []string{"c2", "c3"}
	stored.Voters[2].IsVoted, stored.Voters[2].VotedFor = true, []string{"c2", "retired"}

	res, err := svc.Results(context.Background(), cred, e.ID)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if res.TotalVoters != 3 || res.BallotsCast != 2 {
		t.Fatalf("unexpected totals: %+v", res)
	}

	votes := make(map[string]int)
	for _, slot := range res.Tallies {
		for _, c := range slot.Candidates {
			votes[slot.Slot+"/"+c.CandidateID] = c.Votes
		}
	}
	want := map[string]int{"president/c1": 0, "president/c2": 2, "secretary/c3": 1, "/retired": 1}
	for k, v := range want {
		if votes[k] != v {
			t.Errorf("%s: expected %d votes, got %d", k, v, votes[k])
		}
	}
	if res.Tallies[1].Candidates[0].CandidateID != "c2" {
		t.Errorf("candidates must be ordered by votes, got %+v", res.Tallies[1].Candidates)
	}

	if len(res.Turnout) != 2 || res.Turnout[0].Cluster != "north" || res.Turnout[0].Voted != 1 || res.Turnout[1].Voted != 1 {
		t.Fatalf("unexpected turnout: %+v", res.Turnout)
	}
}

func TestElectionService_Ballot(t *testing.T) {
	svc, repo, _ := setupElections(t)
	e := repo.put(ongoingElection("a1", "v1"))

	view, err := svc.Ballot(context.Background(), credFor(e, "v1"), e.ID)
	if err != nil {
		t.Fatalf("Ballot failed: %v", err)
	}
	if view.HasVoted || len(view.Candidates) != 3 {
		t.Fatalf("unexpected ballot view: %+v", view)
	}

	other := repo.put(ongoingElection("a1", "v1"))
	if _, err := svc.Ballot(context.Background(), credFor(e, "v1"), other.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized for another election, got %v", err)
	}
}

func TestElectionService_Reconcile_AdvancesAndIsIdempotent(t *testing.T) {
	svc, repo, _ := setupElections(t)

	future := ongoingElection("a1")
	future.Status = domain.StatusUpcoming
	future.StartDate, future.EndDate = testNow.Add(time.Hour), testNow.Add(2*time.Hour)
	future = repo.put(future)

	started := ongoingElection("a1")
	started.Status = domain.StatusUpcoming
	started = repo.put(started)

	// upcoming → completed in one step when the whole window was missed
	missed := ongoingElection("a1")
	missed.Status = domain.StatusUpcoming
	missed.StartDate, missed.EndDate = testNow.Add(-2*time.Hour), testNow.Add(-time.Hour)
	missed = repo.put(missed)

	report, err := svc.Reconcile(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if report.Advanced != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if repo.get(future.ID).Status != domain.StatusUpcoming {
		t.Error("future election must stay upcoming")
	}
	if repo.get(started.ID).Status != domain.StatusOngoing {
		t.Error("started election must be ongoing")
	}
	if repo.get(missed.ID).Status != domain.StatusCompleted {
		t.Error("missed election must be completed")
	}

	again, err := svc.Reconcile(context.Background(), testNow)
	if err != nil || again.Advanced != 0 {
		t.Fatalf("second run must be a no-op, got %+v, %v", again, err)
	}
}

func TestElectionService_Reconcile_NeverRegresses(t *testing.T) {
	svc, repo, _ := setupElections(t)

	// clock skew: stored completed, but now falls inside the window
	e := ongoingElection("a1")
	e.Status = domain.StatusCompleted
	e = repo.put(e)

	if _, err := svc.Reconcile(context.Background(), testNow); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if repo.get(e.ID).Status != domain.StatusCompleted {
		t.Fatal("status must never move backwards")
	}
}

func TestElectionService_Reconcile_IsolatesFailures(t *testing.T) {
	svc, repo, _ := setupElections(t)

	var ids []string
	for i := 0; i < 3; i++ {
		e := ongoingElection("a1")
		e.Status = domain.StatusUpcoming
		ids = append(ids, repo.put(e).ID)
	}
	repo.advanceFn = func(id string) error {
		if id == ids[1] {
			return domain.ErrStoreUnavailable
		}
		return nil
	}

	report, err := svc.Reconcile(context.Background(), testNow)
	if err != nil {
		t.Fatalf("per-election failures must not fail the run: %v", err)
	}
	if report.Checked != 3 || report.Advanced != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if repo.get(ids[1]).Status != domain.StatusUpcoming {
		t.Error("failed election must keep its status")
	}
}

func TestElectionService_Reconcile_StoreDown(t *testing.T) {
	svc, repo, _ := setupElections(t)
	repo.findErr = domain.ErrStoreUnavailable

	if _, err := svc.Reconcile(context.Background(), testNow); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
