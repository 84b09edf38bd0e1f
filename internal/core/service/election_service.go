package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
	"github.com/ballotcore/election-system/internal/pkg/metrics"
)

// ElectionService implements election administration, the voter ballot view
// and status reconciliation.
type ElectionService struct {
	repo   ports.ElectionRepository
	admins ports.AdminRepository
	log    zerolog.Logger
	now    func() time.Time
}

func NewElectionService(repo ports.ElectionRepository, admins ports.AdminRepository, log zerolog.Logger) *ElectionService {
	return &ElectionService{
		repo:   repo,
		admins: admins,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new election as upcoming. An election whose window has
// already begun is advanced by the next reconciliation, which keeps the
// status updater the only writer of later phases.
func (s *ElectionService) Create(ctx context.Context, cred domain.AdminCredential, cfg ports.ElectionConfig) (*domain.Election, error) {
	if err := s.requireVerifiedAdmin(ctx, cred); err != nil {
		return nil, err
	}
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	now := s.now()
	election := &domain.Election{
		Name:        cfg.Name,
		Description: cfg.Description,
		Status:      domain.StatusUpcoming,
		StartDate:   cfg.StartDate,
		EndDate:     cfg.EndDate,
		CreatedBy:   cred.AdminID,
		Candidates:  cfg.Candidates,
		Voters:      cfg.Voters,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, election)
	if err != nil {
		return nil, fmt.Errorf("create election: %w", err)
	}

	s.log.Info().
		Str("election_id", created.ID).
		Str("admin_id", cred.AdminID).
		Int("voters", len(created.Voters)).
		Msg("election created")
	return created, nil
}

// Get returns an election owned by the caller. Elections owned by other admins
// are reported as not found.
func (s *ElectionService) Get(ctx context.Context, cred domain.AdminCredential, id string) (*domain.Election, error) {
	if cred.AdminID == "" {
		return nil, domain.ErrUnauthorized
	}
	election, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if election.CreatedBy != cred.AdminID {
		return nil, domain.ErrElectionNotFound
	}
	return election, nil
}

func (s *ElectionService) List(ctx context.Context, cred domain.AdminCredential) ([]*domain.Election, error) {
	if cred.AdminID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListByCreator(ctx, cred.AdminID)
}

// UpdateConfig replaces the configuration while the election is upcoming and
// its window has not begun.
func (s *ElectionService) UpdateConfig(ctx context.Context, cred domain.AdminCredential, id string, cfg ports.ElectionConfig) (*domain.Election, error) {
	if cred.AdminID == "" {
		return nil, domain.ErrUnauthorized
	}
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	now := s.now()
	matched, err := s.repo.UpdateConfig(ctx, id, cred.AdminID, cfg, now)
	if err != nil {
		return nil, fmt.Errorf("update election: %w", err)
	}
	if !matched {
		return nil, s.explainLocked(ctx, cred, id, now, false)
	}

	s.log.Info().Str("election_id", id).Str("admin_id", cred.AdminID).Msg("election configuration updated")
	return s.repo.FindByID(ctx, id)
}

// Delete removes an election unless it is ongoing.
func (s *ElectionService) Delete(ctx context.Context, cred domain.AdminCredential, id string) error {
	if cred.AdminID == "" {
		return domain.ErrUnauthorized
	}

	now := s.now()
	matched, err := s.repo.Delete(ctx, id, cred.AdminID, now)
	if err != nil {
		return fmt.Errorf("delete election: %w", err)
	}
	if !matched {
		return s.explainLocked(ctx, cred, id, now, true)
	}

	s.log.Info().Str("election_id", id).Str("admin_id", cred.AdminID).Msg("election deleted")
	return nil
}

// explainLocked classifies a conditional update or delete that matched
// nothing.
func (s *ElectionService) explainLocked(ctx context.Context, cred domain.AdminCredential, id string, now time.Time, deleting bool) error {
	election, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if election.CreatedBy != cred.AdminID {
		return domain.ErrElectionNotFound
	}

	ongoing := election.Status == domain.StatusOngoing || election.IsVotingOpen(now)
	switch {
	case ongoing:
		return domain.ErrElectionOngoing
	case deleting:
		// neither ongoing nor missing: the document changed under us
		return fmt.Errorf("delete election: %w", domain.ErrConflict)
	case election.IsLocked(now):
		return domain.ErrElectionClosed
	default:
		return fmt.Errorf("update election: %w", domain.ErrConflict)
	}
}

// Results tallies a completed election. The stored status is the gate, so
// results appear once the updater has observed the end of the window.
func (s *ElectionService) Results(ctx context.Context, cred domain.AdminCredential, id string) (*ports.ElectionResults, error) {
	election, err := s.Get(ctx, cred, id)
	if err != nil {
		return nil, err
	}
	if election.Status != domain.StatusCompleted {
		return nil, domain.ErrResultsNotReady
	}
	return tally(election), nil
}

// Ballot returns the voter's view of the election bound to cred.
func (s *ElectionService) Ballot(ctx context.Context, cred domain.VoterCredential, id string) (*ports.BallotView, error) {
	if err := cred.AuthorizeElection(id, s.now()); err != nil {
		return nil, err
	}

	election, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	voter := election.FindVoter(cred.VoterID)
	if voter == nil {
		return nil, domain.ErrVoterNotFound
	}

	return &ports.BallotView{
		ElectionID:  election.ID,
		Name:        election.Name,
		Description: election.Description,
		StartDate:   election.StartDate,
		EndDate:     election.EndDate,
		Candidates:  election.Candidates,
		HasVoted:    voter.IsVoted,
	}, nil
}

// Reconcile advances every election whose stored status lags the phase
// implied by now. A failure on one election is logged and counted; the rest
// are still processed. Running it twice for the same instant is a no-op the
// second time.
func (s *ElectionService) Reconcile(ctx context.Context, now time.Time) (ports.ReconcileReport, error) {
	started := time.Now()
	report := ports.ReconcileReport{At: now}

	stale, err := s.repo.FindStale(ctx, now)
	if err != nil {
		metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		return report, fmt.Errorf("reconcile: %w", err)
	}

	for _, e := range stale {
		report.Checked++
		target := e.StatusAt(now)
		if !e.Status.CanAdvanceTo(target) {
			continue
		}

		advanced, err := s.repo.AdvanceStatus(ctx, e.ID, e.Status, target)
		if err != nil {
			report.Failed++
			s.log.Error().Err(err).
				Str("election_id", e.ID).
				Str("from", string(e.Status)).
				Str("to", string(target)).
				Msg("failed to advance election status")
			continue
		}
		if !advanced {
			// another run got there first
			continue
		}

		report.Advanced++
		metrics.StatusTransitionsTotal.WithLabelValues(string(e.Status), string(target)).Inc()
		s.log.Info().
			Str("election_id", e.ID).
			Str("from", string(e.Status)).
			Str("to", string(target)).
			Msg("election status advanced")
	}

	result := "ok"
	if report.Failed > 0 {
		result = "partial"
	}
	metrics.ReconcileRunsTotal.WithLabelValues(result).Inc()
	metrics.ReconcileDuration.Observe(time.Since(started).Seconds())
	return report, nil
}

func (s *ElectionService) requireVerifiedAdmin(ctx context.Context, cred domain.AdminCredential) error {
	if cred.AdminID == "" {
		return domain.ErrUnauthorized
	}
	admin, err := s.admins.FindByID(ctx, cred.AdminID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUnauthorized
		}
		return err
	}
	if !admin.EmailVerified {
		return domain.ErrEmailNotVerified
	}
	return nil
}

// normalizeConfig validates an election configuration and resets any ballot
// state on the roll.
func normalizeConfig(cfg ports.ElectionConfig) (ports.ElectionConfig, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		return cfg, fmt.Errorf("election name is required: %w", domain.ErrInvalidInput)
	}
	cfg.StartDate = cfg.StartDate.UTC()
	cfg.EndDate = cfg.EndDate.UTC()
	if err := domain.ValidateWindow(cfg.StartDate, cfg.EndDate); err != nil {
		return cfg, err
	}
	if err := domain.ValidateRoll(cfg.Voters, cfg.Candidates); err != nil {
		return cfg, err
	}

	voters := make([]domain.Voter, len(cfg.Voters))
	for i, v := range cfg.Voters {
		voters[i] = domain.Voter{
			ID:       v.ID,
			Email:    normalizeEmail(v.Email),
			Cluster:  v.Cluster,
			VotedFor: []string{},
		}
	}
	cfg.Voters = voters
	if cfg.Candidates == nil {
		cfg.Candidates = []domain.Candidate{}
	}
	return cfg, nil
}

func tally(e *domain.Election) *ports.ElectionResults {
	bySlot := make(map[string][]ports.CandidateTally)
	pos := make(map[string]int)
	slotOf := make(map[string]string, len(e.Candidates))

	for _, c := range e.Candidates {
		slotOf[c.ID] = c.Slot
		pos[c.ID] = len(bySlot[c.Slot])
		bySlot[c.Slot] = append(bySlot[c.Slot], ports.CandidateTally{CandidateID: c.ID, Name: c.Name})
	}

	turnout := make(map[string]*ports.ClusterTurnout)
	res := &ports.ElectionResults{
		ElectionID:  e.ID,
		Name:        e.Name,
		TotalVoters: len(e.Voters),
	}

	for _, v := range e.Voters {
		ct, ok := turnout[v.Cluster]
		if !ok {
			ct = &ports.ClusterTurnout{Cluster: v.Cluster}
			turnout[v.Cluster] = ct
		}
		ct.Voters++
		if !v.IsVoted {
			continue
		}
		ct.Voted++
		res.BallotsCast++

		for _, choice := range v.VotedFor {
			slot := slotOf[choice]
			if _, seen := pos[choice]; !seen {
				pos[choice] = len(bySlot[slot])
				bySlot[slot] = append(bySlot[slot], ports.CandidateTally{CandidateID: choice})
			}
			bySlot[slot][pos[choice]].Votes++
		}
	}

	slots := make([]string, 0, len(bySlot))
	for slot := range bySlot {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		candidates := bySlot[slot]
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Votes > candidates[j].Votes
		})
		res.Tallies = append(res.Tallies, ports.SlotTally{Slot: slot, Candidates: candidates})
	}

	clusters := make([]string, 0, len(turnout))
	for c := range turnout {
		clusters = append(clusters, c)
	}
	sort.Strings(clusters)
	for _, c := range clusters {
		res.Turnout = append(res.Turnout, *turnout[c])
	}
	return res
}
