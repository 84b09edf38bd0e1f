package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
	"github.com/ballotcore/election-system/internal/pkg/metrics"
)

// CredentialRevoker invalidates a voter session before its natural expiry.
type CredentialRevoker interface {
	Revoke(ctx context.Context, cred domain.VoterCredential) error
}

// VoteService commits ballots.
type VoteService struct {
	repo    ports.ElectionRepository
	revoker CredentialRevoker
	log     zerolog.Logger
	now     func() time.Time
}

func NewVoteService(repo ports.ElectionRepository, revoker CredentialRevoker, log zerolog.Logger) *VoteService {
	return &VoteService{
		repo:    repo,
		revoker: revoker,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordVote commits the ballot with a single conditional update matched on
// the voter not having voted yet, so concurrent submissions for the same voter
// cannot both succeed.
func (s *VoteService) RecordVote(ctx context.Context, cred domain.VoterCredential, electionID string, selections map[string]string) error {
	err := s.recordVote(ctx, cred, electionID, selections)
	metrics.VotesTotal.WithLabelValues(domain.KindOf(err)).Inc()
	return err
}

func (s *VoteService) recordVote(ctx context.Context, cred domain.VoterCredential, electionID string, selections map[string]string) error {
	now := s.now()
	if err := cred.AuthorizeElection(electionID, now); err != nil {
		return err
	}
	if len(selections) == 0 {
		return domain.ErrEmptyBallot
	}

	votedFor := domain.BallotSequence(selections)

	matched, err := s.repo.RecordVote(ctx, electionID, cred.VoterID, votedFor, now)
	if err != nil {
		return fmt.Errorf("record vote: %w", err)
	}
	if !matched {
		return s.explainMiss(ctx, electionID, cred.VoterID, now)
	}

	// The ballot is committed; a failed revocation only leaves a token that
	// the isVoted filter already rejects.
	if err := s.revoker.Revoke(ctx, cred); err != nil {
		s.log.Warn().Err(err).Str("election_id", electionID).Str("voter_id", cred.VoterID).Msg("failed to revoke voter session")
	}

	s.log.Info().Str("election_id", electionID).Str("voter_id", cred.VoterID).Msg("vote recorded")
	return nil
}

// explainMiss reads the election after a conditional update matched nothing
// and reports why. The read is diagnostic only; it never leads to a write.
func (s *VoteService) explainMiss(ctx context.Context, electionID, voterID string, now time.Time) error {
	election, err := s.repo.FindByID(ctx, electionID)
	if err != nil {
		return fmt.Errorf("record vote: %w", err)
	}

	voter := election.FindVoter(voterID)
	switch {
	case voter == nil:
		return domain.ErrVoterNotFound
	case voter.IsVoted:
		return domain.ErrAlreadyVoted
	case !election.IsVotingOpen(now):
		return domain.ErrVotingClosed
	default:
		return fmt.Errorf("record vote: ballot not applied: %w", domain.ErrConflict)
	}
}
