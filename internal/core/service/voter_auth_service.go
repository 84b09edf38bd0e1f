package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
	"github.com/ballotcore/election-system/internal/pkg/metrics"
)

type voterClaims struct {
	ElectionID string `json:"eid"`
	jwt.RegisteredClaims
}

// VoterAuthService issues session tokens bound to one election. The token
// expires at the election's end date regardless of when it was issued.
type VoterAuthService struct {
	elections ports.ElectionRepository
	revoker   ports.SessionRevoker
	jwtSecret string
	keySecret []byte
	log       zerolog.Logger
	now       func() time.Time
}

func NewVoterAuthService(elections ports.ElectionRepository, revoker ports.SessionRevoker, jwtSecret, keySecret string, log zerolog.Logger) *VoterAuthService {
	return &VoterAuthService{
		elections: elections,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		keySecret: []byte(keySecret),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AccessKey derives the voter's login key. It is deterministic so that a
// re-sent credential email carries the same key.
func (s *VoterAuthService) AccessKey(electionID, voterID string) string {
	h := hmac.New(sha256.New, s.keySecret)
	h.Write([]byte(electionID + ":" + voterID))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (s *VoterAuthService) Login(ctx context.Context, electionID, voterID, accessKey string) (string, domain.VoterCredential, error) {
	cred, token, err := s.login(ctx, electionID, voterID, accessKey)
	metrics.AuthAttemptsTotal.WithLabelValues(domain.AudienceVoter, domain.KindOf(err)).Inc()
	return token, cred, err
}

func (s *VoterAuthService) login(ctx context.Context, electionID, voterID, accessKey string) (domain.VoterCredential, string, error) {
	if electionID == "" || voterID == "" {
		return domain.VoterCredential{}, "", domain.ErrInvalidAccessKey
	}
	if !hmac.Equal([]byte(accessKey), []byte(s.AccessKey(electionID, voterID))) {
		return domain.VoterCredential{}, "", domain.ErrInvalidAccessKey
	}

	election, err := s.elections.FindByID(ctx, electionID)
	if err != nil {
		return domain.VoterCredential{}, "", fmt.Errorf("voter login: %w", err)
	}
	voter := election.FindVoter(voterID)
	if voter == nil {
		return domain.VoterCredential{}, "", domain.ErrVoterNotFound
	}

	now := s.now()
	if !election.IsVotingOpen(now) {
		return domain.VoterCredential{}, "", domain.ErrVotingClosed
	}
	if voter.IsVoted {
		return domain.VoterCredential{}, "", domain.ErrAlreadyVoted
	}

	cred := domain.VoterCredential{
		VoterID:    voterID,
		ElectionID: electionID,
		TokenID:    uuid.NewString(),
		ExpiresAt:  election.EndDate.UTC(),
	}
	token, err := s.sign(cred, now)
	if err != nil {
		return domain.VoterCredential{}, "", err
	}

	s.log.Info().Str("election_id", electionID).Str("voter_id", voterID).Msg("voter session issued")
	return cred, token, nil
}

func (s *VoterAuthService) sign(cred domain.VoterCredential, now time.Time) (string, error) {
	claims := voterClaims{
		ElectionID: cred.ElectionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        cred.TokenID,
			Subject:   cred.VoterID,
			Audience:  jwt.ClaimStrings{domain.AudienceVoter},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(cred.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
}

// ParseToken validates a voter token. Admin tokens fail the audience check.
func (s *VoterAuthService) ParseToken(token string) (domain.VoterCredential, error) {
	var claims voterClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(domain.AudienceVoter),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Subject == "" || claims.ElectionID == "" {
		return domain.VoterCredential{}, domain.ErrUnauthorized
	}

	return domain.VoterCredential{
		VoterID:    claims.Subject,
		ElectionID: claims.ElectionID,
		TokenID:    claims.ID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

func (s *VoterAuthService) Revoke(ctx context.Context, cred domain.VoterCredential) error {
	return s.revoker.Revoke(ctx, cred.TokenID, cred.ExpiresAt)
}

func (s *VoterAuthService) IsRevoked(ctx context.Context, cred domain.VoterCredential) (bool, error) {
	return s.revoker.IsRevoked(ctx, cred.TokenID)
}
