package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
	"github.com/ballotcore/election-system/internal/pkg/metrics"
)

const (
	resetTokenTTL   = 24 * time.Hour
	minPasswordLen  = 8
	resetTokenBytes = 32
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// dummyPasswordHash is compared against when the email is unknown so that
// login latency does not reveal whether an account exists.
func dummyPasswordHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}

type adminClaims struct {
	jwt.RegisteredClaims
}

// AdminAuthService implements registration, login and password reset.
type AdminAuthService struct {
	repo      ports.AdminRepository
	queue     ports.TaskQueue
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewAdminAuthService(repo ports.AdminRepository, queue ports.TaskQueue, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AdminAuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AdminAuthService{
		repo:      repo,
		queue:     queue,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *AdminAuthService) Register(ctx context.Context, name, email, password string) (*domain.Admin, error) {
	email = normalizeEmail(email)
	if name == "" || email == "" || len(password) < minPasswordLen {
		return nil, fmt.Errorf("register: name, email and a password of at least %d characters are required: %w", minPasswordLen, domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.Admin{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("admin_id", created.ID).Msg("admin registered")
	return created, nil
}

// Login returns ErrInvalidCredentials for unknown emails and wrong passwords
// alike.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	if email == "" || password == "" {
		metrics.AuthAttemptsTotal.WithLabelValues(domain.AudienceAdmin, "invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	admin, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(password))
			metrics.AuthAttemptsTotal.WithLabelValues(domain.AudienceAdmin, "invalid_credentials").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(domain.AudienceAdmin, "invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(admin)
	if err != nil {
		return "", nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues(domain.AudienceAdmin, "ok").Inc()
	return token, admin, nil
}

// RequestPasswordReset overwrites any previous reset token and schedules the
// reset email. Unknown emails get the same nil result.
func (s *AdminAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	admin, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("request password reset: %w", err)
	}

	token, err := randomToken(resetTokenBytes)
	if err != nil {
		return err
	}
	if err := s.repo.SetResetToken(ctx, admin.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}

	if err := s.queue.Enqueue(ctx, domain.Task{
		ID:         uuid.NewString(),
		Kind:       domain.TaskPasswordReset,
		Email:      admin.Email,
		Token:      token,
		EnqueuedAt: s.now(),
	}); err != nil {
		return fmt.Errorf("request password reset: enqueue: %w", err)
	}

	s.log.Info().Str("admin_id", admin.ID).Msg("password reset requested")
	return nil
}

// CompleteReset swaps the password hash and clears the reset ticket in one
// conditional update.
func (s *AdminAuthService) CompleteReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrInvalidToken
	}
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("complete reset: password must have at least %d characters: %w", minPasswordLen, domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	ok, err := s.repo.CompleteReset(ctx, token, string(hash), s.now())
	if err != nil {
		return fmt.Errorf("complete reset: %w", err)
	}
	if !ok {
		return domain.ErrInvalidToken
	}
	return nil
}

// ParseToken validates an admin session token. Voter tokens are rejected by
// the audience check even though they share the signing algorithm.
func (s *AdminAuthService) ParseToken(token string) (domain.AdminCredential, error) {
	var claims adminClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(domain.AudienceAdmin),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Subject == "" {
		return domain.AdminCredential{}, domain.ErrUnauthorized
	}
	return domain.AdminCredential{AdminID: claims.Subject, TokenID: claims.ID}, nil
}

func (s *AdminAuthService) generateToken(admin *domain.Admin) (string, error) {
	now := s.now()
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   admin.ID,
			Audience:  jwt.ClaimStrings{domain.AudienceAdmin},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
