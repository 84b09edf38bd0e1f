package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
)

const (
	otpPeriod          = 300
	otpSkew            = 1
	deliveryTokenBytes = 32
)

// otpOpts: 6 digits, 300s period, one step of tolerance either side.
var otpOpts = totp.ValidateOpts{
	Period:    otpPeriod,
	Skew:      otpSkew,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// VerificationService issues and checks email verification codes.
type VerificationService struct {
	repo   ports.AdminRepository
	queue  ports.TaskQueue
	issuer string
	log    zerolog.Logger
	now    func() time.Time
}

func NewVerificationService(repo ports.AdminRepository, queue ports.TaskQueue, issuer string, log zerolog.Logger) *VerificationService {
	return &VerificationService{
		repo:   repo,
		queue:  queue,
		issuer: issuer,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue rotates the delivery token and OTP secret and schedules the code
// email. Unknown emails return nil.
func (s *VerificationService) Issue(ctx context.Context, email string) error {
	admin, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Debug().Msg("verification requested for unknown email")
			return nil
		}
		return fmt.Errorf("issue verification: %w", err)
	}
	if admin.EmailVerified {
		return domain.ErrAlreadyVerified
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: admin.Email,
		Period:      otpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return fmt.Errorf("issue verification: generate secret: %w", err)
	}

	token, err := randomToken(deliveryTokenBytes)
	if err != nil {
		return err
	}

	stored, err := s.repo.SetVerificationTicket(ctx, admin.ID, token, key.Secret())
	if err != nil {
		return fmt.Errorf("issue verification: %w", err)
	}
	if !stored {
		// verified between the read and the write
		return domain.ErrAlreadyVerified
	}

	now := s.now()
	code, err := totp.GenerateCodeCustom(key.Secret(), now, otpOpts)
	if err != nil {
		return fmt.Errorf("issue verification: generate code: %w", err)
	}

	if err := s.queue.Enqueue(ctx, domain.Task{
		ID:         uuid.NewString(),
		Kind:       domain.TaskVerificationEmail,
		Email:      admin.Email,
		Token:      token,
		Code:       code,
		EnqueuedAt: now,
	}); err != nil {
		return fmt.Errorf("issue verification: enqueue: %w", err)
	}

	s.log.Info().Str("admin_id", admin.ID).Msg("verification code issued")
	return nil
}

// Verify consumes the delivery token if code is valid for the current time
// step or an adjacent one.
func (s *VerificationService) Verify(ctx context.Context, deliveryToken, code string) error {
	if deliveryToken == "" {
		return domain.ErrInvalidToken
	}

	admin, err := s.repo.FindByVerificationToken(ctx, deliveryToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("verify: %w", err)
	}

	valid, err := totp.ValidateCustom(code, admin.OTPSecret, s.now(), otpOpts)
	if err != nil || !valid {
		return domain.ErrInvalidOrExpiredCode
	}

	consumed, err := s.repo.ConsumeVerificationTicket(ctx, deliveryToken)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !consumed {
		return domain.ErrInvalidToken
	}

	s.log.Info().Str("admin_id", admin.ID).Msg("admin email verified")
	return nil
}
