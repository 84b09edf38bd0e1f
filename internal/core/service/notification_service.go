package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
	"github.com/ballotcore/election-system/internal/pkg/metrics"
)

// AccessKeySource derives voter access keys.
type AccessKeySource interface {
	AccessKey(electionID, voterID string) string
}

// NotificationService enqueues notification tasks and, as the queue's task
// handler, turns them into emails.
type NotificationService struct {
	elections ports.ElectionRepository
	queue     ports.TaskQueue
	mailer    ports.Mailer
	keys      AccessKeySource
	baseURL   string
	log       zerolog.Logger
	now       func() time.Time
}

func NewNotificationService(
	elections ports.ElectionRepository,
	queue ports.TaskQueue,
	mailer ports.Mailer,
	keys AccessKeySource,
	baseURL string,
	log zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		elections: elections,
		queue:     queue,
		mailer:    mailer,
		keys:      keys,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EnqueueVoterCredentials schedules one credential email per voter on the
// current roll. It returns the task id without waiting for delivery.
func (s *NotificationService) EnqueueVoterCredentials(ctx context.Context, cred domain.AdminCredential, electionID string) (string, error) {
	if cred.AdminID == "" {
		return "", domain.ErrUnauthorized
	}
	election, err := s.elections.FindByID(ctx, electionID)
	if err != nil {
		return "", err
	}
	if election.CreatedBy != cred.AdminID {
		return "", domain.ErrElectionNotFound
	}
	if election.Status == domain.StatusCompleted || election.StatusAt(s.now()) == domain.StatusCompleted {
		return "", domain.ErrElectionClosed
	}

	task := domain.Task{
		ID:         uuid.NewString(),
		Kind:       domain.TaskVoterCredentials,
		ElectionID: electionID,
		EnqueuedAt: s.now(),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return "", fmt.Errorf("enqueue voter credentials: %w", err)
	}

	s.log.Info().Str("election_id", electionID).Str("task_id", task.ID).Msg("voter credential task enqueued")
	return task.ID, nil
}

// Handle executes one task. Any error makes the dispatcher retry the entire
// task, so recipients may receive duplicates.
func (s *NotificationService) Handle(ctx context.Context, task domain.Task) error {
	switch task.Kind {
	case domain.TaskVoterCredentials:
		return s.sendVoterCredentials(ctx, task)
	case domain.TaskVerificationEmail:
		return s.send(ctx, task.Kind, ports.Message{
			To:      task.Email,
			Subject: "Verify your email address",
			Body: fmt.Sprintf(
				"Your verification code is %s. It is valid for about %d minutes.\n\nConfirm it at: %s\n",
				task.Code, otpPeriod/60, s.link("/verify", task.Token),
			),
		})
	case domain.TaskPasswordReset:
		return s.send(ctx, task.Kind, ports.Message{
			To:      task.Email,
			Subject: "Reset your password",
			Body: fmt.Sprintf(
				"A password reset was requested for your account.\n\nChoose a new password at: %s\n\nThe link expires in 24 hours. If you did not ask for this, ignore this email.\n",
				s.link("/reset-password", task.Token),
			),
		})
	default:
		return fmt.Errorf("unknown task kind %q: %w", task.Kind, domain.ErrInvalidInput)
	}
}

func (s *NotificationService) sendVoterCredentials(ctx context.Context, task domain.Task) error {
	election, err := s.elections.FindByID(ctx, task.ElectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// deleted after the task was queued; nothing left to notify
			s.log.Warn().Str("election_id", task.ElectionID).Msg("dropping credential task for missing election")
			return nil
		}
		return err
	}

	var failed int
	for _, v := range election.Voters {
		if v.Email == "" || v.IsVoted {
			continue
		}
		msg := ports.Message{
			To:      v.Email,
			Subject: fmt.Sprintf("Your ballot for %s", election.Name),
			Body: fmt.Sprintf(
				"You are registered to vote in %s.\n\nVoting opens %s and closes %s (UTC).\n\nVoter ID: %s\nAccess key: %s\n\nSign in at: %s\n",
				election.Name,
				election.StartDate.UTC().Format(time.RFC1123),
				election.EndDate.UTC().Format(time.RFC1123),
				v.ID,
				s.keys.AccessKey(election.ID, v.ID),
				s.baseURL+"/elections/"+url.PathEscape(election.ID)+"/login",
			),
		}
		if err := s.send(ctx, task.Kind, msg); err != nil {
			failed++
			s.log.Error().Err(err).Str("election_id", election.ID).Str("voter_id", v.ID).Msg("failed to send voter credentials")
		}
	}

	if failed > 0 {
		return fmt.Errorf("voter credentials: %d of %d emails failed", failed, len(election.Voters))
	}
	return nil
}

func (s *NotificationService) send(ctx context.Context, kind domain.TaskKind, msg ports.Message) error {
	err := s.mailer.Send(ctx, msg)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.EmailsSentTotal.WithLabelValues(string(kind), result).Inc()
	return err
}

func (s *NotificationService) link(path, token string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(token)
}
