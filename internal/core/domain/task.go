package domain

import "time"

// TaskKind identifies what a queued notification task does.
type TaskKind string

const (
	TaskVoterCredentials  TaskKind = "voter_credentials"
	TaskVerificationEmail TaskKind = "verification_email"
	TaskPasswordReset     TaskKind = "password_reset"
)

// Task is a durable notification job. Consumers must tolerate redelivery.
type Task struct {
	ID         string    `json:"id"`
	Kind       TaskKind  `json:"kind"`
	ElectionID string    `json:"election_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Token      string    `json:"token,omitempty"`
	Code       string    `json:"code,omitempty"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
