package ports

import (
	"context"
	"time"

	"github.com/ballotcore/election-system/internal/core/domain"
)

// Delivery is a reserved task. Raw is the exact queued payload, used to
// acknowledge it.
type Delivery struct {
	Task domain.Task
	Raw  string
}

// TaskQueue is a durable at-least-once queue.
type TaskQueue interface {
	// Enqueue must not block on task execution.
	Enqueue(ctx context.Context, task domain.Task) error
	// Reserve waits up to timeout for a task. It returns nil, nil on timeout.
	Reserve(ctx context.Context, timeout time.Duration) (*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
	// Retry requeues the task, or dead-letters it once maxAttempts is reached.
	Retry(ctx context.Context, d *Delivery, maxAttempts int) (dead bool, err error)
	// Recover requeues tasks left reserved by a crashed worker.
	Recover(ctx context.Context) (int, error)
	Depth(ctx context.Context) (int64, error)
}

// TaskHandler executes one task. It must tolerate redelivery.
type TaskHandler interface {
	Handle(ctx context.Context, task domain.Task) error
}
