package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
	"github.com/ballotcore/election-system/internal/pkg/metrics"
)

const (
	defaultWorkers     = 4
	defaultMaxAttempts = 8
	pollTimeout        = 2 * time.Second
	errorBackoff       = time.Second
	depthInterval      = 15 * time.Second

	// Retry delays double per attempt from retryBase up to retryMax.
	retryBase = 5 * time.Second
	retryMax  = 5 * time.Minute
)

// Dispatcher runs a fixed set of workers that reserve tasks from the queue and
// hand them to the handler. A task is acknowledged only after the handler
// succeeds, so delivery is at-least-once. A failed task is held by its worker
// for a growing delay before it goes back to pending, so a short outage of
// the mail relay does not burn through every attempt.
type Dispatcher struct {
	queue       ports.TaskQueue
	handler     ports.TaskHandler
	workers     int
	maxAttempts int
	retryBase   time.Duration
	retryMax    time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(queue ports.TaskQueue, handler ports.TaskHandler, numWorkers, maxAttempts int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Dispatcher{
		queue:       queue,
		handler:     handler,
		workers:     numWorkers,
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
		retryMax:    retryMax,
		log:         log,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(ctx, i)
	}
	d.wg.Add(1)
	go d.sampleDepth(ctx)
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}

		delivery, err := d.queue.Reserve(ctx, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Error().Err(err).Int("worker_id", id).Msg("task reservation failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}
		if delivery == nil {
			continue
		}

		d.process(ctx, id, delivery)
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, delivery *ports.Delivery) {
	task := delivery.Task
	kind := string(task.Kind)

	err := d.handler.Handle(ctx, task)
	if err == nil {
		if ackErr := d.queue.Ack(ctx, delivery); ackErr != nil {
			d.log.Error().Err(ackErr).Str("task_id", task.ID).Msg("task ack failed")
		}
		metrics.TasksTotal.WithLabelValues(kind, "done").Inc()
		return
	}

	maxAttempts := d.maxAttempts
	if errors.Is(err, domain.ErrInvalidInput) {
		// retrying a malformed task cannot help
		maxAttempts = 0
	} else if task.Attempts+1 < maxAttempts {
		// Cancelled while waiting: the task stays in processing and is
		// requeued by Recover on the next start.
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.backoff(task.Attempts)):
		}
	}

	dead, retryErr := d.queue.Retry(ctx, delivery, maxAttempts)
	if retryErr != nil {
		d.log.Error().Err(retryErr).Str("task_id", task.ID).Msg("task requeue failed")
		return
	}

	result := "retried"
	if dead {
		result = "dead"
	}
	metrics.TasksTotal.WithLabelValues(kind, result).Inc()
	d.log.Error().Err(err).
		Str("task_id", task.ID).
		Str("kind", kind).
		Int("attempt", task.Attempts+1).
		Bool("dead_lettered", dead).
		Int("worker_id", id).
		Msg("task processing failed")
}

// backoff is the delay before a task that has failed attempts+1 times is
// requeued.
func (d *Dispatcher) backoff(attempts int) time.Duration {
	delay := d.retryBase
	for i := 0; i < attempts && delay < d.retryMax; i++ {
		delay *= 2
	}
	return min(delay, d.retryMax)
}

func (d *Dispatcher) sampleDepth(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(depthInterval)
	defer ticker.Stop()
	for {
		if n, err := d.queue.Depth(ctx); err == nil {
			metrics.TaskQueueDepth.Set(float64(n))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
