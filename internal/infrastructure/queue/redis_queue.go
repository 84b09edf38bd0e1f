package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
)

const (
	keyPending    = "tasks:pending"
	keyProcessing = "tasks:processing"
	keyDead       = "tasks:dead"
)

// RedisQueue is a reliable list queue: tasks enter on the left of pending,
// are moved atomically to processing when reserved and are removed from
// processing only once handled.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task domain.Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := q.client.LPush(ctx, keyPending, raw).Err(); err != nil {
		return unavailable("enqueue task", err)
	}
	return nil
}

func (q *RedisQueue) Reserve(ctx context.Context, timeout time.Duration) (*ports.Delivery, error) {
	raw, err := q.client.BLMove(ctx, keyPending, keyProcessing, "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("reserve task", err)
	}

	var task domain.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		// undecodable payloads can never succeed
		_ = q.deadLetter(ctx, raw, raw)
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &ports.Delivery{Task: task, Raw: raw}, nil
}

func (q *RedisQueue) Ack(ctx context.Context, d *ports.Delivery) error {
	if err := q.client.LRem(ctx, keyProcessing, 1, d.Raw).Err(); err != nil {
		return unavailable("ack task", err)
	}
	return nil
}

func (q *RedisQueue) Retry(ctx context.Context, d *ports.Delivery, maxAttempts int) (bool, error) {
	task := d.Task
	task.Attempts++

	raw, err := json.Marshal(task)
	if err != nil {
		return false, fmt.Errorf("encode task: %w", err)
	}

	if task.Attempts >= maxAttempts {
		return true, q.deadLetter(ctx, d.Raw, string(raw))
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, keyProcessing, 1, d.Raw)
		pipe.LPush(ctx, keyPending, raw)
		return nil
	})
	if err != nil {
		return false, unavailable("retry task", err)
	}
	return false, nil
}

func (q *RedisQueue) deadLetter(ctx context.Context, reserved, payload string) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, keyProcessing, 1, reserved)
		pipe.LPush(ctx, keyDead, payload)
		return nil
	})
	if err != nil {
		return unavailable("dead-letter task", err)
	}
	return nil
}

// Recover moves everything left in processing back to pending. It must run
// before any worker of this deployment starts reserving.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, keyProcessing, keyPending, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, unavailable("recover tasks", err)
		}
		moved++
	}
}

func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, keyPending).Result()
	if err != nil {
		return 0, unavailable("queue depth", err)
	}
	return n, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}
