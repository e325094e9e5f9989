package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/fluxo/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DelayQueue implements ports.DelayScheduler as a sorted set scored by the
// wake-up time in milliseconds.
type DelayQueue struct {
	client *backend.Client
	opts   options
}

// NewDelayQueue creates a delay queue from an existing client.
func NewDelayQueue(client *backend.Client, opts ...Option) *DelayQueue {
	return &DelayQueue{client: client, opts: newOptions(opts)}
}

func (q *DelayQueue) key() string {
	return q.opts.prefix + "delays"
}

// Schedule queues a wake-up at the given time.
func (q *DelayQueue) Schedule(ctx context.Context, w ports.Wakeup, at time.Time) error {
	member, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal wakeup: %w", err)
	}
	err = q.client.ZAdd(ctx, q.key(), backend.Z{
		Score:  float64(at.UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to schedule wakeup: %w", err)
	}
	return nil
}

// Due removes and returns the wake-ups due at now, earliest first.
// The read and the removal run in one MULTI so concurrent pollers never
// receive the same wake-up. Unreadable members are dropped and reported in
// the error alongside the wake-ups that did decode.
func (q *DelayQueue) Due(ctx context.Context, now time.Time) ([]ports.Wakeup, error) {
	maxScore := strconv.FormatInt(now.UnixMilli(), 10)

	var zr *backend.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		zr = pipe.ZRangeByScore(ctx, q.key(), &backend.ZRangeBy{Min: "-inf", Max: maxScore})
		pipe.ZRemRangeByScore(ctx, q.key(), "-inf", maxScore)
		return nil
	})
	if err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("failed to pop due wakeups: %w", err)
	}

	members, err := zr.Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop due wakeups: %w", err)
	}

	out := make([]ports.Wakeup, 0, len(members))
	var errs []error
	for _, m := range members {
		var w ports.Wakeup
		if err := json.Unmarshal([]byte(m), &w); err != nil {
			errs = append(errs, fmt.Errorf("failed to unmarshal wakeup %q: %w", m, err))
			continue
		}
		out = append(out, w)
	}
	return out, errors.Join(errs...)
}

// Len returns the number of pending wake-ups.
func (q *DelayQueue) Len(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.key()).Result()
}
