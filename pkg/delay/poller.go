// Package delay runs parked executions again once their delay block expires.
package delay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/fluxo/internal/logging"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultInterval is how often the poller asks its source for due wake-ups.
	DefaultInterval = time.Second
	// DefaultMaxAttempts bounds how often a failing wake-up is resumed.
	DefaultMaxAttempts = 5
	// DefaultRetryDelay is the wait before the first retry of a failed wake-up.
	DefaultRetryDelay = 5 * time.Second
)

// Source hands out due wake-ups exactly once and takes failed ones back.
// Both the memory scheduler and the Redis delay queue implement it.
type Source interface {
	ports.DelayScheduler
	Due(ctx context.Context, now time.Time) ([]ports.Wakeup, error)
}

// ResumeFunc resumes a parked execution.
type ResumeFunc func(ctx context.Context, w ports.Wakeup) error

// Poller periodically drains a Source and resumes every due wake-up.
type Poller struct {
	source   Source
	resume   ResumeFunc
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	maxAttempts int
	retryDelay  time.Duration

	mu      sync.Mutex
	running bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithClock overrides the clock used to decide what is due.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

// WithRetry sets how many times a wake-up is resumed before it is dropped,
// and the delay before its first retry. Later retries back off exponentially.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(p *Poller) {
		if maxAttempts > 0 {
			p.maxAttempts = maxAttempts
		}
		if delay > 0 {
			p.retryDelay = delay
		}
	}
}

// NewPoller creates a poller.
func NewPoller(source Source, resume ResumeFunc, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		resume:   resume,
		interval: DefaultInterval,
		logger:   logging.NewNop(),
		now:      time.Now,

		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.setRunning(true)
	defer p.setRunning(false)
	p.logger.Info("delay poller started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("delay poller stopped")
			return
		case <-ticker.C:
			if _, err := p.Tick(ctx); err != nil {
				p.logger.Error("delay poll failed", "err", err)
			}
		}
	}
}

// Tick resumes every wake-up due now and returns how many were handled.
// A failed wake-up goes back to the source with a backoff until it runs out
// of attempts. Wake-ups the source did return are handled even when it also
// reports an error.
func (p *Poller) Tick(ctx context.Context) (int, error) {
	now := p.now()
	due, err := p.source.Due(ctx, now)
	for _, w := range due {
		p.handle(ctx, w, now)
	}
	return len(due), err
}

func (p *Poller) handle(ctx context.Context, w ports.Wakeup, now time.Time) {
	err := p.resume(ctx, w)
	if err == nil {
		return
	}
	log := p.logger.With(
		"execution_id", w.ExecutionID,
		"tenant_id", w.TenantID,
		"block_id", w.BlockID,
		"attempt", w.Attempt+1,
	)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrBlockConfiguration) {
		log.Error("resume failed, dropping wake-up", "err", err)
		return
	}

	w.Attempt++
	if w.Attempt >= p.maxAttempts {
		log.Error("resume failed, out of attempts", "err", err)
		return
	}
	at := now.Add(p.retryIn(w.Attempt))
	if serr := p.source.Schedule(ctx, w, at); serr != nil {
		log.Error("resume failed, could not reschedule", "err", err, "schedule_err", serr)
		return
	}
	log.Warn("resume failed, retrying", "err", err, "retry_at", at)
}

// retryIn is the wait before the given attempt.
func (p *Poller) retryIn(attempt int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.retryDelay
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	d := bo.NextBackOff()
	for i := 1; i < attempt; i++ {
		d = bo.NextBackOff()
	}
	return d
}

// IsRunning reports whether Run is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) setRunning(v bool) {
	p.mu.Lock()
	p.running = v
	p.mu.Unlock()
}
