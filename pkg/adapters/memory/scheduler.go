package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/fluxo/pkg/ports"
)

type scheduled struct {
	wakeup ports.Wakeup
	at     time.Time
}

// Scheduler implements ports.DelayScheduler in memory.
// Due wake-ups are collected with Due; nothing fires on its own.
type Scheduler struct {
	mu      sync.Mutex
	pending []scheduled
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule queues a wake-up.
func (s *Scheduler) Schedule(ctx context.Context, w ports.Wakeup, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, scheduled{wakeup: w, at: at})
	return nil
}

// Due removes and returns the wake-ups due at now, earliest first.
func (s *Scheduler) Due(ctx context.Context, now time.Time) ([]ports.Wakeup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sort.SliceStable(s.pending, func(i, j int) bool { return s.pending[i].at.Before(s.pending[j].at) })
	var due []ports.Wakeup
	keep := s.pending[:0]
	for _, p := range s.pending {
		if !p.at.After(now) {
			due = append(due, p.wakeup)
		} else {
			keep = append(keep, p)
		}
	}
	s.pending = keep
	return due, nil
}

// Len returns the number of pending wake-ups.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
