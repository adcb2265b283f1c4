package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/store"
)

// Clock abstracts wall-clock time so tests can drive the scheduler without
// waiting on real timers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Scheduler runs the two retention timers: a full store wipe at a fixed
// local wall-clock hour daily, and a coarser periodic sweep that prunes
// stale dedupe keys without touching the alerts themselves.
type Scheduler struct {
	store      *store.Store
	logger     *logging.Logger
	clock      Clock
	resetHour  int
	pruneEvery time.Duration
	staleAfter time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func New(s *store.Store, logger *logging.Logger, resetHour int, pruneEvery, staleAfter time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:      s,
		logger:     logger,
		clock:      realClock{},
		resetHour:  resetHour,
		pruneEvery: pruneEvery,
		staleAfter: staleAfter,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetClock overrides the time source. Used in tests.
func (s *Scheduler) SetClock(c Clock) {
	s.clock = c
}

// Start launches both timer goroutines.
func (s *Scheduler) Start(wg *sync.WaitGroup) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.runDailyWipe()
	}()
	go func() {
		defer wg.Done()
		s.runPruner()
	}()
}

// Stop cancels both timers.
func (s *Scheduler) Stop() {
	s.cancel()
}

func (s *Scheduler) runDailyWipe() {
	for {
		wait := untilNextReset(s.clock.Now(), s.resetHour)
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Daily wipe timer stopped")
			return
		case <-s.clock.After(wait):
			s.safely("daily wipe", func() {
				s.store.Wipe()
				s.logger.Infof("Daily retention wipe complete")
			})
		}
	}
}

func (s *Scheduler) runPruner() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Dedupe pruner stopped")
			return
		case <-s.clock.After(s.pruneEvery):
			s.safely("dedupe prune", func() {
				n := s.store.PruneDedupeKeys(s.staleAfter)
				if n > 0 {
					s.logger.Infof("Pruned %d stale dedupe keys", n)
				}
			})
		}
	}
}

// safely keeps a panicking callback from killing the timer loop.
func (s *Scheduler) safely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Scheduler %s panicked: %v", name, r)
		}
	}()
	fn()
}

// untilNextReset computes the wait until the next occurrence of hour:00:00
// in local time. A now exactly on the boundary waits a full day.
func untilNextReset(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
