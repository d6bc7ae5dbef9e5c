// Package scheduler drives the periodic capture tick on the main execution
// context.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/replaykit/replaykit/internal/executor"
	"github.com/replaykit/replaykit/internal/lifecycle"
	"github.com/replaykit/replaykit/internal/telemetry"
)

// DefaultTickInterval is the capture interval when none is configured.
const DefaultTickInterval = 100 * time.Millisecond

// Scheduler fires a tick callback at a fixed interval by submitting it to the
// main queue. Ticks never overlap: if the previous tick is still running when
// the next boundary arrives, the boundary is skipped rather than queued, so a
// slow main context can never build an unbounded tick backlog. Ticking
// suspends while the host application is backgrounded. This is a best-effort
// timer; missed ticks are dropped, never reported.
type Scheduler struct {
	interval time.Duration
	main     *executor.Serial
	states   *lifecycle.Observer
	tick     func(now time.Time)
	log      telemetry.Logger
	stats    *telemetry.PipelineStats

	inFlight atomic.Bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a scheduler. The tick callback runs on the main queue.
func New(interval time.Duration, main *executor.Serial, states *lifecycle.Observer, tick func(now time.Time), log telemetry.Logger, stats *telemetry.PipelineStats) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{
		interval: interval,
		main:     main,
		states:   states,
		tick:     tick,
		log:      log,
		stats:    stats,
	}
}

// Start begins firing ticks. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.stopCh)
}

// Stop halts ticking. Queued tick work already on the main queue still runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) run(stopCh chan struct{}) {
	defer s.wg.Done()

	stateCh := s.states.Subscribe("scheduler")
	defer s.states.Unsubscribe("scheduler")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	suspended := s.states.Current() == lifecycle.StateBackground

	for {
		select {
		case <-stopCh:
			return
		case state := <-stateCh:
			suspended = state == lifecycle.StateBackground
			if suspended {
				s.log.Debugf("scheduler: suspended while app is backgrounded")
			} else {
				s.log.Debugf("scheduler: resumed")
			}
		case <-ticker.C:
			if suspended {
				continue
			}
			s.fire(time.Now())
		}
	}
}

// fire submits one tick to the main queue unless the previous tick is still
// in flight.
func (s *Scheduler) fire(now time.Time) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.stats.TickSkipped()
		return
	}
	ok := s.main.Submit(func() {
		defer s.inFlight.Store(false)
		s.tick(now)
	})
	if !ok {
		s.inFlight.Store(false)
		return
	}
	s.stats.TickFired()
}
