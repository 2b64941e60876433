package core

import (
	"context"
	"sync"
	"time"
)

// TickPeriod is the period of the kernel tick, fixed at build time.
const TickPeriod = time.Millisecond

// TickSource is the periodic interrupt that drives the kernel.
type TickSource interface {
	// Start begins calling handler once per period. An error is an
	// unrecoverable startup failure.
	Start(handler func()) error

	// Stop stops the ticks. It is safe to call more than once.
	Stop()
}

// =============================================================================
// TickerSource: wall-clock ticks
// =============================================================================

// TickerSource delivers ticks from a time.Ticker on its own goroutine, the
// hosted stand-in for a timer interrupt.
type TickerSource struct {
	period time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewTickerSource creates a TickerSource with the given period.
func NewTickerSource(period time.Duration) *TickerSource {
	return &TickerSource{period: period}
}

// Start launches the tick goroutine.
func (s *TickerSource) Start(handler func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.period <= 0 {
		return ErrTickSource
	}
	if s.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				handler()
			}
		}
	}()
	return nil
}

// Stop stops the tick goroutine and waits for it to finish.
func (s *TickerSource) Stop() {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// =============================================================================
// ManualTickSource: ticks on demand
// =============================================================================

// ManualTickSource delivers a tick each time Tick is called. The handler runs
// on the caller's goroutine, so the scheduling decision of a tick is complete
// when Tick returns.
type ManualTickSource struct {
	mu      sync.Mutex
	handler func()
	err     error
}

// NewManualTickSource creates a ManualTickSource.
func NewManualTickSource() *ManualTickSource {
	return &ManualTickSource{}
}

// NewFailingTickSource creates a ManualTickSource whose Start fails with err.
func NewFailingTickSource(err error) *ManualTickSource {
	return &ManualTickSource{err: err}
}

func (s *ManualTickSource) Start(handler func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.handler = handler
	return nil
}

func (s *ManualTickSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
}

// Tick delivers one tick. It is a no-op before Start or after Stop.
func (s *ManualTickSource) Tick() {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler != nil {
		handler()
	}
}

// Advance delivers n ticks.
func (s *ManualTickSource) Advance(n int) {
	for range n {
		s.Tick()
	}
}

// =============================================================================
// Tick handler
// =============================================================================

// tick is the periodic handler: advance the clock, release expired delays,
// then schedule.
func (k *Kernel) tick() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.halted != nil {
		return
	}
	k.clock++
	k.metrics.RecordTick(k.clock)
	k.activateWaitingTasksLocked()
	k.scheduleLocked(OriginTimer)
}

// activateWaitingTasksLocked counts down the delay of every WAITING task and
// makes it READY when the delay runs out.
//
// The scan stops before the last created task, so that task's delay never
// counts down. The bound is kept as-is; see TestTick_LastCreatedTaskIsNotCounted.
//
// A task created WAITING has no delay; its counter wraps on the first tick and
// it stays dormant for a full turn of the counter.
func (k *Kernel) activateWaitingTasksLocked() {
	for i := 0; i < k.created-1; i++ {
		t := &k.tasks[i]
		if t.status != TaskWaiting {
			continue
		}
		t.delay--
		if t.delay == 0 {
			t.status = TaskReady
		}
	}
}
