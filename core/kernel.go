package core

import (
	"context"
	"errors"
	"sync"
)

// Kernel multiplexes a fixed set of tasks onto one processor. A periodic tick
// drives priority scheduling; the actual transfer of the processor is
// deferred to a pending switch completed at the next safe point.
//
// All registry state is guarded by mu, which plays the part of masking
// interrupts: the tick handler and every task-side entry point take it.
type Kernel struct {
	mu sync.Mutex

	// Registry
	tasks   [Capacity]taskControlBlock
	fibers  [Capacity]*fiber
	created int
	current TaskHandle
	next    TaskHandle
	clock   uint32

	// Context-switch engine
	firstSwitchDone   bool
	pending           bool
	pendSV            chan struct{}
	switchRequests    uint64
	switchesCompleted uint64
	history           switchHistory

	// Collaborators
	port         ContextPort
	ticks        TickSource
	logger       Logger
	metrics      Metrics
	panicHandler PanicHandler
	idleHook     func()

	// Lifecycle
	started bool
	halted  *FatalError
	idle    TaskHandle
	boot    *fiber
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped sync.Once
}

// NewKernel creates a kernel with the default configuration.
func NewKernel() *Kernel {
	return NewKernelWithConfig(DefaultKernelConfig())
}

// NewKernelWithConfig creates a kernel with the given collaborators.
func NewKernelWithConfig(config *KernelConfig) *Kernel {
	ctx, cancel := context.WithCancel(context.Background())
	k := &Kernel{
		current: NoTask,
		next:    NoTask,
		idle:    NoTask,
		pendSV:  make(chan struct{}, 1),
		boot:    newFiber(NoTask),
		ctx:     ctx,
		cancel:  cancel,
	}

	historySize := 0

	// Apply config
	if config != nil {
		k.port = config.Port
		k.ticks = config.TickSource
		k.logger = config.Logger
		k.metrics = config.Metrics
		k.panicHandler = config.PanicHandler
		k.idleHook = config.IdleHook
		historySize = config.SwitchHistory
	}

	// Use defaults if not provided
	if k.port == nil {
		k.port = NewSimulatedCPU()
	}
	if k.ticks == nil {
		k.ticks = NewTickerSource(TickPeriod)
	}
	if k.logger == nil {
		k.logger = NewDefaultLogger()
	}
	if k.metrics == nil {
		k.metrics = &NilMetrics{}
	}
	if k.panicHandler == nil {
		k.panicHandler = &DefaultPanicHandler{}
	}
	k.history = newSwitchHistory(historySize)

	return k
}

// StartScheduler creates the idle task, resets the clock and starts the tick
// source. The first tick makes the first scheduling decision.
//
// If the tick source cannot start, the kernel halts for good: the failure is
// logged and nothing will ever be scheduled.
func (k *Kernel) StartScheduler() error {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return ErrAlreadyStarted
	}
	k.started = true
	k.clock = 0

	idle, err := k.createTaskLocked(k.idleTask, TaskOptions{
		Name:      "idle",
		Priority:  IdlePriority,
		Autostart: true,
	}, Capacity)
	if err != nil {
		k.fatalLocked(NoTask, err)
		k.mu.Unlock()
		return nil
	}
	k.idle = idle
	k.mu.Unlock()

	k.wg.Add(1)
	go k.bootstrap()

	if err := k.ticks.Start(k.tick); err != nil {
		k.mu.Lock()
		k.fatalLocked(NoTask, errors.Join(ErrTickSource, err))
		k.mu.Unlock()
	}
	return nil
}

// bootstrap is the context the scheduler starts from. It waits for the first
// switch request, hands the processor to the chosen task and never runs again.
func (k *Kernel) bootstrap() {
	defer k.wg.Done()
	for k.ctx.Err() == nil {
		k.waitForInterrupt(k.boot)
	}
}

func (k *Kernel) idleTask(ctx context.Context, _ any) {
	for {
		if k.idleHook != nil {
			k.idleHook()
		}
		k.WaitForInterrupt(ctx)
	}
}

// Shutdown stops the ticks and releases every fiber. The running task leaves
// at its next call into the kernel; Shutdown waits for it.
func (k *Kernel) Shutdown() {
	k.stopped.Do(func() {
		k.ticks.Stop()
		k.cancel()
		k.wg.Wait()
	})
}

// fatalLocked halts the kernel: ticks are ignored and no switch completes
// from now on.
func (k *Kernel) fatalLocked(task TaskHandle, err error) {
	if k.halted != nil {
		return
	}
	k.halted = &FatalError{Clock: k.clock, Task: task, Err: err}
	k.logger.Error("kernel halted", F("task", task), F("clock", k.clock), F("error", err))
}

// Halted reports whether an unrecoverable condition stopped the kernel.
func (k *Kernel) Halted() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.halted != nil
}

// Err returns the *FatalError that halted the kernel, or nil.
func (k *Kernel) Err() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.halted == nil {
		return nil
	}
	return k.halted
}

// Clock returns the global tick counter.
func (k *Kernel) Clock() uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.clock
}

// Current returns the task holding the RUNNING mark, or NoTask before the
// first scheduling decision.
func (k *Kernel) Current() TaskHandle {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current
}

// IdleTask returns the handle of the idle task, or NoTask before StartScheduler.
func (k *Kernel) IdleTask() TaskHandle {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.idle
}

// Stats returns a consistent snapshot of the registry.
func (k *Kernel) Stats() KernelStats {
	k.mu.Lock()
	defer k.mu.Unlock()

	stats := KernelStats{
		Clock:             k.clock,
		Created:           k.created,
		Capacity:          Capacity,
		Current:           k.current,
		Next:              k.next,
		Started:           k.started,
		Halted:            k.halted != nil,
		SwitchPending:     k.pending,
		SwitchRequests:    k.switchRequests,
		SwitchesCompleted: k.switchesCompleted,
		Tasks:             make([]TaskStats, k.created),
	}
	for i := 0; i < k.created; i++ {
		t := &k.tasks[i]
		stats.Tasks[i] = TaskStats{
			Handle:   TaskHandle(i),
			Name:     t.name,
			Status:   t.status,
			Priority: t.priority,
			Delay:    t.delay,
			SavedSP:  t.savedSP,
		}
	}
	return stats
}

// RecentSwitches returns up to limit switch decisions, newest first.
func (k *Kernel) RecentSwitches(limit int) []SwitchRecord {
	return k.history.Recent(limit)
}

// LastSwitch returns the most recent switch decision.
func (k *Kernel) LastSwitch() (SwitchRecord, bool) {
	return k.history.Last()
}
