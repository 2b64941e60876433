package core

import "context"

// Delay marks the calling task WAITING for ticks tick periods and gives up the
// processor. It returns once the task has been selected and restored again,
// at least ticks periods later. A zero delay waits for the next tick.
//
// Delay must be called by the running task about itself.
func (k *Kernel) Delay(ctx context.Context, ticks uint32) {
	f := k.fiberFrom(ctx)
	if ticks == 0 {
		ticks = 1
	}

	if !k.lockAsRunning(f) {
		return
	}
	k.delayCurrentLocked(ticks)
	k.mu.Unlock()

	k.completePendingSwitch(f)
	k.afterResume(f)
}

// delayCurrentLocked is the decision half of Delay.
func (k *Kernel) delayCurrentLocked(ticks uint32) {
	t := &k.tasks[k.current]
	t.status = TaskWaiting
	t.delay = ticks
	k.scheduleLocked(OriginYield)
}

// Preempt is a safe point: if a tick picked another task while the caller was
// running, the switch happens here. Otherwise it returns at once.
func (k *Kernel) Preempt(ctx context.Context) {
	f := k.fiberFrom(ctx)
	k.completePendingSwitch(f)
	k.afterResume(f)
}

// WaitForInterrupt parks the caller until a switch is requested, then
// performs it. The idle task spends its life here.
func (k *Kernel) WaitForInterrupt(ctx context.Context) {
	f := k.fiberFrom(ctx)
	k.waitForInterrupt(f)
	k.afterResume(f)
}

func (k *Kernel) waitForInterrupt(f *fiber) {
	select {
	case <-k.pendSV:
	case <-k.ctx.Done():
		k.exit(f)
		return
	}
	k.completePendingSwitch(f)
}

// lockAsRunning takes the kernel lock once no switch is pending, so that the
// caller is the current task. Decisions made by ticks while the caller kept
// running are honoured first. It reports false, without the lock, when the
// kernel is shutting down.
func (k *Kernel) lockAsRunning(f *fiber) bool {
	for {
		k.afterResume(f)
		if k.ctx.Err() != nil {
			return false
		}
		k.mu.Lock()
		if !k.pending {
			return true
		}
		k.mu.Unlock()
		k.completePendingSwitch(f)
	}
}

// afterResume stops the caller for good once the kernel is halted or stopping.
func (k *Kernel) afterResume(f *fiber) {
	k.mu.Lock()
	halted := k.halted != nil
	k.mu.Unlock()

	if halted {
		k.haltFiber(f)
		return
	}
	if k.ctx.Err() != nil {
		k.exit(f)
	}
}

func (k *Kernel) fiberFrom(ctx context.Context) *fiber {
	s, ok := scopeFrom(ctx)
	if !ok || s.kernel != k {
		panic(ErrNotTaskContext)
	}
	return s.fiber
}
