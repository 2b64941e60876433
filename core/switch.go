package core

import (
	"fmt"
	"time"
)

// Origin tells which call path asked for a context switch.
type Origin int

const (
	// OriginYield: the running task called Delay
	OriginYield Origin = iota

	// OriginTimer: the tick handler
	OriginTimer
)

func (o Origin) String() string {
	switch o {
	case OriginYield:
		return "yield"
	case OriginTimer:
		return "timer"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Stack-depth corrections applied to the sampled stack pointer when a context
// is saved. The two trigger paths reach the save point at different call
// depths; these land both on the same frame boundary. Measured for the
// SimulatedCPU, whose depths match the Cortex-M4 build.
const (
	YieldSaveCorrection = -10
	TimerSaveCorrection = +11
)

func (o Origin) saveCorrection() int {
	if o == OriginTimer {
		return TimerSaveCorrection
	}
	return YieldSaveCorrection
}

// switchContextLocked moves the RUNNING mark from current to next and pends the
// deferred switch. The live context of current is saved first, except on the
// very first switch and while a previous request is still pending (the pending
// target never ran, so its saved frame is still the valid one).
func (k *Kernel) switchContextLocked(origin Origin) {
	from := k.current

	if !k.firstSwitchDone {
		k.firstSwitchDone = true
	} else if !k.pending && from != NoTask {
		cur := &k.tasks[from]
		sampled, err := k.port.SaveContext(&cur.stack, origin)
		if err != nil {
			k.fatalLocked(from, err)
			return
		}
		cur.savedSP = sampled + origin.saveCorrection()
	}

	if from != NoTask && k.tasks[from].status == TaskRunning {
		k.tasks[from].status = TaskReady
	}

	k.current = k.next
	k.tasks[k.current].status = TaskRunning
	k.requestSwitchLocked()

	k.history.Add(SwitchRecord{
		Clock:  k.clock,
		From:   from,
		To:     k.current,
		Origin: origin,
		At:     time.Now(),
	})
	k.metrics.RecordContextSwitch(origin, from, k.current)
	k.logger.Debug("context switch requested",
		F("from", from), F("to", k.current), F("origin", origin), F("clock", k.clock))
}

// requestSwitchLocked pends the deferred switch. Requests made before the
// switch completes collapse into one.
func (k *Kernel) requestSwitchLocked() {
	k.switchRequests++
	k.pending = true
	select {
	case k.pendSV <- struct{}{}:
	default:
	}
}

// completePendingSwitch performs the pending transfer, if any, on behalf of f,
// the fiber that currently owns the processor. It restores the current task's
// frame, hands the processor to that task's fiber and parks f until it is
// dispatched again.
func (k *Kernel) completePendingSwitch(f *fiber) {
	k.mu.Lock()
	if !k.pending || k.halted != nil {
		k.mu.Unlock()
		return
	}
	k.pending = false
	select {
	case <-k.pendSV:
	default:
	}

	idx := k.current
	tcb := &k.tasks[idx]
	frame, err := k.port.RestoreContext(&tcb.stack, tcb.savedSP)
	if err != nil {
		k.fatalLocked(idx, err)
		k.mu.Unlock()
		return
	}

	target := k.fibers[idx]
	start := false
	switch {
	case !target.started && frame.PC == entryAddress(tcb.entry):
		target.started = true
		start = true
	case target.started && frame.PC == resumeAddress():
	default:
		k.fatalLocked(idx, fmt.Errorf("%w: unexpected pc %#x for task %d", ErrCorruptFrame, frame.PC, idx))
		k.mu.Unlock()
		return
	}
	k.switchesCompleted++
	k.mu.Unlock()

	if target == f {
		return
	}
	if start {
		k.wg.Add(1)
		go k.runFiber(target)
	} else {
		target.resume <- struct{}{}
	}
	k.park(f)
}
