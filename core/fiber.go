package core

import (
	"runtime"
	"runtime/debug"
)

// fiber is the goroutine backing one task, or the bootstrap context when
// index is NoTask. Exactly one fiber owns the processor at any time; all the
// others are parked on their resume channel.
type fiber struct {
	index   TaskHandle
	resume  chan struct{}
	started bool
}

func newFiber(index TaskHandle) *fiber {
	return &fiber{index: index, resume: make(chan struct{}, 1)}
}

// runFiber is the first dispatch of a task: it calls the entry with the
// argument recorded at creation.
func (k *Kernel) runFiber(f *fiber) {
	defer k.wg.Done()

	k.mu.Lock()
	tcb := &k.tasks[f.index]
	entry, arg, name := tcb.entry, tcb.arg, tcb.name
	k.mu.Unlock()

	ctx := withTaskScope(k.ctx, k, f)

	defer func() {
		if r := recover(); r != nil {
			k.panicHandler.HandlePanic(ctx, name, f.index, r, debug.Stack())
			k.mu.Lock()
			k.fatalLocked(f.index, ErrTaskPanicked)
			k.mu.Unlock()
			<-k.ctx.Done()
		}
	}()

	entry(ctx, arg)

	// Returning from a task body is undefined; hold the processor until shutdown.
	k.mu.Lock()
	k.fatalLocked(f.index, ErrTaskReturned)
	k.mu.Unlock()
	<-k.ctx.Done()
}

// park blocks f until it is dispatched again. A task fiber parked at shutdown
// exits its goroutine; the bootstrap fiber just returns.
func (k *Kernel) park(f *fiber) {
	select {
	case <-f.resume:
	case <-k.ctx.Done():
		k.exit(f)
	}
}

func (k *Kernel) exit(f *fiber) {
	if f.index != NoTask {
		runtime.Goexit()
	}
}

// haltFiber parks f for good once the kernel has halted.
func (k *Kernel) haltFiber(f *fiber) {
	<-k.ctx.Done()
	k.exit(f)
}
