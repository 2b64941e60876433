package core

import (
	"context"
	"fmt"
)

// TaskFunc is the body of a kernel task. It receives the task context and the
// opaque argument given at creation, and is expected to loop forever, giving up
// the processor through Delay (or Preempt / WaitForInterrupt).
type TaskFunc func(ctx context.Context, arg any)

// TaskHandle identifies a created task. It is the task's slot in the registry.
type TaskHandle int

// NoTask is the handle sentinel used before the scheduler has picked anything.
const NoTask TaskHandle = -1

// =============================================================================
// TaskStatus: scheduling state of a task
// =============================================================================

type TaskStatus int

const (
	// TaskReady: eligible to be selected
	TaskReady TaskStatus = iota

	// TaskRunning: owns the processor (at most one task at a time)
	TaskRunning

	// TaskWaiting: blocked until its delay runs out
	TaskWaiting
)

func (s TaskStatus) String() string {
	switch s {
	case TaskReady:
		return "READY"
	case TaskRunning:
		return "RUNNING"
	case TaskWaiting:
		return "WAITING"
	default:
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
}

// eligible reports whether the scheduler may pick a task in this state.
func (s TaskStatus) eligible() bool {
	return s == TaskReady || s == TaskRunning
}

// taskControlBlock is the per-task record owned by the registry arena.
type taskControlBlock struct {
	name     string
	entry    TaskFunc
	arg      any
	stack    Stack
	savedSP  int // meaningless while RUNNING
	status   TaskStatus
	priority uint32
	delay    uint32 // meaningful only while WAITING
}

// =============================================================================
// Context Helper
// =============================================================================

type fiberKeyType struct{}

var fiberKey fiberKeyType

type taskScope struct {
	kernel *Kernel
	fiber  *fiber
}

func withTaskScope(ctx context.Context, k *Kernel, f *fiber) context.Context {
	return context.WithValue(ctx, fiberKey, taskScope{kernel: k, fiber: f})
}

func scopeFrom(ctx context.Context) (taskScope, bool) {
	if v := ctx.Value(fiberKey); v != nil {
		return v.(taskScope), true
	}
	return taskScope{}, false
}

// CurrentKernel returns the kernel running the task that owns ctx, or nil when
// ctx does not belong to a kernel task.
func CurrentKernel(ctx context.Context) *Kernel {
	if s, ok := scopeFrom(ctx); ok {
		return s.kernel
	}
	return nil
}

// CurrentTask returns the handle of the task that owns ctx, or NoTask.
func CurrentTask(ctx context.Context) TaskHandle {
	if s, ok := scopeFrom(ctx); ok {
		return TaskHandle(s.fiber.index)
	}
	return NoTask
}

// Delay suspends the calling task for at least ticks tick periods.
// It must be called from a task body.
func Delay(ctx context.Context, ticks uint32) {
	mustKernel(ctx).Delay(ctx, ticks)
}

// Preempt honours a switch requested by the tick while the calling task was running.
func Preempt(ctx context.Context) {
	mustKernel(ctx).Preempt(ctx)
}

// WaitForInterrupt parks the calling task until the kernel requests a switch.
func WaitForInterrupt(ctx context.Context) {
	mustKernel(ctx).WaitForInterrupt(ctx)
}

func mustKernel(ctx context.Context) *Kernel {
	k := CurrentKernel(ctx)
	if k == nil {
		panic(ErrNotTaskContext)
	}
	return k
}
