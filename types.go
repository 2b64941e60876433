package minirtos

import (
	"context"

	"github.com/Swind/go-minirtos/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the minirtos package for most use cases.

// TaskFunc is the body of a task
type TaskFunc = core.TaskFunc

// TaskHandle identifies a created task
type TaskHandle = core.TaskHandle

// TaskOptions describes a task to create
type TaskOptions = core.TaskOptions

// TaskStatus is the scheduling state of a task
type TaskStatus = core.TaskStatus

// Kernel multiplexes tasks onto one processor
type Kernel = core.Kernel

// KernelConfig holds the collaborators of a Kernel
type KernelConfig = core.KernelConfig

// KernelStats and TaskStats are observability snapshots
type (
	KernelStats = core.KernelStats
	TaskStats   = core.TaskStats
)

// Logger, Field and Metrics are the ambient interfaces of the kernel
type (
	Logger  = core.Logger
	Field   = core.Field
	Metrics = core.Metrics
)

// ManualTickSource delivers ticks on demand
type ManualTickSource = core.ManualTickSource

// Status constants
const (
	TaskReady   TaskStatus = core.TaskReady
	TaskRunning TaskStatus = core.TaskRunning
	TaskWaiting TaskStatus = core.TaskWaiting
)

// Geometry constants
const (
	MaxTasks   = core.MaxTasks
	TickPeriod = core.TickPeriod
	NoTask     = core.NoTask
)

// Errors
var (
	ErrCapacityExceeded = core.ErrCapacityExceeded
	ErrAlreadyStarted   = core.ErrAlreadyStarted
)

// Constructors
var (
	NewKernel           = core.NewKernel
	NewKernelWithConfig = core.NewKernelWithConfig
	DefaultKernelConfig = core.DefaultKernelConfig
	NewManualTickSource = core.NewManualTickSource
	NewDefaultLogger    = core.NewDefaultLogger
	NewNoOpLogger       = core.NewNoOpLogger
	F                   = core.F
)

// Delay suspends the calling task for at least ticks tick periods.
func Delay(ctx context.Context, ticks uint32) {
	core.Delay(ctx, ticks)
}

// Preempt honours a switch chosen by the tick while the calling task was running.
func Preempt(ctx context.Context) {
	core.Preempt(ctx)
}
