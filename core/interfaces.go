package core

import (
	"context"
	"fmt"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task body panics. The kernel halts afterwards;
// the handler only gets the chance to report.
type PanicHandler interface {
	// HandlePanic is called from the panicking task's fiber.
	//
	// Parameters:
	// - ctx: The task context
	// - taskName: The name given at creation (or derived from the entry)
	// - task: The handle of the task
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, taskName string, task TaskHandle, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, taskName string, task TaskHandle, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Task %d @ %s] Panic: %v\nStack trace:\n%s", task, taskName, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting kernel metrics.
//
// Methods are called with the kernel lock held; they must be non-blocking and fast.
type Metrics interface {
	// RecordTick records one tick of the global clock.
	RecordTick(clock uint32)

	// RecordContextSwitch records a switch decision and the path that triggered it.
	RecordContextSwitch(origin Origin, from, to TaskHandle)

	// RecordTaskCreated records a successful task creation.
	RecordTaskCreated(name string, priority uint32)

	// RecordTaskRejected records a rejected task creation.
	RecordTaskRejected(reason string)

	// RecordReadyTasks records how many tasks were eligible after a decision.
	RecordReadyTasks(count int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTick(clock uint32)                                {}
func (m *NilMetrics) RecordContextSwitch(origin Origin, from, to TaskHandle) {}
func (m *NilMetrics) RecordTaskCreated(name string, priority uint32)         {}
func (m *NilMetrics) RecordTaskRejected(reason string)                       {}
func (m *NilMetrics) RecordReadyTasks(count int)                             {}

// =============================================================================
// KernelConfig: Configuration for Kernel
// =============================================================================

// KernelConfig holds the collaborators of a Kernel.
// All fields are optional; if not provided, default implementations will be used.
// Geometry (task capacity, stack size, tick period) is fixed at build time and
// deliberately absent here.
type KernelConfig struct {
	// Logger is the debug/trace channel. Defaults to DefaultLogger.
	Logger Logger

	// Metrics records kernel metrics. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Port saves and restores register frames. Defaults to a SimulatedCPU.
	Port ContextPort

	// TickSource drives the tick handler. Defaults to a TickerSource at TickPeriod.
	TickSource TickSource

	// IdleHook runs each time the idle task wakes up.
	IdleHook func()

	// SwitchHistory is the number of switch records kept. Defaults to 64.
	SwitchHistory int
}

// DefaultKernelConfig returns a config with default collaborators.
func DefaultKernelConfig() *KernelConfig {
	return &KernelConfig{
		Logger:       NewDefaultLogger(),
		Metrics:      &NilMetrics{},
		PanicHandler: &DefaultPanicHandler{},
		Port:         NewSimulatedCPU(),
		TickSource:   NewTickerSource(TickPeriod),
	}
}
