package core

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned by task creation once every slot is taken.
	ErrCapacityExceeded = errors.New("minirtos: task capacity exceeded")

	// ErrNilEntry is returned when a task is created without a body.
	ErrNilEntry = errors.New("minirtos: task entry is nil")

	// ErrAlreadyStarted is returned by a second call to StartScheduler.
	ErrAlreadyStarted = errors.New("minirtos: scheduler already started")

	// ErrNotTaskContext is the panic value of task-only calls made outside a task.
	ErrNotTaskContext = errors.New("minirtos: call requires a task context")

	ErrNoEligibleTask = errors.New("minirtos: no task is ready to run")
	ErrStackOverflow  = errors.New("minirtos: stack overflow")
	ErrCorruptFrame   = errors.New("minirtos: corrupt saved frame")
	ErrTaskReturned   = errors.New("minirtos: task entry returned")
	ErrTaskPanicked   = errors.New("minirtos: task panicked")
	ErrTickSource     = errors.New("minirtos: tick source failed to start")
)

// FatalError records the unrecoverable condition that halted a kernel.
type FatalError struct {
	Clock uint32
	Task  TaskHandle
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("minirtos halted at tick %d (task %d): %v", e.Clock, e.Task, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
