package core

import (
	"context"
	"testing"
	"time"
)

func noopTask(ctx context.Context, arg any) {}

func otherTask(ctx context.Context, arg any) {}

// newTestKernel returns a quiet kernel driven by manual ticks.
func newTestKernel(t *testing.T) (*Kernel, *ManualTickSource) {
	t.Helper()
	ticks := NewManualTickSource()
	k := NewKernelWithConfig(&KernelConfig{
		Logger:     NewNoOpLogger(),
		TickSource: ticks,
	})
	t.Cleanup(k.Shutdown)
	return k, ticks
}

func mustCreate(t *testing.T, k *Kernel, name string, priority uint32, autostart bool) TaskHandle {
	t.Helper()
	h, err := k.CreateTaskWithOptions(noopTask, TaskOptions{Name: name, Priority: priority, Autostart: autostart})
	if err != nil {
		t.Fatalf("CreateTask(%s) failed: %v", name, err)
	}
	return h
}

// dispatchForTest completes the pending switch without fibers: it restores the
// current task's frame onto the port, as the deferred switch would.
func dispatchForTest(t *testing.T, k *Kernel) {
	t.Helper()
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.pending {
		t.Fatalf("Expected a pending switch")
	}
	k.pending = false
	select {
	case <-k.pendSV:
	default:
	}
	tcb := &k.tasks[k.current]
	if _, err := k.port.RestoreContext(&tcb.stack, tcb.savedSP); err != nil {
		t.Fatalf("RestoreContext failed: %v", err)
	}
	k.fibers[k.current].started = true
	k.switchesCompleted++
}

// delayForTest runs the decision half of Delay for the current task.
func delayForTest(k *Kernel, ticks uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.delayCurrentLocked(ticks)
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func taskStatus(t *testing.T, k *Kernel, h TaskHandle) TaskStats {
	t.Helper()
	ts, ok := k.Stats().Task(h)
	if !ok {
		t.Fatalf("Task %d not found", h)
	}
	return ts
}
