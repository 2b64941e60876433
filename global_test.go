package minirtos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	minirtos "github.com/Swind/go-minirtos"
)

// TestGlobalKernel tests the process-wide kernel helpers
// Main test items:
// 1. GetGlobalKernel panics before initialization
// 2. Init is idempotent until shutdown
// 3. CreateTask and StartScheduler act on the global kernel
// 4. Shutdown forgets the kernel so it can be initialized again
func TestGlobalKernel(t *testing.T) {
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("Expected GetGlobalKernel to panic before init")
			}
		}()
		minirtos.GetGlobalKernel()
	}()

	ticks := minirtos.NewManualTickSource()
	minirtos.InitGlobalKernel(&minirtos.KernelConfig{
		Logger:     minirtos.NewNoOpLogger(),
		TickSource: ticks,
	})
	first := minirtos.GetGlobalKernel()
	minirtos.InitGlobalKernel(nil)
	if minirtos.GetGlobalKernel() != first {
		t.Fatalf("Expected second init to keep the first kernel")
	}

	ran := make(chan any, 1)
	h, err := minirtos.CreateTaskWithArg(func(ctx context.Context, arg any) {
		ran <- arg
		for {
			minirtos.Delay(ctx, 1000)
		}
	}, "hello", 3, true)
	if err != nil {
		t.Fatalf("CreateTaskWithArg failed: %v", err)
	}
	if err := minirtos.StartScheduler(); err != nil {
		t.Fatalf("StartScheduler failed: %v", err)
	}
	if err := minirtos.StartScheduler(); !errors.Is(err, minirtos.ErrAlreadyStarted) {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}

	ticks.Tick()
	select {
	case arg := <-ran:
		if arg != "hello" {
			t.Errorf("Expected arg hello, got %v", arg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Task %d never ran", h)
	}

	minirtos.ShutdownGlobalKernel()
	minirtos.ShutdownGlobalKernel()

	minirtos.InitGlobalKernel(&minirtos.KernelConfig{
		Logger:     minirtos.NewNoOpLogger(),
		TickSource: minirtos.NewManualTickSource(),
	})
	defer minirtos.ShutdownGlobalKernel()
	if minirtos.GetGlobalKernel() == first {
		t.Errorf("Expected a fresh kernel after shutdown")
	}
}

// TestGlobalKernel_CapacityExceeded tests the capacity error through the root package
func TestGlobalKernel_CapacityExceeded(t *testing.T) {
	minirtos.InitGlobalKernel(&minirtos.KernelConfig{
		Logger:     minirtos.NewNoOpLogger(),
		TickSource: minirtos.NewManualTickSource(),
	})
	defer minirtos.ShutdownGlobalKernel()

	body := func(ctx context.Context, arg any) {}
	for i := 0; i < minirtos.MaxTasks; i++ {
		if _, err := minirtos.CreateTask(body, 1, true); err != nil {
			t.Fatalf("CreateTask %d failed: %v", i, err)
		}
	}
	if _, err := minirtos.CreateTask(body, 1, true); !errors.Is(err, minirtos.ErrCapacityExceeded) {
		t.Errorf("Expected ErrCapacityExceeded, got %v", err)
	}
}
