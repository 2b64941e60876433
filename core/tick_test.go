package core

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

// delayedKernel returns a kernel where task d (priority 2) has just delayed
// itself for n ticks and task r (priority 1) holds the processor. A last
// task z keeps d out of the final registry slot.
func delayedKernel(t *testing.T, n uint32) (k *Kernel, d, r TaskHandle) {
	t.Helper()
	k, _ = newTestKernel(t)
	d = mustCreate(t, k, "d", 2, true)
	r = mustCreate(t, k, "r", 1, true)
	mustCreate(t, k, "z", 0, true)

	schedule(k, OriginTimer)
	dispatchForTest(t, k)
	delayForTest(k, n)
	dispatchForTest(t, k)

	if got := k.Current(); got != r {
		t.Fatalf("Expected r running after delay, got %d", got)
	}
	return k, d, r
}

// TestTick_DelayOfOne tests the shortest delay
func TestTick_DelayOfOne(t *testing.T) {
	k, d, r := delayedKernel(t, 1)

	k.tick()

	if got := taskStatus(t, k, d).Status; got != TaskRunning {
		t.Errorf("Expected d RUNNING after one tick, got %v", got)
	}
	if got := taskStatus(t, k, r).Status; got != TaskReady {
		t.Errorf("Expected r READY, got %v", got)
	}
	if got := k.Clock(); got != 1 {
		t.Errorf("Expected clock 1, got %d", got)
	}
}

// TestTick_DelayCountsExactly tests that a delay of N ends on the Nth tick
// Main test items:
// 1. After N-1 ticks the task is still WAITING with one tick left
// 2. The Nth tick makes it READY and, being highest, it is selected
func TestTick_DelayCountsExactly(t *testing.T) {
	const n = 10
	k, d, _ := delayedKernel(t, n)

	for i := 0; i < n-1; i++ {
		k.tick()
	}
	ts := taskStatus(t, k, d)
	if ts.Status != TaskWaiting {
		t.Fatalf("Expected d WAITING after %d ticks, got %v", n-1, ts.Status)
	}
	if ts.Delay != 1 {
		t.Errorf("Expected 1 tick left, got %d", ts.Delay)
	}

	k.tick()
	ts = taskStatus(t, k, d)
	if ts.Status != TaskRunning {
		t.Errorf("Expected d RUNNING after %d ticks, got %v", n, ts.Status)
	}
	if ts.Delay != 0 {
		t.Errorf("Expected delay 0, got %d", ts.Delay)
	}
}

// TestTick_LastCreatedTaskIsNotCounted pins the scan bound of the tick
// handler: the most recently created task never has its delay counted down.
func TestTick_LastCreatedTaskIsNotCounted(t *testing.T) {
	k, _ := newTestKernel(t)
	a := mustCreate(t, k, "a", 1, true)
	last := mustCreate(t, k, "last", 2, true)

	schedule(k, OriginTimer)
	dispatchForTest(t, k)
	delayForTest(k, 3)
	dispatchForTest(t, k)

	for i := 0; i < 10; i++ {
		k.tick()
	}

	ts := taskStatus(t, k, last)
	if ts.Status != TaskWaiting {
		t.Errorf("Expected last task still WAITING, got %v", ts.Status)
	}
	if ts.Delay != 3 {
		t.Errorf("Expected last task delay untouched at 3, got %d", ts.Delay)
	}
	if got := k.Current(); got != a {
		t.Errorf("Expected a to keep running, got %d", got)
	}
}

// TestTick_NotAutostartedTaskStaysDormant tests a task created WAITING
func TestTick_NotAutostartedTaskStaysDormant(t *testing.T) {
	k, _ := newTestKernel(t)
	dormant := mustCreate(t, k, "dormant", 9, false)
	mustCreate(t, k, "a", 1, true)
	mustCreate(t, k, "z", 0, true)

	for i := 0; i < 20; i++ {
		k.tick()
		if k.Stats().SwitchPending {
			dispatchForTest(t, k)
		}
	}

	if got := taskStatus(t, k, dormant).Status; got != TaskWaiting {
		t.Errorf("Expected dormant task WAITING, got %v", got)
	}
	if got := k.Current(); got == dormant {
		t.Errorf("Expected dormant task never selected")
	}
}

// TestTick_ClockWraps tests the tick counter overflow
func TestTick_ClockWraps(t *testing.T) {
	k, _ := newTestKernel(t)
	mustCreate(t, k, "a", 1, true)
	mustCreate(t, k, "z", 0, true)

	k.mu.Lock()
	k.clock = math.MaxUint32
	k.mu.Unlock()

	k.tick()
	if got := k.Clock(); got != 0 {
		t.Errorf("Expected clock to wrap to 0, got %d", got)
	}
	k.tick()
	if got := k.Clock(); got != 1 {
		t.Errorf("Expected clock 1, got %d", got)
	}
}

// TestManualTickSource tests on-demand ticks
// Main test items:
// 1. Ticks before Start are dropped
// 2. Each Tick calls the handler once, synchronously
// 3. Ticks after Stop are dropped
// 4. A failing source reports its error from Start
func TestManualTickSource(t *testing.T) {
	src := NewManualTickSource()
	count := 0

	src.Tick()
	if err := src.Start(func() { count++ }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	src.Tick()
	src.Advance(4)
	if count != 5 {
		t.Errorf("Expected 5 ticks, got %d", count)
	}

	src.Stop()
	src.Advance(3)
	if count != 5 {
		t.Errorf("Expected no ticks after Stop, got %d", count)
	}

	boom := errors.New("no timer")
	if err := NewFailingTickSource(boom).Start(func() {}); !errors.Is(err, boom) {
		t.Errorf("Expected %v, got %v", boom, err)
	}
}

// TestTickerSource tests wall-clock ticks
func TestTickerSource(t *testing.T) {
	var count atomic.Int64
	src := NewTickerSource(time.Millisecond)
	if err := src.Start(func() { count.Add(1) }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitUntil(t, "three ticks", func() bool { return count.Load() >= 3 })

	src.Stop()
	stopped := count.Load()
	time.Sleep(10 * time.Millisecond)
	if got := count.Load(); got != stopped {
		t.Errorf("Expected no ticks after Stop, got %d more", got-stopped)
	}
	src.Stop()
}

// TestTickerSource_InvalidPeriod tests a source that cannot start
func TestTickerSource_InvalidPeriod(t *testing.T) {
	if err := NewTickerSource(0).Start(func() {}); !errors.Is(err, ErrTickSource) {
		t.Errorf("Expected ErrTickSource, got %v", err)
	}
}
