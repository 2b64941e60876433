package core

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync"
	"testing"
)

// =============================================================================
// Test Metrics
// =============================================================================

// TestMetrics records every call the kernel makes into Metrics.
type TestMetrics struct {
	mu       sync.Mutex
	ticks    []uint32
	switches []SwitchRecord
	created  []string
	rejected []string
	ready    []int
}

func (m *TestMetrics) RecordTick(clock uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, clock)
}

func (m *TestMetrics) RecordContextSwitch(origin Origin, from, to TaskHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switches = append(m.switches, SwitchRecord{From: from, To: to, Origin: origin})
}

func (m *TestMetrics) RecordTaskCreated(name string, priority uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, name)
}

func (m *TestMetrics) RecordTaskRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, reason)
}

func (m *TestMetrics) RecordReadyTasks(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = append(m.ready, count)
}

// TestMetrics_KernelEvents tests the metrics fed by the kernel
// Main test items:
// 1. Creations and rejections are reported with name and reason
// 2. Every tick reports the new clock
// 3. Switch decisions report origin and both tasks
func TestMetrics_KernelEvents(t *testing.T) {
	metrics := &TestMetrics{}
	k := NewKernelWithConfig(&KernelConfig{
		Logger:     NewNoOpLogger(),
		Metrics:    metrics,
		TickSource: NewManualTickSource(),
	})
	t.Cleanup(k.Shutdown)

	mustCreate(t, k, "a", 1, true)
	b := mustCreate(t, k, "b", 2, true)
	mustCreate(t, k, "z", 0, true)
	if _, err := k.CreateTask(nil, 1, true); err == nil {
		t.Fatalf("Expected nil entry to be rejected")
	}

	k.tick()
	k.tick()

	metrics.mu.Lock()
	defer metrics.mu.Unlock()

	if strings.Join(metrics.created, ",") != "a,b,z" {
		t.Errorf("Expected created a,b,z, got %v", metrics.created)
	}
	if len(metrics.rejected) != 1 || metrics.rejected[0] != "nil_entry" {
		t.Errorf("Expected one nil_entry rejection, got %v", metrics.rejected)
	}
	if len(metrics.ticks) != 2 || metrics.ticks[0] != 1 || metrics.ticks[1] != 2 {
		t.Errorf("Expected ticks [1 2], got %v", metrics.ticks)
	}
	if len(metrics.switches) != 1 {
		t.Fatalf("Expected 1 switch, got %d", len(metrics.switches))
	}
	sw := metrics.switches[0]
	if sw.From != NoTask || sw.To != b || sw.Origin != OriginTimer {
		t.Errorf("Unexpected switch: %+v", sw)
	}
	if len(metrics.ready) != 2 || metrics.ready[0] != 3 {
		t.Errorf("Expected 3 ready tasks per decision, got %v", metrics.ready)
	}
}

func TestNilMetrics(t *testing.T) {
	// Given: NilMetrics
	m := &NilMetrics{}

	// When: every method is called
	m.RecordTick(1)
	m.RecordContextSwitch(OriginYield, 0, 1)
	m.RecordTaskCreated("a", 1)
	m.RecordTaskRejected("capacity")
	m.RecordReadyTasks(3)

	// Then: nothing happens
}

func TestDefaultPanicHandler(t *testing.T) {
	// Given: A DefaultPanicHandler
	handler := &DefaultPanicHandler{}

	// When: HandlePanic is called
	handler.HandlePanic(context.Background(), "led-red", 3, "test panic", []byte("stack trace"))

	// Then: No panic should occur
}

// TestDefaultKernelConfig tests the default collaborators
func TestDefaultKernelConfig(t *testing.T) {
	config := DefaultKernelConfig()
	if config.Logger == nil || config.Metrics == nil || config.PanicHandler == nil {
		t.Errorf("Expected logger, metrics and panic handler to be set")
	}
	if _, ok := config.Port.(*SimulatedCPU); !ok {
		t.Errorf("Expected *SimulatedCPU port, got %T", config.Port)
	}
	if _, ok := config.TickSource.(*TickerSource); !ok {
		t.Errorf("Expected *TickerSource, got %T", config.TickSource)
	}

	// A nil config falls back to the same defaults.
	k := NewKernelWithConfig(nil)
	if k.port == nil || k.ticks == nil || k.logger == nil || k.metrics == nil || k.panicHandler == nil {
		t.Errorf("Expected nil config to fall back to defaults")
	}
}

// =============================================================================
// Test Logger
// =============================================================================

// TestDefaultLogger tests the log line format and debug filtering
func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	quiet := &DefaultLogger{logger: log.New(&buf, "", 0)}

	quiet.Debug("hidden")
	quiet.Info("task created", F("task", 2), F("name", "led-green"))
	quiet.Error("kernel halted")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("Expected debug message dropped, got %q", got)
	}
	if !strings.Contains(got, "[INFO] task created {task: 2, name: led-green}\n") {
		t.Errorf("Unexpected info line in %q", got)
	}
	if !strings.Contains(got, "[ERROR] kernel halted\n") {
		t.Errorf("Unexpected error line in %q", got)
	}

	buf.Reset()
	verbose := NewDebugLogger(log.New(&buf, "", 0))
	verbose.Debug("context switch requested", F("from", 1), F("to", 0))
	if got := buf.String(); got != "[DEBUG] context switch requested {from: 1, to: 0}\n" {
		t.Errorf("Unexpected debug line %q", got)
	}
}

// =============================================================================
// Test switch history
// =============================================================================

// TestSwitchHistory tests the ring buffer of switch records
// Main test items:
// 1. Records are numbered in order
// 2. Recent returns newest first and honours limit
// 3. Old records are overwritten once full
func TestSwitchHistory(t *testing.T) {
	h := newSwitchHistory(3)
	if _, ok := h.Last(); ok {
		t.Errorf("Expected empty history")
	}
	if h.Recent(0) != nil {
		t.Errorf("Expected nil from empty history")
	}

	for i := 0; i < 5; i++ {
		h.Add(SwitchRecord{Clock: uint32(i), To: TaskHandle(i)})
	}

	recent := h.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(recent))
	}
	for i, want := range []uint32{4, 3, 2} {
		if recent[i].Clock != want {
			t.Errorf("Record %d: Expected clock %d, got %d", i, want, recent[i].Clock)
		}
	}
	if recent[0].Seq != 5 {
		t.Errorf("Expected newest seq 5, got %d", recent[0].Seq)
	}
	if got := h.Recent(2); len(got) != 2 || got[1].Clock != 3 {
		t.Errorf("Unexpected limited records: %+v", got)
	}

	last, ok := h.Last()
	if !ok || last.To != 4 {
		t.Errorf("Expected last switch to 4, got %+v", last)
	}
}

func TestResolveTaskName(t *testing.T) {
	if got := resolveTaskName(noopTask, "explicit"); got != "explicit" {
		t.Errorf("Expected explicit, got %s", got)
	}
	if got := resolveTaskName(noopTask, ""); got != "core.noopTask" {
		t.Errorf("Expected core.noopTask, got %s", got)
	}
	if got := resolveTaskName(nil, ""); got != "anonymous" {
		t.Errorf("Expected anonymous, got %s", got)
	}
}
