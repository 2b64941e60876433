package core

import (
	"testing"

	"github.com/tidwall/gjson"
)

// TestSnapshotJSON tests the JSON rendering of kernel stats
// Main test items:
// 1. The document is valid JSON
// 2. Clock, selection and switch counters are present
// 3. Every created task is listed with its state
func TestSnapshotJSON(t *testing.T) {
	k, _ := newTestKernel(t)
	mustCreate(t, k, "led-red", 3, true)
	mustCreate(t, k, "led-blue", 2, false)
	mustCreate(t, k, "z", 0, true)
	k.tick()

	doc, err := k.SnapshotJSON()
	if err != nil {
		t.Fatalf("SnapshotJSON failed: %v", err)
	}
	if !gjson.Valid(doc) {
		t.Fatalf("Expected valid JSON, got %s", doc)
	}

	checks := map[string]string{
		"clock":              "1",
		"current":            "0",
		"next":               "0",
		"created":            "3",
		"capacity":           "8",
		"halted":             "false",
		"switches.requested": "1",
		"switches.completed": "0",
		"switches.pending":   "true",
		"tasks.#":            "3",
		"tasks.0.name":       "led-red",
		"tasks.0.status":     "RUNNING",
		"tasks.0.priority":   "3",
		"tasks.1.status":     "WAITING",
		"tasks.2.handle":     "2",
		"tasks.2.sp":         "191",
	}
	for path, want := range checks {
		if got := gjson.Get(doc, path).String(); got != want {
			t.Errorf("%s: Expected %s, got %s", path, want, got)
		}
	}

	names := gjson.Get(doc, "tasks.#.name").Array()
	if len(names) != 3 || names[1].String() != "led-blue" {
		t.Errorf("Unexpected task names: %v", names)
	}
}

// TestSnapshotJSON_Empty tests an empty registry
func TestSnapshotJSON_Empty(t *testing.T) {
	k, _ := newTestKernel(t)

	doc, err := k.SnapshotJSON()
	if err != nil {
		t.Fatalf("SnapshotJSON failed: %v", err)
	}
	if got := gjson.Get(doc, "current").Int(); got != int64(NoTask) {
		t.Errorf("Expected current %d, got %d", NoTask, got)
	}
	if tasks := gjson.Get(doc, "tasks"); !tasks.IsArray() || len(tasks.Array()) != 0 {
		t.Errorf("Expected empty task list, got %s", tasks.Raw)
	}
}
