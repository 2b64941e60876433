package core

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
)

const defaultSwitchHistoryCapacity = 64

// switchHistory is a ring buffer of the most recent context switches.
type switchHistory struct {
	mu    sync.Mutex
	items []SwitchRecord
	head  int
	count int
	seq   uint64
}

func newSwitchHistory(capacity int) switchHistory {
	if capacity < 1 {
		capacity = defaultSwitchHistoryCapacity
	}
	return switchHistory{items: make([]SwitchRecord, capacity)}
}

func (h *switchHistory) Add(record SwitchRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.items) == 0 {
		return
	}

	h.seq++
	record.Seq = h.seq
	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first.
func (h *switchHistory) Recent(limit int) []SwitchRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]SwitchRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *switchHistory) Last() (SwitchRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return SwitchRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}

// resolveTaskName picks the explicit name, or the short name of the entry function.
func resolveTaskName(entry TaskFunc, explicit string) string {
	if explicit != "" {
		return explicit
	}

	if entry == nil {
		return "anonymous"
	}

	pc := reflect.ValueOf(entry).Pointer()
	if pc == 0 {
		return "anonymous"
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil || fn.Name() == "" {
		return "anonymous"
	}

	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
