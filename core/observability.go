package core

import "time"

// SwitchRecord captures one context switch decision.
type SwitchRecord struct {
	Seq    uint64
	Clock  uint32
	From   TaskHandle
	To     TaskHandle
	Origin Origin
	At     time.Time
}

// TaskStats is a snapshot of one task control block.
type TaskStats struct {
	Handle   TaskHandle
	Name     string
	Status   TaskStatus
	Priority uint32
	Delay    uint32
	SavedSP  int
}

// KernelStats represents runtime observability state for a kernel.
type KernelStats struct {
	Clock             uint32
	Created           int
	Capacity          int
	Current           TaskHandle
	Next              TaskHandle
	Started           bool
	Halted            bool
	SwitchPending     bool
	SwitchRequests    uint64
	SwitchesCompleted uint64
	Tasks             []TaskStats
}

// Task returns the stats of handle, if it was created.
func (s KernelStats) Task(handle TaskHandle) (TaskStats, bool) {
	if handle < 0 || int(handle) >= len(s.Tasks) {
		return TaskStats{}, false
	}
	return s.Tasks[handle], true
}

// ReadyCount is the number of tasks the scheduler could pick.
func (s KernelStats) ReadyCount() int {
	n := 0
	for _, t := range s.Tasks {
		if t.Status.eligible() {
			n++
		}
	}
	return n
}
