package core

// selectNext picks the task to run: the highest priority among READY and
// RUNNING tasks. The comparison is non-strict, so on a tie the task scanned
// last (highest handle) wins. ok is false when no task is eligible.
func selectNext(tasks []taskControlBlock) (next TaskHandle, ok bool) {
	next = NoTask
	var highest uint32
	for i := range tasks {
		t := &tasks[i]
		if !t.status.eligible() {
			continue
		}
		if next == NoTask || t.priority >= highest {
			highest = t.priority
			next = TaskHandle(i)
		}
	}
	return next, next != NoTask
}

// scheduleLocked runs the scheduler for origin and hands a changed decision
// to the context-switch engine. Identical consecutive decisions do nothing.
func (k *Kernel) scheduleLocked(origin Origin) {
	next, ok := selectNext(k.tasks[:k.created])
	if !ok {
		k.fatalLocked(k.current, ErrNoEligibleTask)
		return
	}
	k.next = next
	if k.next != k.current {
		k.switchContextLocked(origin)
	}
	k.metrics.RecordReadyTasks(k.readyCountLocked())
}

func (k *Kernel) readyCountLocked() int {
	n := 0
	for i := 0; i < k.created; i++ {
		if k.tasks[i].status.eligible() {
			n++
		}
	}
	return n
}
