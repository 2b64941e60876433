package core

// Registry geometry, fixed at build time.
const (
	// MaxTasks is the number of application tasks.
	MaxTasks = 7

	// Capacity is the size of the registry: the application tasks plus the
	// slot reserved for the idle task.
	Capacity = MaxTasks + 1

	// IdlePriority is the priority of the idle task, below every other task.
	IdlePriority uint32 = 0
)

// TaskOptions describes a task to create.
type TaskOptions struct {
	Name      string
	Arg       any
	Priority  uint32
	Autostart bool
}

// CreateTask adds a task to the registry. An autostarted task is READY,
// otherwise it is created WAITING. Creation never blocks and never allocates.
func (k *Kernel) CreateTask(entry TaskFunc, priority uint32, autostart bool) (TaskHandle, error) {
	return k.CreateTaskWithOptions(entry, TaskOptions{Priority: priority, Autostart: autostart})
}

// CreateTaskWithArg is CreateTask with the opaque argument passed to entry.
func (k *Kernel) CreateTaskWithArg(entry TaskFunc, arg any, priority uint32, autostart bool) (TaskHandle, error) {
	return k.CreateTaskWithOptions(entry, TaskOptions{Arg: arg, Priority: priority, Autostart: autostart})
}

// CreateTaskWithOptions adds a task described by opts. On error the registry
// is left untouched.
func (k *Kernel) CreateTaskWithOptions(entry TaskFunc, opts TaskOptions) (TaskHandle, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	limit := Capacity
	if !k.started {
		limit = MaxTasks
	}
	return k.createTaskLocked(entry, opts, limit)
}

func (k *Kernel) createTaskLocked(entry TaskFunc, opts TaskOptions, limit int) (TaskHandle, error) {
	if entry == nil {
		k.metrics.RecordTaskRejected("nil_entry")
		return NoTask, ErrNilEntry
	}
	if k.created >= limit {
		k.metrics.RecordTaskRejected("capacity")
		k.logger.Warn("task creation rejected",
			F("created", k.created), F("limit", limit), F("name", opts.Name))
		return NoTask, ErrCapacityExceeded
	}

	handle := TaskHandle(k.created)
	tcb := &k.tasks[handle]
	*tcb = taskControlBlock{
		name:     resolveTaskName(entry, opts.Name),
		entry:    entry,
		arg:      opts.Arg,
		priority: opts.Priority,
		savedSP:  initialStackPointer(),
		status:   TaskWaiting,
	}
	if opts.Autostart {
		tcb.status = TaskReady
	}
	if err := tcb.stack.writeFrame(tcb.savedSP, initialFrame(entry)); err != nil {
		*tcb = taskControlBlock{}
		return NoTask, err
	}
	k.fibers[handle] = newFiber(handle)
	k.created++

	k.metrics.RecordTaskCreated(tcb.name, tcb.priority)
	k.logger.Debug("task created",
		F("task", handle), F("name", tcb.name), F("priority", tcb.priority), F("status", tcb.status))
	return handle, nil
}
