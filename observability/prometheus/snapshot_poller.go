package prometheus

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Swind/go-minirtos/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// KernelSnapshotProvider provides current kernel stats snapshots.
type KernelSnapshotProvider interface {
	Stats() core.KernelStats
}

var taskStatuses = []core.TaskStatus{core.TaskReady, core.TaskRunning, core.TaskWaiting}

// SnapshotPoller periodically exports kernel Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	kernelsMu sync.RWMutex
	kernels   map[string]KernelSnapshotProvider

	kernelClock          *prom.GaugeVec
	kernelTasks          *prom.GaugeVec
	kernelCurrent        *prom.GaugeVec
	kernelHalted         *prom.GaugeVec
	kernelSwitchPending  *prom.GaugeVec
	kernelSwitchesDone   *prom.GaugeVec
	kernelSwitchRequests *prom.GaugeVec

	taskStatus   *prom.GaugeVec
	taskPriority *prom.GaugeVec
	taskDelay    *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	kernelGauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "minirtos",
			Name:      name,
			Help:      help,
		}, []string{"kernel"})
	}
	taskGauge := func(name, help string, labels ...string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "minirtos",
			Name:      name,
			Help:      help,
		}, append([]string{"kernel", "task", "name"}, labels...))
	}

	kernelClock := kernelGauge("kernel_clock", "Kernel tick counter snapshot.")
	kernelTasks := kernelGauge("kernel_tasks", "Number of created tasks.")
	kernelCurrent := kernelGauge("kernel_current_task", "Handle of the task holding the processor (-1 before the first decision).")
	kernelHalted := kernelGauge("kernel_halted", "Kernel halted state (1=halted, 0=running).")
	kernelSwitchPending := kernelGauge("kernel_switch_pending", "Deferred switch pending (1=pending, 0=idle).")
	kernelSwitchesDone := kernelGauge("kernel_switches_completed", "Completed context switches snapshot.")
	kernelSwitchRequests := kernelGauge("kernel_switch_requests", "Requested context switches snapshot.")

	taskStatus := taskGauge("task_status", "Task status (1 for the current status of the task).", "status")
	taskPriority := taskGauge("task_priority", "Task priority.")
	taskDelay := taskGauge("task_delay_ticks", "Ticks left in the task's delay.")

	var err error
	for _, vec := range []**prom.GaugeVec{
		&kernelClock, &kernelTasks, &kernelCurrent, &kernelHalted,
		&kernelSwitchPending, &kernelSwitchesDone, &kernelSwitchRequests,
		&taskStatus, &taskPriority, &taskDelay,
	} {
		if *vec, err = registerCollector(reg, *vec); err != nil {
			return nil, err
		}
	}

	return &SnapshotPoller{
		interval:             interval,
		kernels:              make(map[string]KernelSnapshotProvider),
		kernelClock:          kernelClock,
		kernelTasks:          kernelTasks,
		kernelCurrent:        kernelCurrent,
		kernelHalted:         kernelHalted,
		kernelSwitchPending:  kernelSwitchPending,
		kernelSwitchesDone:   kernelSwitchesDone,
		kernelSwitchRequests: kernelSwitchRequests,
		taskStatus:           taskStatus,
		taskPriority:         taskPriority,
		taskDelay:            taskDelay,
	}, nil
}

// AddKernel adds or replaces a kernel snapshot provider by name.
func (p *SnapshotPoller) AddKernel(name string, provider KernelSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "kernel")
	p.kernelsMu.Lock()
	p.kernels[name] = provider
	p.kernelsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.kernelsMu.RLock()
	defer p.kernelsMu.RUnlock()

	for name, provider := range p.kernels {
		stats := provider.Stats()
		p.kernelClock.WithLabelValues(name).Set(float64(stats.Clock))
		p.kernelTasks.WithLabelValues(name).Set(float64(stats.Created))
		p.kernelCurrent.WithLabelValues(name).Set(float64(stats.Current))
		p.kernelHalted.WithLabelValues(name).Set(boolGauge(stats.Halted))
		p.kernelSwitchPending.WithLabelValues(name).Set(boolGauge(stats.SwitchPending))
		p.kernelSwitchesDone.WithLabelValues(name).Set(float64(stats.SwitchesCompleted))
		p.kernelSwitchRequests.WithLabelValues(name).Set(float64(stats.SwitchRequests))

		for _, task := range stats.Tasks {
			handle := strconv.Itoa(int(task.Handle))
			for _, status := range taskStatuses {
				p.taskStatus.WithLabelValues(name, handle, task.Name, status.String()).Set(boolGauge(task.Status == status))
			}
			p.taskPriority.WithLabelValues(name, handle, task.Name).Set(float64(task.Priority))
			p.taskDelay.WithLabelValues(name, handle, task.Name).Set(float64(task.Delay))
		}
	}
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
