package prometheus

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Swind/go-minirtos/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// ReadyBuckets bound the ready-task histogram. Defaults to one bucket per
	// registry slot.
	ReadyBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	ticksTotal          prom.Counter
	clock               prom.Gauge
	contextSwitchTotal  *prom.CounterVec
	taskDispatchTotal   *prom.CounterVec
	taskCreatedTotal    *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	readyTasks          prom.Gauge
	readyTasksHistogram prom.Histogram
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "minirtos"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.ReadyBuckets
	if len(buckets) == 0 {
		buckets = prom.LinearBuckets(0, 1, core.Capacity+1)
	}

	ticks := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Total number of kernel ticks handled.",
	})
	clock := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "clock",
		Help:      "Current value of the kernel tick counter.",
	})
	switchVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "context_switch_total",
		Help:      "Total number of context switches requested, by origin.",
	}, []string{"origin"})
	dispatchVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_dispatch_total",
		Help:      "Total number of times each task was selected to run.",
	}, []string{"task"})
	createdVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_created_total",
		Help:      "Total number of tasks created.",
	}, []string{"name", "priority"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of rejected task creations.",
	}, []string{"reason"})
	ready := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "ready_tasks",
		Help:      "Tasks eligible to run after the last scheduling decision.",
	})
	readyHist := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "ready_tasks_per_decision",
		Help:      "Distribution of eligible tasks per scheduling decision.",
		Buckets:   buckets,
	})

	var err error
	if ticks, err = registerCollector(reg, ticks); err != nil {
		return nil, err
	}
	if clock, err = registerCollector(reg, clock); err != nil {
		return nil, err
	}
	if switchVec, err = registerCollector(reg, switchVec); err != nil {
		return nil, err
	}
	if dispatchVec, err = registerCollector(reg, dispatchVec); err != nil {
		return nil, err
	}
	if createdVec, err = registerCollector(reg, createdVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if ready, err = registerCollector(reg, ready); err != nil {
		return nil, err
	}
	if readyHist, err = registerCollector(reg, readyHist); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		ticksTotal:          ticks,
		clock:               clock,
		contextSwitchTotal:  switchVec,
		taskDispatchTotal:   dispatchVec,
		taskCreatedTotal:    createdVec,
		taskRejectedTotal:   rejectedVec,
		readyTasks:          ready,
		readyTasksHistogram: readyHist,
	}, nil
}

// RecordTick records one kernel tick.
func (m *MetricsExporter) RecordTick(clock uint32) {
	if m == nil {
		return
	}
	m.ticksTotal.Inc()
	m.clock.Set(float64(clock))
}

// RecordContextSwitch records a switch decision.
func (m *MetricsExporter) RecordContextSwitch(origin core.Origin, from, to core.TaskHandle) {
	if m == nil {
		return
	}
	m.contextSwitchTotal.WithLabelValues(origin.String()).Inc()
	m.taskDispatchTotal.WithLabelValues(taskLabel(to)).Inc()
}

// RecordTaskCreated records a task creation.
func (m *MetricsExporter) RecordTaskCreated(name string, priority uint32) {
	if m == nil {
		return
	}
	m.taskCreatedTotal.WithLabelValues(normalizeLabel(name, "unknown"), strconv.FormatUint(uint64(priority), 10)).Inc()
}

// RecordTaskRejected records a rejected task creation.
func (m *MetricsExporter) RecordTaskRejected(reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(reason, "unknown")).Inc()
}

// RecordReadyTasks records the ready set size after a decision.
func (m *MetricsExporter) RecordReadyTasks(count int) {
	if m == nil {
		return
	}
	m.readyTasks.Set(float64(count))
	m.readyTasksHistogram.Observe(float64(count))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func taskLabel(h core.TaskHandle) string {
	if h == core.NoTask {
		return "none"
	}
	return strconv.Itoa(int(h))
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
