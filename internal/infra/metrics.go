package infra

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides lightweight observability for the step loop.
// Uses atomic operations for thread-safety; batch runs share one instance.
type Metrics struct {
	// Counters
	stepsProcessed atomic.Uint64
	requestsTotal  atomic.Uint64
	fillsTotal     atomic.Uint64
	rejections     atomic.Uint64
	blowups        atomic.Uint64
	runsCompleted  atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeRuns atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordStep records one simulation step with its latency.
func (m *Metrics) RecordStep(latencyNs int64) {
	m.stepsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordRequests adds n submitted requests.
func (m *Metrics) RecordRequests(n int) {
	m.requestsTotal.Add(uint64(n))
}

// RecordFills adds n fills.
func (m *Metrics) RecordFills(n int) {
	m.fillsTotal.Add(uint64(n))
}

// RecordRejection records a request the matcher refused.
func (m *Metrics) RecordRejection() {
	m.rejections.Add(1)
}

// RecordBlowup records a participant blowup.
func (m *Metrics) RecordBlowup() {
	m.blowups.Add(1)
}

// RunStarted increments active runs by 1.
func (m *Metrics) RunStarted() {
	m.activeRuns.Add(1)
}

// RunFinished decrements active runs and counts the run as completed.
func (m *Metrics) RunFinished() {
	m.activeRuns.Add(-1)
	m.runsCompleted.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	StepsProcessed uint64
	RequestsTotal  uint64
	FillsTotal     uint64
	Rejections     uint64
	Blowups        uint64
	RunsCompleted  uint64
	AvgLatencyNs   int64
	ActiveRuns     int32
	Timestamp      time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		StepsProcessed: m.stepsProcessed.Load(),
		RequestsTotal:  m.requestsTotal.Load(),
		FillsTotal:     m.fillsTotal.Load(),
		Rejections:     m.rejections.Load(),
		Blowups:        m.blowups.Load(),
		RunsCompleted:  m.runsCompleted.Load(),
		AvgLatencyNs:   m.avgLatency(),
		ActiveRuns:     m.activeRuns.Load(),
		Timestamp:      time.Now(),
	}
}

func (m *Metrics) avgLatency() int64 {
	count := m.latencyCount.Load()
	if count == 0 {
		return 0
	}
	return m.latencySumNs.Load() / int64(count)
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.stepsProcessed.Store(0)
	m.requestsTotal.Store(0)
	m.fillsTotal.Store(0)
	m.rejections.Store(0)
	m.blowups.Store(0)
	m.runsCompleted.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeRuns.Store(0)
}

// Register exposes the counters to Prometheus. Values are read from the
// atomics on scrape.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	counter := func(name, help string, v *atomic.Uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "exchange_sim",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v.Load()) })
	}
	gauge := func(name, help string, f func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "exchange_sim",
			Name:      name,
			Help:      help,
		}, f)
	}

	collectors := []prometheus.Collector{
		counter("steps_total", "Simulation steps processed.", &m.stepsProcessed),
		counter("requests_total", "Requests submitted to the matcher.", &m.requestsTotal),
		counter("fills_total", "Fills published by the matcher.", &m.fillsTotal),
		counter("rejections_total", "Requests rejected by the matcher.", &m.rejections),
		counter("blowups_total", "Participant blowups.", &m.blowups),
		counter("runs_completed_total", "Finished simulation runs.", &m.runsCompleted),
		gauge("step_latency_avg_seconds", "Average wall time per step.", func() float64 {
			return time.Duration(m.avgLatency()).Seconds()
		}),
		gauge("active_runs", "Runs currently executing.", func() float64 {
			return float64(m.activeRuns.Load())
		}),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
