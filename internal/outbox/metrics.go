package outbox

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type pollerMetrics struct {
	runs      prometheus.Counter
	skipped   prometheus.Counter
	delivered prometheus.Counter
	failed    prometheus.Counter
	pending   prometheus.Gauge
	durations prometheus.Observer
}

var (
	pollerMetricsOnce sync.Once
	pollerMetricsInst *pollerMetrics
)

func globalPollerMetrics() *pollerMetrics {
	pollerMetricsOnce.Do(func() {
		pollerMetricsInst = newPollerMetrics()
	})
	return pollerMetricsInst
}

func newPollerMetrics() *pollerMetrics {
	return &pollerMetrics{
		runs: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "deskflow",
			Subsystem: "outbox",
			Name:      "poll_runs_total",
			Help:      "Total outbox poller executions",
		}),
		skipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "deskflow",
			Subsystem: "outbox",
			Name:      "poll_skipped_total",
			Help:      "Poller ticks skipped because the previous run was still active",
		}),
		delivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "deskflow",
			Subsystem: "outbox",
			Name:      "notifications_delivered_total",
			Help:      "Notifications delivered successfully",
		}),
		failed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "deskflow",
			Subsystem: "outbox",
			Name:      "notifications_failed_total",
			Help:      "Notification delivery attempts that failed",
		}),
		pending: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "deskflow",
			Subsystem: "outbox",
			Name:      "pending_notifications",
			Help:      "Pending notifications observed during the latest poll",
		}),
		durations: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "deskflow",
			Subsystem: "outbox",
			Name:      "poll_duration_seconds",
			Help:      "Duration of outbox poller executions",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *pollerMetrics) recordRun(pending int) func() {
	if m == nil {
		return func() {}
	}
	m.runs.Inc()
	m.pending.Set(float64(pending))
	timer := prometheus.NewTimer(m.durations)
	return func() {
		timer.ObserveDuration()
	}
}

func (m *pollerMetrics) recordDelivery(success bool) {
	if m == nil {
		return
	}
	if success {
		m.delivered.Inc()
	} else {
		m.failed.Inc()
	}
}
