package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gasched_nodes_total",
			Help: "Total number of cluster nodes by slot",
		},
		[]string{"slot"},
	)

	AvailableContainers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gasched_available_containers",
			Help: "Free container slots across the cluster",
		},
	)

	QueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gasched_queue_length",
			Help: "Number of applications currently queued",
		},
	)

	RunningApplications = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gasched_running_applications",
			Help: "Number of applications currently running on the cluster",
		},
	)

	// Scheduler metrics
	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gasched_scheduling_latency_seconds",
			Help:    "Time taken to admit and place one application",
			Buckets: prometheus.DefBuckets,
		},
	)

	ApplicationsScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gasched_applications_scheduled_total",
			Help: "Total number of applications admitted",
		},
	)

	ApplicationsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gasched_applications_failed_total",
			Help: "Total number of placements that failed",
		},
	)

	NoApplicationCanBeScheduledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gasched_no_application_schedulable_total",
			Help: "Total number of rounds that ended with nothing schedulable",
		},
	)

	WaitingTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gasched_waiting_time_rounds",
			Help:    "Rounds an application waited in queue before admission",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 8, 13, 21, 34},
		},
	)

	// Estimator / updater metrics
	EstimatorUpdateLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gasched_estimator_update_latency_seconds",
			Help:    "Time taken for one periodic estimator update tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	EstimatorSamplesObserved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gasched_estimator_samples_observed_total",
			Help: "Total number of leave-one-out datapoints fed to the estimator",
		},
	)

	EstimatorSamplesSkippedIdle = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gasched_estimator_samples_skipped_idle_total",
			Help: "Total number of node observations skipped because usage was idle or empty",
		},
	)
)

func init() {
	prometheus.MustRegister(
		NodesTotal,
		AvailableContainers,
		QueueLength,
		RunningApplications,
		SchedulingLatency,
		ApplicationsScheduled,
		ApplicationsFailed,
		NoApplicationCanBeScheduledTotal,
		WaitingTime,
		EstimatorUpdateLatency,
		EstimatorSamplesObserved,
		EstimatorSamplesSkippedIdle,
	)
}

// Handler returns the Prometheus HTTP handler for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
