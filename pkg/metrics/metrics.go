package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scheduler metrics
	SchedulerActiveQueues = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saturn_scheduler_active_queues",
			Help: "Number of queues currently registered with the scheduler",
		},
	)

	SchedulerServed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saturn_scheduler_served_total",
			Help: "Total number of XMsgs served by the scheduler",
		},
	)

	SchedulerFairnessSkew = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saturn_scheduler_fairness_skew",
			Help:    "Difference between the most- and least-served queue's share of served messages, sampled per revolution",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Resource manager metrics
	ResourceWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saturn_resource_wait_seconds",
			Help:    "Time a lease request waited before all requested resource types were available",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	ResourcesAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "saturn_resources_available",
			Help: "Number of currently unleased resource instances by type",
		},
		[]string{"type"},
	)

	ResourcesInUse = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "saturn_resources_in_use",
			Help: "Number of currently leased resource instances by type",
		},
		[]string{"type"},
	)

	// Executor metrics
	ExecutorQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saturn_executor_queue_depth",
			Help: "Number of XMsgs submitted to the executor pool awaiting a free worker",
		},
	)

	MessagesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saturn_messages_processed_total",
			Help: "Total number of messages successfully processed by pipeline",
		},
		[]string{"pipeline"},
	)

	MessagesFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saturn_messages_failed_total",
			Help: "Total number of messages that failed pipeline execution",
		},
		[]string{"pipeline", "reason"},
	)

	PipelineExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saturn_pipeline_execution_duration_seconds",
			Help:    "Time a pipeline took to execute a message",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline"},
	)

	// Topic metrics
	TopicPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saturn_topic_publish_total",
			Help: "Total number of topic publish attempts by outcome",
		},
		[]string{"topic", "outcome"},
	)

	// Hook metrics
	HookFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saturn_hook_failures_total",
			Help: "Total number of hook observer failures by site",
		},
		[]string{"site"},
	)

	// Work manager / control-plane sync metrics
	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saturn_sync_duration_seconds",
			Help:    "Time taken for a control-plane sync cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	SyncFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saturn_sync_failures_total",
			Help: "Total number of control-plane sync cycles that failed",
		},
	)

	AssignedQueuesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saturn_assigned_queues",
			Help: "Number of queue items currently assigned to this worker",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SchedulerActiveQueues,
		SchedulerServed,
		SchedulerFairnessSkew,
		ResourceWaitSeconds,
		ResourcesAvailable,
		ResourcesInUse,
		ExecutorQueueDepth,
		MessagesProcessedTotal,
		MessagesFailedTotal,
		PipelineExecutionDuration,
		TopicPublishTotal,
		HookFailuresTotal,
		SyncDuration,
		SyncFailuresTotal,
		AssignedQueuesTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
