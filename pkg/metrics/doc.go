/*
Package metrics provides Prometheus metrics collection and exposition for
Saturn workers.

# Metrics catalog

Scheduler:

  - saturn_scheduler_active_queues: queues currently registered.
  - saturn_scheduler_served_total: XMsgs served across all queues.
  - saturn_scheduler_fairness_skew: spread between the busiest and
    quietest queue's served share.

Resources:

  - saturn_resource_wait_seconds{type}: time a lease request waited for
    a given resource type to become available.
  - saturn_resources_available{type}, saturn_resources_in_use{type}:
    live gauges.

Executor:

  - saturn_executor_queue_depth: XMsgs submitted but not yet picked up
    by a worker.
  - saturn_messages_processed_total{pipeline},
    saturn_messages_failed_total{pipeline,reason}: outcome counters.
  - saturn_pipeline_execution_duration_seconds{pipeline}.

Topics:

  - saturn_topic_publish_total{topic,outcome}.

Hooks:

  - saturn_hook_failures_total{site}.

Control-plane sync:

  - saturn_sync_duration_seconds, saturn_sync_failures_total,
    saturn_assigned_queues.

All of these are registered and exposed. No package in this module
records values to saturn_scheduler_fairness_skew,
saturn_resource_wait_seconds, saturn_resources_available,
saturn_resources_in_use, saturn_hook_failures_total,
saturn_sync_duration_seconds or saturn_sync_failures_total, so those
series stay at their zero values.

# Usage

	import "github.com/saturn-sh/saturn/pkg/metrics"

	timer := metrics.NewTimer()
	// ... do work ...
	timer.ObserveDurationVec(metrics.PipelineExecutionDuration, pipelineName)

Gauge-shaped state that isn't naturally updated at the point of change
(such as resource availability) can be sampled periodically with a
Collector; nothing in this module starts one:

	c := metrics.NewCollector(10*time.Second, func() {
		for _, t := range []string{"gpu", "api-key"} {
			metrics.ResourcesAvailable.WithLabelValues(t).Set(float64(resourceMgr.Available(t)))
		}
	})
	c.Start()
	defer c.Stop()

HealthHandler, ReadyHandler and LivenessHandler expose /health, /ready
and /live respectively; RegisterComponent/UpdateComponent feed them
(controlplane, scheduler, executor are treated as critical for
readiness). No package in this module calls RegisterComponent, so in a
running worker those three stay unregistered and /ready reports
not_ready.
*/
package metrics
