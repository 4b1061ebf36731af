package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collection Pipeline Metrics
var (
	// CollectionCyclesTotal tracks completed pipeline cycles by plugin and outcome
	CollectionCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_cycles_total",
			Help: "Total collection pipeline cycles by plugin and status",
		},
		[]string{"plugin", "status"},
	)

	// CollectionCycleDuration tracks full cycle latency in seconds
	CollectionCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collection_cycle_duration_seconds",
			Help:    "Collection cycle duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"plugin"},
	)

	// SnapshotsPersistedTotal tracks snapshots written to the store
	SnapshotsPersistedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshots_persisted_total",
			Help: "Total distilled snapshots persisted",
		},
	)

	// CollectionsCoalescedTotal tracks triggers that joined an in-flight cycle
	// instead of starting their own
	CollectionsCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collections_coalesced_total",
			Help: "Total collection triggers coalesced into an in-flight cycle",
		},
	)
)

// Scheduler Metrics
var (
	// ScheduledJobs tracks currently installed per-source cron jobs
	ScheduledJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_jobs_active",
			Help: "Number of per-source collection jobs currently scheduled",
		},
	)

	// ScheduledFiringsTotal tracks cron-triggered pipeline invocations
	ScheduledFiringsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_firings_total",
			Help: "Total cron-triggered collection firings",
		},
	)
)

// Outbound Fetch Metrics
var (
	// FetchRequestsTotal tracks outbound HTTP fetches by status
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_requests_total",
			Help: "Total outbound fetch requests by status",
		},
		[]string{"status"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by remote host and new state",
		},
		[]string{"host", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state per remote host (0=closed, 1=half-open, 2=open)",
		},
		[]string{"host"},
	)
)

// Aggregation Metrics
var (
	// AggregationDuration tracks global sentiment computation latency
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Global sentiment aggregation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// AggregationSourcesIncluded tracks sources included in the last aggregation
	AggregationSourcesIncluded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aggregation_sources_included",
			Help: "Number of sources included in the most recent global aggregation",
		},
	)
)
