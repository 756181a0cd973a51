package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Replayer Metrics
var (
	ReplayedExtrinsics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "replayer_replayed_extrinsics_total",
		Help: "The total number of extrinsics re-applied during replay sessions",
	})

	CompletedSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "replayer_completed_sessions_total",
		Help: "The total number of trace sessions that emitted a trace",
	})

	FailedSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "replayer_failed_sessions_total",
		Help: "The total number of trace sessions that aborted",
	})

	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "replayer_session_duration_seconds",
		Help:    "Time taken to run a full trace session",
		Buckets: prometheus.DefBuckets,
	})
)

// Executor Metrics
var (
	RuntimeTaskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "executor_runtime_task_duration_seconds",
		Help:    "Time taken by a single runtime task invocation",
		Buckets: prometheus.DefBuckets,
	})

	RuntimeTaskErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "executor_runtime_task_errors_total",
		Help: "The number of runtime task invocations that returned an error outcome",
	})
)

// Chain Access Metrics
var (
	RemoteStorageReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chain_remote_storage_reads_total",
		Help: "The number of base storage reads served by the remote endpoint",
	})

	CachedStorageReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chain_cached_storage_reads_total",
		Help: "The number of base storage reads served by the local cache",
	})
)
