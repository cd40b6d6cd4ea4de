package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversion outcomes used as the "outcome" label.
const (
	OutcomeSuccess          = "success"
	OutcomeBadRequest       = "bad_request"
	OutcomeUnsupportedType  = "unsupported_media_type"
	OutcomePayloadTooLarge  = "payload_too_large"
	OutcomeTranscodeFailed  = "transcode_failed"
	OutcomeStreamFailed     = "stream_failed"
	OutcomeInternalError    = "internal_error"
	OutcomeClientDisconnect = "client_disconnected"
)

// Outcomes lists every value of the "outcome" label.
var Outcomes = []string{
	OutcomeSuccess,
	OutcomeBadRequest,
	OutcomeUnsupportedType,
	OutcomePayloadTooLarge,
	OutcomeTranscodeFailed,
	OutcomeStreamFailed,
	OutcomeInternalError,
	OutcomeClientDisconnect,
}

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm2mp4_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webm2mp4_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webm2mp4_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Conversion request metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm2mp4_conversions_total",
			Help: "Total number of conversion requests by outcome",
		},
		[]string{"outcome"},
	)

	ConversionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webm2mp4_conversions_in_flight",
			Help: "Number of conversion requests holding temporary files",
		},
	)

	UploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webm2mp4_upload_size_bytes",
			Help:    "Size of accepted uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10),
		},
	)

	StreamedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webm2mp4_streamed_bytes_total",
			Help: "Total bytes of converted media streamed to clients",
		},
	)

	CleanupErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm2mp4_cleanup_errors_total",
			Help: "Total number of temporary file removals that failed",
		},
		[]string{"kind"}, // "upload", "output"
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm2mp4_transcoder_jobs_total",
			Help: "Total number of transcoding jobs",
		},
		[]string{"status"}, // "success", "error", "canceled"
	)

	TranscoderJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webm2mp4_transcoder_job_duration_seconds",
			Help:    "Transcoding job duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webm2mp4_transcoder_jobs_in_progress",
			Help: "Number of transcoding jobs currently in progress",
		},
	)
)

// Workspace metrics
var (
	WorkspaceFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "webm2mp4_workspace_files",
			Help: "Number of files currently in a temporary directory",
		},
		[]string{"dir"}, // "uploads", "converted"
	)

	WorkspaceBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "webm2mp4_workspace_bytes",
			Help: "Total size of files currently in a temporary directory",
		},
		[]string{"dir"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webm2mp4_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by volume and operation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm2mp4_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm2mp4_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retries after stale file handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm2mp4_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm2mp4_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that exhausted their retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm2mp4_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webm2mp4_memory_usage_ratio",
			Help: "Heap usage as a fraction of the Go memory limit",
		},
	)

	MemoryPressure = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webm2mp4_memory_pressure",
			Help: "1 while heap usage is above the critical mark, 0 otherwise",
		},
	)

	MemoryGCRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webm2mp4_memory_gc_runs_total",
			Help: "Total number of garbage collections forced by memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "webm2mp4_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// RecordConversion increments the conversion counter for an outcome.
func RecordConversion(outcome string) {
	ConversionsTotal.WithLabelValues(outcome).Inc()
}
