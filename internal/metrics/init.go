package metrics

// Volumes are the filesystem volume labels used by the service.
var Volumes = []string{"uploads", "converted", "unknown"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range Outcomes {
		ConversionsTotal.WithLabelValues(outcome)
	}

	for _, kind := range []string{"upload", "output"} {
		CleanupErrorsTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"success", "error", "canceled"} {
		TranscoderJobsTotal.WithLabelValues(status)
	}

	for _, dir := range []string{"uploads", "converted"} {
		WorkspaceFiles.WithLabelValues(dir)
		WorkspaceBytes.WithLabelValues(dir)
	}

	for _, vol := range Volumes {
		for _, op := range []string{"open", "stat", "remove"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
