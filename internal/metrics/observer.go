package metrics

import "webm2mp4/internal/filesystem"

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(durationSeconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (o *filesystemObserver) ObserveRetryAttempt(operation, volume string) {
	FilesystemRetryAttempts.WithLabelValues(operation, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(operation, volume string) {
	FilesystemRetrySuccess.WithLabelValues(operation, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(operation, volume string) {
	FilesystemRetryFailures.WithLabelValues(operation, volume).Inc()
}

func (o *filesystemObserver) ObserveStaleError(operation, volume string) {
	FilesystemStaleErrors.WithLabelValues(operation, volume).Inc()
}
