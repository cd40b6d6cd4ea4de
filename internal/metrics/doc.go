// Package metrics provides Prometheus instrumentation for the conversion
// service. All metrics are prefixed with "webm2mp4_".
//
// # Metric Categories
//
// HTTP metrics:
//   - HTTPRequestsTotal: requests by method, path and status
//   - HTTPRequestDuration: request duration by method and path
//   - HTTPRequestsInFlight: requests currently being served
//
// Conversion metrics:
//   - ConversionsTotal: finished conversion requests by outcome
//   - UploadSizeBytes: size of accepted uploads
//   - ConversionsInFlight: requests between acceptance and cleanup
//   - StreamedBytesTotal: bytes of converted media sent to clients
//   - CleanupErrorsTotal: temp-file removals that failed, by kind
//
// Transcoder metrics:
//   - TranscoderJobsTotal: FFmpeg runs by status
//   - TranscoderJobDuration: FFmpeg wall time
//   - TranscoderJobsInProgress: FFmpeg processes currently running
//
// Workspace metrics:
//   - WorkspaceFiles / WorkspaceBytes: files currently in each temp directory
//
// Filesystem metrics are recorded through the filesystem.Observer
// implementation returned by NewFilesystemObserver.
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
