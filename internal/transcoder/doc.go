// Package transcoder converts uploaded WebM files to MP4 using FFmpeg.
//
// It supports:
//   - Asynchronous conversions that deliver exactly one Result
//   - Per-conversion timeouts layered on the caller's context
//   - Cancelling every running FFmpeg process on shutdown
//   - Capturing FFmpeg's stderr into the failure reason
//
// FFmpeg must be installed and reachable at the configured path.
package transcoder
