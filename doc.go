// Package main provides the entry point for the webm2mp4 service.
//
// webm2mp4 accepts a WebM video as a multipart upload, converts it to MP4
// with FFmpeg (H.264 video, AAC audio) and streams the result back as a file
// download. Uploads and converted files only live for the duration of one
// request.
//
// # Application Lifecycle
//
//  1. Configuration Loading: reads environment variables (and an optional
//     .env file), creates the upload and converted directories and checks
//     for FFmpeg
//  2. Memory Configuration: sets GOMEMLIMIT from MEMORY_LIMIT and starts the
//     memory monitor that drives readiness
//  3. Workspace: removes files left behind by a previous process
//  4. HTTP Server Setup: routes, middleware and the optional metrics server
//  5. Graceful Shutdown: on SIGINT/SIGTERM
//
// # HTTP Server
//
// The main server (default port 3000) serves:
//
//   - POST /convert: form field "video", a video/webm file of at most
//     MAX_UPLOAD_BYTES (10 MB by default)
//   - GET /health, /healthz: JSON health summary
//   - GET|HEAD /livez: liveness check
//   - GET /readyz: readiness check, 503 when a temp directory is not
//     writable or memory is under pressure
//   - GET /version: build information
//
// The metrics server (default port 9090, METRICS_ENABLED) serves
// Prometheus metrics on /metrics.
//
// # Environment Variables
//
//   - PORT, METRICS_PORT, METRICS_ENABLED
//   - UPLOAD_DIR, CONVERTED_DIR: temporary directories (created at start)
//   - MAX_UPLOAD_BYTES: upload size ceiling
//   - FFMPEG_PATH, TRANSCODE_TIMEOUT: FFmpeg binary and per-job timeout
//   - SHUTDOWN_TIMEOUT: grace period for in-flight conversions
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT
//   - LOG_LEVEL, DEBUG, LOG_HEALTH_CHECKS, LOG_FILE and its rotation settings
//
// # Graceful Shutdown
//
//  1. Stop accepting requests and wait up to SHUTDOWN_TIMEOUT for in-flight
//     conversions
//  2. Cancel any FFmpeg processes still running; their handlers remove the
//     temporary files
//  3. Shut down the metrics server
//  4. Stop the workspace collector and memory monitor
//
// # Usage
//
//	curl -F video=@clip.webm -OJ http://localhost:3000/convert
package main
