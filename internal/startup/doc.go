// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read once by [LoadConfig] from environment variables,
// after an optional .env file in the working directory has been loaded. The
// resulting [Config] is passed by pointer to every component and never
// modified after startup.
//
//   - PORT: conversion API port (default: 3000)
//   - METRICS_PORT: Prometheus metrics port (default: 9090)
//   - METRICS_ENABLED: serve /metrics (default: true)
//   - UPLOAD_DIR: directory for received uploads (default: uploads)
//   - CONVERTED_DIR: directory for FFmpeg output (default: converted)
//   - MAX_UPLOAD_BYTES: upload size ceiling in bytes (default: 10485760)
//   - FFMPEG_PATH: FFmpeg binary (default: ffmpeg)
//   - TRANSCODE_TIMEOUT: per-conversion limit, 0 for none (default: 10m)
//   - SHUTDOWN_TIMEOUT: graceful shutdown budget (default: 30s)
//   - MEMORY_LIMIT: container memory limit in bytes for GOMEMLIMIT sizing
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default: 0.5)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log health check requests (default: true)
//   - LOG_FILE: optional log file, rotated by size
//
// # Directory Setup
//
// Both temporary directories are resolved to absolute paths, created when
// missing and checked for write access. Startup fails if either is unusable.
// FFmpeg is checked with -version; a missing binary is logged as a warning and
// reported by the health endpoint.
//
// # Build Information
//
// Version, Commit and BuildTime are set at build time:
//
//	go build -ldflags "-X webm2mp4/internal/startup.Version=1.0.0 \
//	  -X webm2mp4/internal/startup.Commit=$(git rev-parse HEAD) \
//	  -X webm2mp4/internal/startup.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package startup
