// Package handlers provides the HTTP handlers for the conversion service.
//
// It includes handlers for:
//   - POST /convert: WebM upload in, MP4 attachment out
//   - Health, liveness and readiness checks
//   - Build information
//   - Prometheus metrics
//
// Client errors are returned as plain text with a status derived from the
// error kinds in errors.go. Health and version responses are JSON.
package handlers
