// Package logging provides a small leveled logger for the conversion
// service.
//
// Levels, from most to least verbose:
//   - DEBUG: per-request lifecycle transitions and FFmpeg details
//   - INFO: startup, shutdown and completed conversions
//   - WARN: cleanup failures and recoverable misconfiguration
//   - ERROR: failed conversions and server errors
//
// The level comes from LOG_LEVEL (or DEBUG=true). When LOG_FILE is set,
// output is also written to that file and rotated by size.
package logging
