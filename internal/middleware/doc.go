// Package middleware provides the HTTP middleware chain for the conversion
// service: request IDs, panic recovery, W3C Extended access logging,
// Prometheus request metrics and gzip compression of textual responses.
package middleware
