package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"webm2mp4/internal/logging"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes before compression is applied
	MinSize int
	// Level is the gzip compression level (gzip.BestSpeed to gzip.BestCompression)
	Level int
	// CompressibleTypes lists the media types worth compressing. Video is
	// already compressed and never belongs here.
	CompressibleTypes []string
}

// DefaultCompressionConfig covers the JSON health checks, plain-text errors and
// Prometheus output.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"text/plain",
			"application/json",
			"application/openmetrics-text",
		},
	}
}

// compressor is the per-middleware state shared by all requests.
type compressor struct {
	minSize int
	types   map[string]bool
	writers sync.Pool
}

func newCompressor(config CompressionConfig) *compressor {
	c := &compressor{
		minSize: config.MinSize,
		types:   make(map[string]bool, len(config.CompressibleTypes)),
	}
	for _, t := range config.CompressibleTypes {
		c.types[strings.ToLower(t)] = true
	}
	c.writers.New = func() any {
		zw, err := gzip.NewWriterLevel(io.Discard, config.Level)
		if err != nil {
			zw = gzip.NewWriter(io.Discard)
		}
		return zw
	}
	return c
}

func (c *compressor) compressible(h http.Header) bool {
	base, _, _ := strings.Cut(h.Get("Content-Type"), ";")
	base = strings.ToLower(strings.TrimSpace(base))
	return base != "" && c.types[base]
}

type encodingMode int

const (
	modeUndecided encodingMode = iota
	modeIdentity
	modeGzip
)

// gzipResponseWriter holds back the first MinSize bytes of a response so it
// can tell whether compressing is worth it.
type gzipResponseWriter struct {
	http.ResponseWriter
	c       *compressor
	zw      *gzip.Writer
	mode    encodingMode
	status  int
	pending []byte
}

// WriteHeader records the status. A declared content type that is not
// compressible, such as video/mp4, switches the writer to pass-through at
// once so large bodies are never buffered.
func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if g.mode != modeUndecided {
		return
	}
	g.status = statusCode
	if g.Header().Get("Content-Type") != "" && !g.c.compressible(g.Header()) {
		g.decide()
	}
}

func (g *gzipResponseWriter) Write(p []byte) (int, error) {
	switch g.mode {
	case modeGzip:
		return g.zw.Write(p)
	case modeIdentity:
		return g.ResponseWriter.Write(p)
	}

	g.pending = append(g.pending, p...)
	if len(g.pending) > g.c.minSize {
		g.decide()
	}
	return len(p), nil
}

// decide picks the encoding, sends the header and releases the buffer.
func (g *gzipResponseWriter) decide() {
	if g.mode != modeUndecided {
		return
	}

	h := g.Header()
	if len(g.pending) >= g.c.minSize && g.c.compressible(h) {
		g.mode = modeGzip
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		g.zw = g.c.writers.Get().(*gzip.Writer)
		g.zw.Reset(g.ResponseWriter)
	} else {
		g.mode = modeIdentity
	}

	g.ResponseWriter.WriteHeader(g.status)
	if len(g.pending) == 0 {
		return
	}

	var err error
	if g.mode == modeGzip {
		_, err = g.zw.Write(g.pending)
	} else {
		_, err = g.ResponseWriter.Write(g.pending)
	}
	if err != nil {
		logging.Debug("compression: writing buffered response failed: %v", err)
	}
	g.pending = nil
}

// Close sends anything still buffered and returns the gzip writer to the pool.
func (g *gzipResponseWriter) Close() error {
	g.decide()
	if g.zw == nil {
		return nil
	}
	err := g.zw.Close()
	g.c.writers.Put(g.zw)
	g.zw = nil
	return err
}

func (g *gzipResponseWriter) Flush() {
	g.decide()
	if g.zw != nil {
		if err := g.zw.Flush(); err != nil {
			logging.Debug("compression: gzip flush failed: %v", err)
		}
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

// acceptsGzip reports whether Accept-Encoding lists gzip with a non-zero
// quality.
func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		q, found := strings.CutPrefix(strings.TrimSpace(params), "q=")
		if !found {
			return true
		}
		weight, err := strconv.ParseFloat(q, 64)
		return err == nil && weight > 0
	}
	return false
}

// Compression returns a middleware that gzips textual responses for clients
// that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	c := newCompressor(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r) || r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			gzw := &gzipResponseWriter{ResponseWriter: w, c: c, status: http.StatusOK}
			defer func() {
				if err := gzw.Close(); err != nil {
					logging.Debug("compression: gzip close failed: %v", err)
				}
			}()

			next.ServeHTTP(gzw, r)
		})
	}
}
