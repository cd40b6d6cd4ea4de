package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"webm2mp4/internal/metrics"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := log.Writer()
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(original)
		log.SetFlags(flags)
	})
	return &buf
}

func TestResponseWriterWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", rw.statusCode)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected recorder status 404, got %d", w.Code)
	}
}

func TestResponseWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	n, err := rw.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 5 || rw.bytesWritten != 5 {
		t.Errorf("Expected 5 bytes written, got n=%d bytesWritten=%d", n, rw.bytesWritten)
	}
	if rw.Unwrap() != w {
		t.Error("Unwrap() should return the underlying writer")
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "/convert", "/convert"},
		{"newline forging", "/convert\n2024-01-01 fake line", "/convert 2024-01-01 fake line"},
		{"carriage return", "a\rb", "a b"},
		{"null byte", "a\x00b", "ab"},
		{"ansi escape", "\x1b[31mred", "[31mred"},
		{"tab kept", "a\tb", "a\tb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.input); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		config        LoggingConfig
		expectLogging bool
	}{
		{
			name:          "Logs conversions",
			path:          "/convert",
			config:        DefaultLoggingConfig(),
			expectLogging: true,
		},
		{
			name:          "Logs health checks when enabled",
			path:          "/health",
			config:        LoggingConfig{LogHealthChecks: true},
			expectLogging: true,
		},
		{
			name:          "Skips health checks when disabled",
			path:          "/readyz",
			config:        LoggingConfig{LogHealthChecks: false},
			expectLogging: false,
		},
		{
			name:          "Skips configured paths",
			path:          "/version",
			config:        LoggingConfig{SkipPaths: []string{"/version"}, LogHealthChecks: true},
			expectLogging: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			handler := Logger(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			if logged := buf.Len() > 0; logged != tt.expectLogging {
				t.Errorf("logged = %v, want %v (output %q)", logged, tt.expectLogging, buf.String())
			}
		})
	}
}

func TestLoggerLineFormat(t *testing.T) {
	buf := captureLog(t)

	handler := RequestID(Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Unsupported file type", http.StatusUnsupportedMediaType)
	})))

	req := httptest.NewRequest(http.MethodPost, "/convert?x=1", strings.NewReader("body"))
	req.Header.Set("User-Agent", "curl/8.0 (test)")
	req.Header.Set(RequestIDHeader, "req-123")
	req.RemoteAddr = "192.0.2.10:5555"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	fields := strings.Fields(strings.TrimSpace(buf.String()))
	if len(fields) < 15 {
		t.Fatalf("log line has %d fields: %q", len(fields), buf.String())
	}
	if fields[2] != "webm2mp4" {
		t.Errorf("site name = %q, want webm2mp4", fields[2])
	}
	if fields[3] != "192.0.2.10" {
		t.Errorf("client ip = %q, want 192.0.2.10", fields[3])
	}
	if fields[4] != http.MethodPost || fields[5] != "/convert" || fields[6] != "x=1" {
		t.Errorf("request fields = %v", fields[4:7])
	}
	if fields[7] != "415" {
		t.Errorf("status = %q, want 415", fields[7])
	}
	if fields[9] != "4" {
		t.Errorf("cs-bytes = %q, want 4", fields[9])
	}
	if fields[len(fields)-1] != "req-123" {
		t.Errorf("request id = %q, want req-123", fields[len(fields)-1])
	}
	if !strings.Contains(buf.String(), `"curl/8.0 (test)"`) {
		t.Errorf("user agent not quoted: %q", buf.String())
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "10.0.0.2:1", "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.7"}, "10.0.0.2:1", "203.0.113.7"},
		{"remote addr", nil, "198.51.100.4:8080", "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompressionMiddleware(t *testing.T) {
	tests := []struct {
		name              string
		responseBody      string
		contentType       string
		acceptEncoding    string
		expectCompression bool
	}{
		{
			name:              "Compresses large JSON",
			responseBody:      strings.Repeat(`{"key":"value"}`, 200),
			contentType:       "application/json",
			acceptEncoding:    "gzip",
			expectCompression: true,
		},
		{
			name:              "Doesn't compress small responses",
			responseBody:      "Small",
			contentType:       "text/plain; charset=utf-8",
			acceptEncoding:    "gzip",
			expectCompression: false,
		},
		{
			name:              "Doesn't compress video",
			responseBody:      strings.Repeat("data", 1000),
			contentType:       "video/mp4",
			acceptEncoding:    "gzip",
			expectCompression: false,
		},
		{
			name:              "Respects client without gzip support",
			responseBody:      strings.Repeat("data", 500),
			contentType:       "text/plain",
			acceptEncoding:    "",
			expectCompression: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.responseBody))
			}))

			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			compressed := w.Header().Get("Content-Encoding") == "gzip"
			if compressed != tt.expectCompression {
				t.Fatalf("compressed = %v, want %v", compressed, tt.expectCompression)
			}

			body := w.Body.Bytes()
			if compressed {
				gr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("gzip.NewReader() error = %v", err)
				}
				body, err = io.ReadAll(gr)
				if err != nil {
					t.Fatalf("reading gzip body: %v", err)
				}
			}
			if string(body) != tt.responseBody {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.responseBody))
			}
		})
	}
}

func TestCompressionPassesThroughDeclaredVideo(t *testing.T) {
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "3")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("mp4"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/convert", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "" {
		t.Error("video response should not be compressed")
	}
	if w.Header().Get("Content-Length") != "3" {
		t.Errorf("Content-Length = %q, want 3", w.Header().Get("Content-Length"))
	}
	if w.Body.String() != "mp4" {
		t.Errorf("body = %q, want mp4", w.Body.String())
	}
}

func TestCompressionPreservesStatus(t *testing.T) {
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Video conversion failed.", http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodPost, "/convert", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "Video conversion failed." {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/convert", "/convert"},
		{"/convert/", "/convert"},
		{"/readyz", "/readyz"},
		{"/", "other"},
		{"/wp-login.php", "other"},
		{"/convert/../../etc/passwd", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/convert", "413")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodPost, "/convert", http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if delta := testutil.ToFloat64(counter) - before; delta != 1 {
		t.Errorf("request counter delta = %v, want 1", delta)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge = %v after request, want 0", got)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/livez", "200")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", http.NoBody))

	if delta := testutil.ToFloat64(counter) - before; delta != 0 {
		t.Errorf("skipped path recorded %v requests", delta)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if seen == "" {
		t.Fatal("expected a generated request id")
	}
	if w.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, want %q", w.Header().Get(RequestIDHeader), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(RequestIDHeader, "client-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "client-id" {
		t.Errorf("request id = %q, want client-id", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(RequestIDHeader, "bad\x00id")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "bad\x00id" {
		t.Error("request id with control characters should be replaced")
	}
}

func TestRecoverer(t *testing.T) {
	captureLog(t)

	handler := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/convert", http.NoBody))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestAcceptsGzip(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"gzip", true},
		{"deflate, gzip;q=0.8", true},
		{"GZIP", true},
		{"gzip;q=0", false},
		{"br, deflate", false},
		{"x-gzip", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set("Accept-Encoding", tt.header)
			if got := acceptsGzip(req); got != tt.want {
				t.Errorf("acceptsGzip(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestEscapeW3CField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"curl/8.0", "curl/8.0"},
		{"Mozilla/5.0 (X11)", `"Mozilla/5.0 (X11)"`},
		{`say "hi"`, `"say ""hi"""`},
	}

	for _, tt := range tests {
		if got := escapeW3CField(tt.in); got != tt.want {
			t.Errorf("escapeW3CField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
