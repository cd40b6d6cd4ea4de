package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"webm2mp4/internal/handlers"
	"webm2mp4/internal/middleware"
	"webm2mp4/internal/startup"
	"webm2mp4/internal/transcoder"
	"webm2mp4/internal/workspace"
)

type noopRunner struct{}

func (noopRunner) Run(context.Context, string, ...string) error { return nil }

func newTestHandlers(t *testing.T) *handlers.Handlers {
	t.Helper()
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	converted := filepath.Join(root, "converted")
	for _, dir := range []string{uploads, converted} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	ws := workspace.New(uploads, converted)
	trans := transcoder.New("ffmpeg", 0, noopRunner{})
	return handlers.New(ws, trans, nil, &startup.Config{MaxUploadBytes: 1024, FFmpegAvailable: true})
}

func TestSetupRouter(t *testing.T) {
	router := setupRouter(newTestHandlers(t))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/livez", http.StatusOK},
		{http.MethodHead, "/livez", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/convert", http.StatusMethodNotAllowed},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/metrics", http.StatusNotFound},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, http.NoBody))

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestSetupRouterConvertRejectsEmptyPost(t *testing.T) {
	router := setupRouter(newTestHandlers(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/convert", http.NoBody))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBuildHandlerRequestID(t *testing.T) {
	config := &startup.Config{LogHealthChecks: false}
	handler := buildHandler(setupRouter(newTestHandlers(t)), config)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response has no request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/livez", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "client-id-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get(middleware.RequestIDHeader); got != "client-id-123" {
		t.Errorf("request ID = %q, want client-id-123", got)
	}
}

func TestNewMetricsServer(t *testing.T) {
	h := newTestHandlers(t)
	srv := newMetricsServer("9191", h.MetricsHandler())

	if srv.Addr != ":9191" {
		t.Errorf("Addr = %q, want :9191", srv.Addr)
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "webm2mp4_") {
		t.Error("metrics output missing webm2mp4_ metrics")
	}
}

func TestServeReportsListenErrors(t *testing.T) {
	err := serve(&http.Server{Addr: ":-1"}, "HTTP")
	if err == nil {
		t.Fatal("serve() error = nil, want listen error")
	}
	if !strings.Contains(err.Error(), "HTTP server") {
		t.Errorf("error = %q, want server name", err.Error())
	}
}

func TestServeClosedServerIsNotAnError(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0"}
	_ = srv.Close()

	if err := serve(srv, "HTTP"); err != nil {
		t.Errorf("serve() after Close error = %v, want nil", err)
	}
}
