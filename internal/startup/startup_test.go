package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

var configKeys = []string{
	"PORT", "METRICS_PORT", "METRICS_ENABLED", "UPLOAD_DIR", "CONVERTED_DIR",
	"MAX_UPLOAD_BYTES", "FFMPEG_PATH", "TRANSCODE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	"MEMORY_LIMIT", "MEMORY_RATIO", "LOG_HEALTH_CHECKS", "LOG_FILE",
	"LOG_FILE_MAX_SIZE_MB", "LOG_FILE_MAX_BACKUPS", "LOG_FILE_MAX_AGE_DAYS",
}

// clearConfigEnv unsets every configuration variable for the duration of
// the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		if value, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, value) })
		}
		_ = os.Unsetenv(key)
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
}

func TestParseDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Port", cfg.Port, "3000"},
		{"MetricsPort", cfg.MetricsPort, "9090"},
		{"MetricsEnabled", cfg.MetricsEnabled, true},
		{"UploadDir", cfg.UploadDir, "uploads"},
		{"ConvertedDir", cfg.ConvertedDir, "converted"},
		{"MaxUploadBytes", cfg.MaxUploadBytes, int64(10 * 1024 * 1024)},
		{"FFmpegPath", cfg.FFmpegPath, "ffmpeg"},
		{"TranscodeTimeout", cfg.TranscodeTimeout, 10 * time.Minute},
		{"ShutdownTimeout", cfg.ShutdownTimeout, 30 * time.Second},
		{"MemoryLimit", cfg.MemoryLimit, int64(0)},
		{"MemoryRatio", cfg.MemoryRatio, 0.5},
		{"LogHealthChecks", cfg.LogHealthChecks, true},
		{"LogFile", cfg.LogFile, ""},
		{"FFmpegAvailable", cfg.FFmpegAvailable, false},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestParseOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("TRANSCODE_TIMEOUT", "90s")
	t.Setenv("UPLOAD_DIR", "/tmp/in")
	t.Setenv("LOG_HEALTH_CHECKS", "false")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false")
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("MaxUploadBytes = %d, want 1024", cfg.MaxUploadBytes)
	}
	if cfg.TranscodeTimeout != 90*time.Second {
		t.Errorf("TranscodeTimeout = %v, want 90s", cfg.TranscodeTimeout)
	}
	if cfg.UploadDir != "/tmp/in" {
		t.Errorf("UploadDir = %q, want /tmp/in", cfg.UploadDir)
	}
	if cfg.LogHealthChecks {
		t.Error("LogHealthChecks = true, want false")
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"non-numeric port", map[string]string{"PORT": "http"}, "PORT must be a port number"},
		{"port out of range", map[string]string{"METRICS_PORT": "70000"}, "METRICS_PORT must be a port number"},
		{"same ports", map[string]string{"PORT": "9090"}, "must differ"},
		{"zero upload limit", map[string]string{"MAX_UPLOAD_BYTES": "0"}, "MAX_UPLOAD_BYTES must be positive"},
		{"negative transcode timeout", map[string]string{"TRANSCODE_TIMEOUT": "-1s"}, "TRANSCODE_TIMEOUT must not be negative"},
		{"zero shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "0s"}, "SHUTDOWN_TIMEOUT must be positive"},
		{"negative memory limit", map[string]string{"MEMORY_LIMIT": "-5"}, "MEMORY_LIMIT must not be negative"},
		{"unparseable duration", map[string]string{"TRANSCODE_TIMEOUT": "soon"}, "failed to parse config"},
		{"unparseable size", map[string]string{"MAX_UPLOAD_BYTES": "10MB"}, "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Parse()
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestSameMetricsPortAllowedWhenDisabled(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("METRICS_ENABLED", "false")

	if _, err := Parse(); err != nil {
		t.Errorf("Parse() error = %v, want nil", err)
	}
}

func TestSetupDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{
		UploadDir:    filepath.Join(root, "nested", "uploads"),
		ConvertedDir: filepath.Join(root, "converted"),
	}

	if err := cfg.setupDirectories(); err != nil {
		t.Fatalf("setupDirectories() error = %v", err)
	}

	for _, dir := range []string{cfg.UploadDir, cfg.ConvertedDir} {
		if !filepath.IsAbs(dir) {
			t.Errorf("%s is not absolute", dir)
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("%s was not created: %v", dir, err)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("%s holds leftover write-test files: %v", dir, entries)
		}
	}
}

func TestSetupDirectoriesRejectsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{UploadDir: file, ConvertedDir: filepath.Join(root, "converted")}
	err := cfg.setupDirectories()
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("setupDirectories() error = %v, want not a directory", err)
	}
}

func TestCheckFFmpegMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-ffmpeg-here")

	if err := checkFFmpeg(missing); err == nil {
		t.Error("checkFFmpeg() error = nil for a missing binary")
	}
	if LogTranscoderInit(missing, time.Minute) {
		t.Error("LogTranscoderInit() = true for a missing binary")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{10 * 1024 * 1024, "10 MB"},
		{3 * 1024 * 1024 * 1024, "3 GB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	router := mux.NewRouter()
	router.HandleFunc("/convert", noop).Methods(http.MethodPost).Name("convert")
	router.HandleFunc("/livez", noop).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/version", noop)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("GetRoutes() returned %d routes, want 4: %+v", len(routes), routes)
	}
	if routes[0] != (RouteInfo{Method: http.MethodPost, Path: "/convert", Name: "convert"}) {
		t.Errorf("routes[0] = %+v", routes[0])
	}
	if routes[3].Method != "*" {
		t.Errorf("route without methods reported %q, want *", routes[3].Method)
	}

	LogHTTPRoutes(router, true)
	LogHTTPRoutes(router, false)
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "root"},
		{"/convert", "convert"},
		{"/healthz", "health checks"},
		{"/readyz", "health checks"},
		{"/version", "version"},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLogFunctionsDoNotPanic(_ *testing.T) {
	LogServerStarted(ServerConfig{Port: "3000", MetricsPort: "9090", MetricsEnabled: true, StartupDuration: time.Second})
	LogServerStarted(ServerConfig{Port: "3000"})
	LogShutdownInitiated("SIGTERM")
	LogShutdownStep("Stopping HTTP server")
	LogShutdownStepComplete("HTTP server stopped")
	LogShutdownComplete()
	LogWorkspacePurged(0)
	LogWorkspacePurged(2048)
}
