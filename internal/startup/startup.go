package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"webm2mp4/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration. It is loaded once at startup
// and treated as read-only afterwards.
type Config struct {
	Port           string `env:"PORT" envDefault:"3000"`
	MetricsPort    string `env:"METRICS_PORT" envDefault:"9090"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	ConvertedDir   string `env:"CONVERTED_DIR" envDefault:"converted"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	FFmpegPath       string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	TranscodeTimeout time.Duration `env:"TRANSCODE_TIMEOUT" envDefault:"10m"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	MemoryLimit int64   `env:"MEMORY_LIMIT" envDefault:"0"`
	MemoryRatio float64 `env:"MEMORY_RATIO" envDefault:"0.5"`

	LogHealthChecks   bool   `env:"LOG_HEALTH_CHECKS" envDefault:"true"`
	LogFile           string `env:"LOG_FILE"`
	LogFileMaxSizeMB  int    `env:"LOG_FILE_MAX_SIZE_MB" envDefault:"100"`
	LogFileMaxBackups int    `env:"LOG_FILE_MAX_BACKUPS" envDefault:"3"`
	LogFileMaxAgeDays int    `env:"LOG_FILE_MAX_AGE_DAYS" envDefault:"28"`

	// FFmpegAvailable records whether FFmpegPath answered -version at startup.
	FFmpegAvailable bool
}

// Parse reads the configuration from the environment, after loading an
// optional .env file from the working directory, and validates it.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	for name, port := range map[string]string{"PORT": c.Port, "METRICS_PORT": c.MetricsPort} {
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			errs = append(errs, fmt.Errorf("%s must be a port number between 1 and 65535, got %q", name, port))
		}
	}
	if c.MetricsEnabled && c.Port == c.MetricsPort {
		errs = append(errs, fmt.Errorf("PORT and METRICS_PORT must differ, both are %s", c.Port))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}
	if c.TranscodeTimeout < 0 {
		errs = append(errs, fmt.Errorf("TRANSCODE_TIMEOUT must not be negative, got %v", c.TranscodeTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
	}
	if c.MemoryLimit < 0 {
		errs = append(errs, fmt.Errorf("MEMORY_LIMIT must not be negative, got %d", c.MemoryLimit))
	}
	if c.UploadDir == "" || c.ConvertedDir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR and CONVERTED_DIR must be set"))
	}

	return errors.Join(errs...)
}

// LoadConfig loads and validates configuration, creates the temporary
// directories and checks FFmpeg.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := Parse()
	if err != nil {
		return nil, err
	}

	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  UPLOAD_DIR:          %s", config.UploadDir)
	logging.Info("  CONVERTED_DIR:       %s", config.ConvertedDir)
	logging.Info("  MAX_UPLOAD_BYTES:    %d (%s)", config.MaxUploadBytes, FormatBytes(config.MaxUploadBytes))
	logging.Info("  FFMPEG_PATH:         %s", config.FFmpegPath)
	logging.Info("  TRANSCODE_TIMEOUT:   %v", config.TranscodeTimeout)
	logging.Info("  SHUTDOWN_TIMEOUT:    %v", config.ShutdownTimeout)
	if config.MemoryLimit > 0 {
		logging.Info("  MEMORY_LIMIT:        %s", FormatBytes(config.MemoryLimit))
		logging.Info("  MEMORY_RATIO:        %.2f", config.MemoryRatio)
	}
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	if config.LogFile != "" {
		logging.Info("  LOG_FILE:            %s", config.LogFile)
	}
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := config.setupDirectories(); err != nil {
		return nil, err
	}

	config.FFmpegAvailable = LogTranscoderInit(config.FFmpegPath, config.TranscodeTimeout)

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Conversion:  %s", enabledString(config.FFmpegAvailable))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func (c *Config) setupDirectories() error {
	dirs := []struct {
		name string
		path *string
	}{
		{"upload", &c.UploadDir},
		{"converted", &c.ConvertedDir},
	}

	for _, d := range dirs {
		abs, err := filepath.Abs(*d.path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s directory path: %w", d.name, err)
		}
		*d.path = abs
		logging.Info("  %s directory (absolute): %s", capitalize(d.name), abs)

		if err := ensureDirectory(abs, d.name); err != nil {
			return fmt.Errorf("%s directory error: %w", d.name, err)
		}

		logging.Debug("  Testing %s directory write access...", d.name)
		if err := testWriteAccess(abs); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", d.name, err)
		}
		logging.Info("  [OK] %s directory is writable", capitalize(d.name))
	}

	if c.UploadDir == c.ConvertedDir {
		logging.Warn("  UPLOAD_DIR and CONVERTED_DIR are the same directory")
	}

	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// FormatBytes renders a byte count with a binary unit, e.g. "10 MB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := []string{"KB", "MB", "GB", "TB", "PB", "EB"}[exp]
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d %s", int64(value), suffix)
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}

// LogTranscoderInit logs transcoder initialization and reports whether
// FFmpeg is usable.
func LogTranscoderInit(ffmpegPath string, timeout time.Duration) bool {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if timeout > 0 {
		logging.Info("  Conversion timeout: %v", timeout)
	} else {
		logging.Info("  Conversion timeout: none")
	}

	if err := checkFFmpeg(ffmpegPath); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Conversions will fail until FFmpeg is installed")
		return false
	}

	logging.Info("  [OK] FFmpeg is available")
	return true
}

// LogWorkspacePurged logs the removal of files left over from a previous run.
func LogWorkspacePurged(freedBytes int64) {
	if freedBytes > 0 {
		logging.Info("  Removed %s of leftover temporary files", FormatBytes(freedBytes))
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			group := getRouteGroup(route.Path)
			groups[group] = append(groups[group], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			logging.Debug("  [%s]", group)
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

var healthCheckPaths = map[string]bool{
	"health":  true,
	"healthz": true,
	"livez":   true,
	"readyz":  true,
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	switch {
	case first == "":
		return "root"
	case healthCheckPaths[first]:
		return "health checks"
	default:
		return first
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Convert:       POST http://0.0.0.0:%s/convert", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    curl -F video=@clip.webm -o clip.mp4 http://localhost:%s/convert", config.Port)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
              __    ___            ___       __ __
 _      _____/ /_  |__ \ ____ ___ / _ \ ____/ // /
| | /| / / _ \ __ \__/ // __ '__ \ ,__// __ '_  _/
| |/ |/ /  __/ /_/ / __// / / / / /   / /_/ // /
|__/|__/\___/_.___/____/_/ /_/ /_/   / .___//_/
                                    /_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		logging.Warn("failed to remove write test file %s: %v", name, err)
	}
	return nil
}

func checkFFmpeg(ffmpegPath string) error {
	path, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return fmt.Errorf("%s not found: %w", ffmpegPath, err)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Info("  FFmpeg version: %s", strings.TrimSpace(first))
	}

	return nil
}
