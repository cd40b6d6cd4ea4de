package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webm2mp4/internal/filesystem"
	"webm2mp4/internal/handlers"
	"webm2mp4/internal/logging"
	"webm2mp4/internal/memory"
	"webm2mp4/internal/metrics"
	"webm2mp4/internal/middleware"
	"webm2mp4/internal/startup"
	"webm2mp4/internal/transcoder"
	"webm2mp4/internal/workspace"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const (
	collectorInterval   = 30 * time.Second
	transcoderDrainTime = 5 * time.Second
)

// components are the long-lived pieces stopped during shutdown.
type components struct {
	server        *http.Server
	metricsServer *http.Server
	transcoder    *transcoder.Transcoder
	collector     *metrics.Collector
	monitor       *memory.Monitor
}

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	if err := logging.EnableFile(logging.FileConfig{
		Path:       config.LogFile,
		MaxSizeMB:  config.LogFileMaxSizeMB,
		MaxBackups: config.LogFileMaxBackups,
		MaxAgeDays: config.LogFileMaxAgeDays,
		Compress:   true,
	}); err != nil {
		startup.LogFatal("Failed to open log file: %v", err)
	}

	// Memory limit and pressure monitoring
	memResult := memory.Configure(config.MemoryLimit, config.MemoryRatio)
	memConfig := memory.DefaultConfig()
	memConfig.MemoryLimitBytes = memResult.GoMemLimit
	monitor := memory.NewMonitor(memConfig)
	monitor.Start()

	// Metrics
	metrics.InitializeMetrics()
	buildInfo := startup.GetBuildInfo()
	metrics.SetAppInfo(buildInfo.Version, buildInfo.Commit, buildInfo.GoVersion)

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		workspace.UploadsVolume:   config.UploadDir,
		workspace.ConvertedVolume: config.ConvertedDir,
	}))

	// Workspace: anything left over belongs to a previous process
	ws := workspace.New(config.UploadDir, config.ConvertedDir)
	freed, err := ws.Purge(0)
	if err != nil {
		logging.Warn("Failed to purge leftover temporary files: %v", err)
	}
	startup.LogWorkspacePurged(freed)

	collector := metrics.NewCollector(ws, collectorInterval)
	collector.Start()

	trans := transcoder.New(config.FFmpegPath, config.TranscodeTimeout, nil)

	// Initialize handlers
	h := handlers.New(ws, trans, monitor, config)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	app := &components{
		server: &http.Server{
			Addr:              ":" + config.Port,
			Handler:           buildHandler(router, config),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       2 * time.Minute,
			WriteTimeout:      0,
			IdleTimeout:       60 * time.Second,
		},
		transcoder: trans,
		collector:  collector,
		monitor:    monitor,
	}
	if config.MetricsEnabled {
		app.metricsServer = newMetricsServer(config.MetricsPort, h.MetricsHandler())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return serve(app.server, "HTTP") })
	if app.metricsServer != nil {
		g.Go(func() error { return serve(app.metricsServer, "metrics") })
	}
	g.Go(func() error {
		select {
		case sig := <-sigChan:
			startup.LogShutdownInitiated(sig.String())
		case <-ctx.Done():
			startup.LogShutdownInitiated("server error")
		}
		app.shutdown(config.ShutdownTimeout)
		return nil
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	waitErr := g.Wait()
	if err := logging.Close(); err != nil {
		logging.Warn("Failed to close log file: %v", err)
	}
	if waitErr != nil {
		startup.LogFatal("Server error: %v", waitErr)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/convert", h.Convert).Methods(http.MethodPost).Name("convert")

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	return r
}

// buildHandler wraps the router in the middleware chain. The request ID is
// assigned first so every later layer can log it.
func buildHandler(router http.Handler, config *startup.Config) http.Handler {
	handler := middleware.Recoverer(router)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	return middleware.RequestID(handler)
}

func newMetricsServer(port string, metricsHandler http.Handler) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	return &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

func serve(srv *http.Server, name string) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server on %s: %w", name, srv.Addr, err)
	}
	return nil
}

// shutdown lets in-flight conversions finish within timeout, then cancels
// whatever FFmpeg processes remain so their handlers can clean up.
func (c *components) shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := c.server.Shutdown(ctx); err != nil {
		logging.Warn("HTTP server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping transcoder")
	c.transcoder.Cleanup()
	drainCtx, drainCancel := context.WithTimeout(context.Background(), transcoderDrainTime)
	defer drainCancel()
	if err := c.transcoder.Wait(drainCtx); err != nil {
		logging.Warn("Transcoder did not stop in time: %v", err)
	} else {
		startup.LogShutdownStepComplete("Transcoder stopped")
	}

	if c.metricsServer != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := c.metricsServer.Shutdown(drainCtx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	c.collector.Stop()
	c.monitor.Stop()
	startup.LogShutdownStepComplete("Background monitors stopped")

	startup.LogShutdownComplete()
}
