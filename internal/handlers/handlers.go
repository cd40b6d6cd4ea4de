package handlers

import (
	"time"

	"webm2mp4/internal/filesystem"
	"webm2mp4/internal/logging"
	"webm2mp4/internal/startup"
	"webm2mp4/internal/streaming"
	"webm2mp4/internal/transcoder"
	"webm2mp4/internal/workspace"
)

// MemoryReporter reports whether the process is short on memory.
type MemoryReporter interface {
	UnderPressure() bool
}

// Handlers serves the conversion API and its health checks.
type Handlers struct {
	workspace       *workspace.Workspace
	transcoder      *transcoder.Transcoder
	memory          MemoryReporter
	maxUploadBytes  int64
	ffmpegAvailable bool
	streamConfig    streaming.TimeoutWriterConfig
	retry           filesystem.RetryConfig
	startTime       time.Time
}

// New creates the handlers. mem may be nil when memory monitoring is off.
func New(ws *workspace.Workspace, trans *transcoder.Transcoder, mem MemoryReporter, config *startup.Config) *Handlers {
	streamConfig := streaming.DefaultTimeoutWriterConfig()
	streamConfig.OnProgress = func(bytesWritten int64, duration time.Duration) {
		logging.Debug("Streamed %d bytes in %v", bytesWritten, duration)
	}

	return &Handlers{
		workspace:       ws,
		transcoder:      trans,
		memory:          mem,
		maxUploadBytes:  config.MaxUploadBytes,
		ffmpegAvailable: config.FFmpegAvailable,
		streamConfig:    streamConfig,
		retry:           filesystem.DefaultRetryConfig(),
		startTime:       time.Now(),
	}
}
