package transcoder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"webm2mp4/internal/logging"
	"webm2mp4/internal/metrics"
)

// ErrShuttingDown is returned for conversions started after Cleanup.
var ErrShuttingDown = errors.New("transcoder is shutting down")

// Result is the outcome of one conversion. A nil Err means the output file
// was written.
type Result struct {
	InputPath  string
	OutputPath string
	Duration   time.Duration
	Err        error
}

// Succeeded reports whether the conversion produced its output.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Canceled reports whether the conversion was stopped by its context rather
// than failing on its own.
func (r Result) Canceled() bool {
	return errors.Is(r.Err, context.Canceled)
}

// Transcoder runs FFmpeg conversions and tracks them until they finish.
type Transcoder struct {
	ffmpegPath string
	timeout    time.Duration
	runner     CommandRunner

	jobs   map[string]context.CancelFunc
	jobsMu sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Transcoder. A zero timeout leaves conversions bounded only by
// the caller's context. A nil runner uses ExecCommandRunner.
func New(ffmpegPath string, timeout time.Duration, runner CommandRunner) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if runner == nil {
		runner = ExecCommandRunner{}
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
		runner:     runner,
		jobs:       make(map[string]context.CancelFunc),
	}
}

// Args returns the FFmpeg arguments that convert inputPath to an H.264/AAC
// MP4 at outputPath with the index moved to the front of the file.
func Args(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	}
}

// Start launches a conversion in its own goroutine and returns a channel that
// receives exactly one Result. The conversion is cancelled when ctx is done,
// when the configured timeout elapses, or when Cleanup is called.
func (t *Transcoder) Start(ctx context.Context, inputPath, outputPath string) <-chan Result {
	results := make(chan Result, 1)

	var cancel context.CancelFunc
	if t.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	t.jobsMu.Lock()
	if t.closed {
		t.jobsMu.Unlock()
		cancel()
		results <- Result{InputPath: inputPath, OutputPath: outputPath, Err: ErrShuttingDown}
		return results
	}
	t.jobs[outputPath] = cancel
	t.wg.Add(1)
	t.jobsMu.Unlock()

	go func() {
		defer t.wg.Done()
		defer t.untrack(outputPath, cancel)
		results <- t.run(ctx, inputPath, outputPath)
	}()

	return results
}

func (t *Transcoder) run(ctx context.Context, inputPath, outputPath string) Result {
	metrics.TranscoderJobsInProgress.Inc()
	defer metrics.TranscoderJobsInProgress.Dec()

	start := time.Now()
	logging.Debug("Transcoding %s -> %s", inputPath, outputPath)

	err := t.runner.Run(ctx, t.ffmpegPath, Args(inputPath, outputPath)...)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	result := Result{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Duration:   time.Since(start),
	}
	metrics.TranscoderJobDuration.Observe(result.Duration.Seconds())

	switch {
	case err == nil:
		metrics.TranscoderJobsTotal.WithLabelValues("success").Inc()
		logging.Debug("Transcoded %s in %v", inputPath, result.Duration)
	case ctx.Err() != nil:
		result.Err = fmt.Errorf("transcoding %s: %w", inputPath, ctx.Err())
		metrics.TranscoderJobsTotal.WithLabelValues("canceled").Inc()
		logging.Warn("Transcoding of %s stopped after %v: %v", inputPath, result.Duration, ctx.Err())
	default:
		result.Err = fmt.Errorf("transcoding %s: %w", inputPath, err)
		metrics.TranscoderJobsTotal.WithLabelValues("error").Inc()
		logging.Error("Transcoding of %s failed: %v", inputPath, err)
	}

	return result
}

func (t *Transcoder) untrack(outputPath string, cancel context.CancelFunc) {
	cancel()
	t.jobsMu.Lock()
	delete(t.jobs, outputPath)
	t.jobsMu.Unlock()
}

// Active returns the number of conversions currently running.
func (t *Transcoder) Active() int {
	t.jobsMu.Lock()
	defer t.jobsMu.Unlock()
	return len(t.jobs)
}

// Cleanup cancels every running conversion and refuses new ones.
func (t *Transcoder) Cleanup() {
	t.jobsMu.Lock()
	defer t.jobsMu.Unlock()

	t.closed = true
	for path, cancel := range t.jobs {
		logging.Info("Killing transcoding process for: %s", path)
		cancel()
	}
}

// Wait blocks until every running conversion has delivered its Result or ctx
// is done.
func (t *Transcoder) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
