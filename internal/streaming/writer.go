package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"webm2mp4/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a write, or the gap between writes,
	// exceeded its configured timeout. Usually a client reading too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the request context was canceled before the
	// stream completed.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates that the writer was closed or its context
	// expired for a reason other than the client leaving.
	ErrStreamCanceled = errors.New("stream canceled")
)

// progressInterval is how many bytes pass between OnProgress calls.
const progressInterval = 1024 * 1024

// TimeoutWriterConfig configures the timeout writer behavior
type TimeoutWriterConfig struct {
	// WriteTimeout is the maximum time to wait for a single write operation
	WriteTimeout time.Duration
	// IdleTimeout is the maximum time between successful writes
	IdleTimeout time.Duration
	// MaxDuration is the absolute maximum streaming duration (0 = unlimited)
	MaxDuration time.Duration
	// ChunkSize is the size of chunks to write (0 = write as received)
	ChunkSize int
	// OnProgress is called roughly every megabyte with the running total
	OnProgress func(bytesWritten int64, duration time.Duration)
}

// DefaultTimeoutWriterConfig returns the settings used for converted videos.
func DefaultTimeoutWriterConfig() TimeoutWriterConfig {
	return TimeoutWriterConfig{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxDuration:  0,
		ChunkSize:    256 * 1024,
	}
}

// TimeoutWriter wraps an http.ResponseWriter with timeout protection
type TimeoutWriter struct {
	w            http.ResponseWriter
	ctx          context.Context
	cancel       context.CancelFunc
	config       TimeoutWriterConfig
	startTime    time.Time
	flusher      http.Flusher
	mu           sync.Mutex
	lastWrite    time.Time
	lastProgress int64
	bytesWritten int64
	closed       bool
	timedOut     bool

	// inflight counts Write calls on w that have not returned yet.
	inflight sync.WaitGroup
}

// NewTimeoutWriter creates a new timeout-protected writer
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config TimeoutWriterConfig) *TimeoutWriter {
	writerCtx, cancel := context.WithCancel(ctx)

	now := time.Now()
	tw := &TimeoutWriter{
		w:         w,
		ctx:       writerCtx,
		cancel:    cancel,
		config:    config,
		startTime: now,
		lastWrite: now,
	}

	if flusher, ok := w.(http.Flusher); ok {
		tw.flusher = flusher
	}

	go tw.idleChecker()

	return tw
}

// Write implements io.Writer with timeout protection
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	closed := tw.closed
	tw.mu.Unlock()
	if closed {
		return 0, ErrStreamCanceled
	}

	if err := tw.checkContext(); err != nil {
		return 0, err
	}

	if tw.config.MaxDuration > 0 && time.Since(tw.startTime) > tw.config.MaxDuration {
		return 0, ErrWriteTimeout
	}

	if tw.config.ChunkSize > 0 && len(p) > tw.config.ChunkSize {
		return tw.writeChunked(p)
	}

	return tw.writeWithTimeout(p)
}

func (tw *TimeoutWriter) writeChunked(p []byte) (int, error) {
	totalWritten := 0

	for len(p) > 0 {
		if err := tw.checkContext(); err != nil {
			return totalWritten, err
		}

		chunkSize := min(tw.config.ChunkSize, len(p))

		n, err := tw.writeWithTimeout(p[:chunkSize])
		totalWritten += n
		if err != nil {
			return totalWritten, err
		}

		p = p[chunkSize:]
	}

	return totalWritten, nil
}

func (tw *TimeoutWriter) writeWithTimeout(p []byte) (int, error) {
	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	tw.mu.Lock()
	if tw.closed {
		tw.mu.Unlock()
		return 0, ErrStreamCanceled
	}
	tw.inflight.Add(1)
	tw.mu.Unlock()

	go func() {
		defer tw.inflight.Done()
		n, err := tw.w.Write(p)
		if err == nil && tw.flusher != nil {
			tw.flusher.Flush()
		}
		resultCh <- writeResult{n, err}
	}()

	var timeout <-chan time.Time
	if tw.config.WriteTimeout > 0 {
		timer := time.NewTimer(tw.config.WriteTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case result := <-resultCh:
		if result.n > 0 {
			tw.recordWrite(result.n)
		}
		return result.n, result.err

	case <-timeout:
		tw.expire()
		tw.abortWrites()
		return 0, ErrWriteTimeout

	case <-tw.ctx.Done():
		tw.abortWrites()
		return 0, tw.contextError()
	}
}

// abortWrites unblocks a Write stuck on the connection by moving its write
// deadline to now. Writers without deadline support are left to finish.
func (tw *TimeoutWriter) abortWrites() {
	err := http.NewResponseController(tw.w).SetWriteDeadline(time.Now())
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		logging.Debug("Failed to set write deadline: %v", err)
	}
}

func (tw *TimeoutWriter) recordWrite(n int) {
	tw.mu.Lock()
	tw.lastWrite = time.Now()
	tw.bytesWritten += int64(n)
	total := tw.bytesWritten
	report := tw.config.OnProgress != nil && total-tw.lastProgress >= progressInterval
	if report {
		tw.lastProgress = total
	}
	tw.mu.Unlock()

	if report {
		tw.config.OnProgress(total, time.Since(tw.startTime))
	}
}

func (tw *TimeoutWriter) idleChecker() {
	if tw.config.IdleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(tw.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tw.mu.Lock()
			idle := time.Since(tw.lastWrite)
			closed := tw.closed
			tw.mu.Unlock()

			if closed {
				return
			}

			if idle > tw.config.IdleTimeout {
				logging.Warn("Stream idle timeout exceeded: %v", idle)
				tw.expire()
				return
			}

		case <-tw.ctx.Done():
			return
		}
	}
}

func (tw *TimeoutWriter) expire() {
	tw.mu.Lock()
	tw.timedOut = true
	tw.mu.Unlock()
	tw.cancel()
}

func (tw *TimeoutWriter) checkContext() error {
	select {
	case <-tw.ctx.Done():
		return tw.contextError()
	default:
		return nil
	}
}

func (tw *TimeoutWriter) contextError() error {
	tw.mu.Lock()
	timedOut, closed := tw.timedOut, tw.closed
	tw.mu.Unlock()

	switch {
	case timedOut:
		return ErrWriteTimeout
	case closed:
		return ErrStreamCanceled
	case errors.Is(tw.ctx.Err(), context.Canceled):
		return ErrClientGone
	default:
		return ErrStreamCanceled
	}
}

// Close marks the writer as closed, stops the idle checker and waits for any
// Write still running on the underlying ResponseWriter. After Close returns
// the ResponseWriter is no longer touched.
func (tw *TimeoutWriter) Close() error {
	tw.mu.Lock()
	if tw.closed {
		tw.mu.Unlock()
		return nil
	}
	tw.closed = true
	tw.mu.Unlock()

	tw.cancel()
	tw.inflight.Wait()

	return nil
}

// Stats returns streaming statistics
func (tw *TimeoutWriter) Stats() (bytesWritten int64, duration time.Duration) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.bytesWritten, time.Since(tw.startTime)
}

// StreamWithTimeout copies r to the response with timeout protection and
// returns the number of bytes written. A non-negative size is sent as
// Content-Length; otherwise the response is chunked. Callers set
// Content-Type and any other headers beforehand.
func StreamWithTimeout(ctx context.Context, w http.ResponseWriter, r io.Reader, size int64, config TimeoutWriterConfig) (int64, error) {
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	} else {
		w.Header().Del("Content-Length")
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	tw := NewTimeoutWriter(ctx, w, config)
	defer func() {
		if err := tw.Close(); err != nil {
			logging.Warn("Failed to close timeout writer: %v", err)
		}
	}()

	buf := make([]byte, max(config.ChunkSize, 32*1024))
	_, err := io.CopyBuffer(tw, r, buf)

	bytesWritten, duration := tw.Stats()
	logging.Debug("Stream completed: %d bytes in %v", bytesWritten, duration)

	return bytesWritten, err
}
