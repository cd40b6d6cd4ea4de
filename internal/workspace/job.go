package workspace

import (
	"errors"
	"os"
	"sync"

	"webm2mp4/internal/filesystem"
	"webm2mp4/internal/logging"
	"webm2mp4/internal/metrics"
)

// State is a step in the lifecycle of a conversion request.
type State string

const (
	StateReceived    State = "received"
	StateValidated   State = "validated"
	StatePersisted   State = "persisted"
	StateTranscoding State = "transcoding"
	StateStreaming   State = "streaming"
	StateFailed      State = "failed"
	StateCleanedUp   State = "cleaned_up"
)

// Job is the per-request view of the workspace.
type Job struct {
	ID         string
	UploadPath string
	OutputPath string
	// OutputName is the suggested download filename.
	OutputName string

	retry filesystem.RetryConfig

	mu        sync.Mutex
	state     State
	cleanOnce sync.Once
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Advance moves the job to the next state. Once cleaned up, a job stays
// cleaned up.
func (j *Job) Advance(next State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateCleanedUp {
		return
	}
	logging.Debug("job %s: %s -> %s", j.ID, j.state, next)
	j.state = next
}

// Cleanup removes the upload and the output. Missing files are ignored;
// other failures are logged and counted but never returned, since the
// response has already been committed by the time cleanup runs.
func (j *Job) Cleanup() {
	j.cleanOnce.Do(func() {
		j.remove(j.UploadPath, "upload")
		j.remove(j.OutputPath, "output")
		j.Advance(StateCleanedUp)
	})
}

func (j *Job) remove(path, kind string) {
	err := filesystem.RemoveWithRetry(path, j.retry)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return
	}
	metrics.CleanupErrorsTotal.WithLabelValues(kind).Inc()
	logging.Warn("job %s: failed to remove %s file %s: %v", j.ID, kind, path, err)
}
