package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"webm2mp4/internal/filesystem"
	"webm2mp4/internal/logging"
	"webm2mp4/internal/mediatypes"
	"webm2mp4/internal/metrics"
)

// Volume labels for the two temporary directories.
const (
	UploadsVolume   = "uploads"
	ConvertedVolume = "converted"
)

// ErrTooLarge is returned by SaveUpload when the upload exceeds its limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Workspace creates and removes per-request temporary files.
type Workspace struct {
	uploadDir    string
	convertedDir string
	retry        filesystem.RetryConfig

	now   func() time.Time
	newID func() string
}

// New creates a Workspace over two existing directories.
func New(uploadDir, convertedDir string) *Workspace {
	return &Workspace{
		uploadDir:    uploadDir,
		convertedDir: convertedDir,
		retry:        filesystem.DefaultRetryConfig(),
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}
}

// UploadDir returns the directory holding uploads.
func (w *Workspace) UploadDir() string { return w.uploadDir }

// ConvertedDir returns the directory holding converted artifacts.
func (w *Workspace) ConvertedDir() string { return w.convertedDir }

// NewJob reserves names for one request's upload and output. No files are
// created yet.
func (w *Workspace) NewJob() *Job {
	stamp := w.now().UnixMilli()
	id := w.newID()

	uploadName := fmt.Sprintf("%d-%s-input%s", stamp, id, mediatypes.Input.Extension)
	outputName := fmt.Sprintf("%d-%s-output%s", stamp, id, mediatypes.Output.Extension)

	return &Job{
		ID:         id,
		UploadPath: filepath.Join(w.uploadDir, uploadName),
		OutputPath: filepath.Join(w.convertedDir, outputName),
		OutputName: outputName,
		state:      StateReceived,
		retry:      w.retry,
	}
}

// SaveUpload writes src to the job's upload path, failing with ErrTooLarge
// once more than limit bytes have been read. A limit <= 0 disables the check.
// The partially written file is left for Cleanup.
func (w *Workspace) SaveUpload(job *Job, src io.Reader, limit int64) (int64, error) {
	f, err := os.OpenFile(job.UploadPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}

	reader := src
	if limit > 0 {
		reader = io.LimitReader(src, limit+1)
	}

	n, copyErr := io.Copy(f, reader)
	closeErr := f.Close()

	if copyErr != nil {
		return n, fmt.Errorf("write upload file: %w", copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("close upload file: %w", closeErr)
	}
	if limit > 0 && n > limit {
		return n, ErrTooLarge
	}
	return n, nil
}

// Writable checks that both directories accept new files.
func (w *Workspace) Writable() error {
	for _, dir := range []string{w.uploadDir, w.convertedDir} {
		f, err := os.CreateTemp(dir, ".write-test-*")
		if err != nil {
			return fmt.Errorf("%s is not writable: %w", dir, err)
		}
		name := f.Name()
		_ = f.Close()
		if err := os.Remove(name); err != nil {
			logging.Warn("failed to remove write test file %s: %v", name, err)
		}
	}
	return nil
}

// Usage reports the number and size of files in each directory. Hidden
// files, such as the ones Writable creates, are not counted.
func (w *Workspace) Usage() map[string]metrics.DirUsage {
	usage := make(map[string]metrics.DirUsage, 2)
	for volume, dir := range w.dirs() {
		var u metrics.DirUsage
		entries, err := os.ReadDir(dir)
		if err != nil {
			logging.Debug("failed to read %s: %v", dir, err)
			usage[volume] = u
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			u.Files++
			u.Bytes += info.Size()
		}
		usage[volume] = u
	}
	return usage
}

// Purge removes files last modified before the cutoff age from both
// directories and returns the number of bytes freed. It is meant for
// artifacts left behind by a crashed process, so a zero age removes
// everything.
func (w *Workspace) Purge(olderThan time.Duration) (int64, error) {
	cutoff := w.now().Add(-olderThan)
	var freedBytes int64

	for _, dir := range w.dirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return freedBytes, fmt.Errorf("failed to read workspace directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())

			info, err := entry.Info()
			if err != nil {
				logging.Warn("failed to get info for %s: %v", path, err)
				continue
			}
			if olderThan > 0 && info.ModTime().After(cutoff) {
				continue
			}

			if err := filesystem.RemoveWithRetry(path, w.retry); err != nil && !errors.Is(err, os.ErrNotExist) {
				logging.Warn("failed to remove file %s: %v", path, err)
				continue
			}
			freedBytes += info.Size()
		}
	}

	return freedBytes, nil
}

func (w *Workspace) dirs() map[string]string {
	return map[string]string{
		UploadsVolume:   w.uploadDir,
		ConvertedVolume: w.convertedDir,
	}
}
