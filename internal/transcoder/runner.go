package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// maxStderrBytes bounds how much FFmpeg output is kept in a failure reason.
const maxStderrBytes = 4096

// CommandRunner abstracts exec.CommandContext so tests can inject a stub.
type CommandRunner interface {
	// Run executes name with args and returns any error.
	Run(ctx context.Context, name string, args ...string) error
}

// ExecCommandRunner is the real CommandRunner that shells out to the system.
type ExecCommandRunner struct{}

// Run executes name with args using os/exec. The process is killed when ctx
// is done.
func (ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s interrupted: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s exited with error: %w - %s", name, err, tail(stderr.String(), maxStderrBytes))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
