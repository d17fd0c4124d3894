package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ExitError carries the exit code and captured stderr of a failed invocation.
type ExitError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, detail)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner executes ffmpeg commands. The runner func indirection exists for tests.
type Runner struct {
	binary string
	runner func(ctx context.Context, name string, args ...string) error
}

// NewRunner returns a Runner for the given binary ("ffmpeg" when empty).
func NewRunner(binary string) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Runner{binary: binary}
}

// WithRunner sets a custom command runner (for testing).
func (r *Runner) WithRunner(runner func(ctx context.Context, name string, args ...string) error) *Runner {
	r.runner = runner
	return r
}

// Run executes ffmpeg with the provided arguments. A non-zero exit returns an
// *ExitError with stderr captured; context cancellation kills the process and
// returns the context error.
func (r *Runner) Run(ctx context.Context, args ...string) error {
	if r.runner != nil {
		return r.runner(ctx, r.binary, args...)
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return &ExitError{ExitCode: exitCode, Stderr: stderr.String(), Err: err}
}
