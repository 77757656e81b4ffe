// Package invoke runs external tools as bounded subprocesses.
//
// Every phase of the pipeline talks to its external tool (story generator,
// coding agent, reviewer) through the same contract: a command, piped input,
// a hard wall-clock timeout, and a captured result. The invoker classifies
// the outcome so callers can distinguish a timeout from a crash from a tool
// that exited cleanly while producing nothing.
//
// Key types:
//   - [Runner] - interface for running a bounded subprocess
//   - [ExecRunner] - production implementation on os/exec
//   - [MockRunner] - test implementation with scripted results
//   - [Result] - captured output plus an outcome [Classification]
//
// The invoker never retries; retry policy belongs to the loop.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Classification is the disambiguated outcome of one invocation.
type Classification string

const (
	// Success: zero exit and non-empty output.
	Success Classification = "success"

	// Timeout: the wall-clock timeout fired and the process was killed.
	// Partial output is still captured, but no state from the abandoned
	// process may be trusted.
	Timeout Classification = "timeout"

	// NonZeroExit: the process finished on its own with a non-zero code.
	NonZeroExit Classification = "non-zero-exit"

	// EmptyOutput: the process exited zero but produced no payload. A model
	// returning nothing is common and must not pass for success.
	EmptyOutput Classification = "empty-output"
)

// Request describes one subprocess invocation.
type Request struct {
	// Command is the executable name or path.
	Command string

	// Args are the command arguments.
	Args []string

	// Input is piped to the process on stdin. Empty means no stdin.
	Input string

	// Dir is the working directory. Empty means inherit.
	Dir string

	// Timeout is the hard wall-clock bound. Zero or negative disables it.
	Timeout time.Duration
}

// Result is the captured outcome of one invocation. It is never persisted;
// the calling phase handler consumes it immediately.
type Result struct {
	Classification Classification
	Stdout         string
	Stderr         string
	ExitCode       int
	Duration       time.Duration
}

// Failed reports whether the invocation is anything other than Success.
func (r Result) Failed() bool {
	return r.Classification != Success
}

// Cause returns a short human-readable description of a failed result.
func (r Result) Cause() string {
	switch r.Classification {
	case Timeout:
		return fmt.Sprintf("timed out after %s", r.Duration.Round(time.Second))
	case NonZeroExit:
		return fmt.Sprintf("exited with code %d: %s", r.ExitCode, firstLine(r.Stderr))
	case EmptyOutput:
		return "produced no output"
	default:
		return ""
	}
}

// Runner runs one external command to completion.
//
// The returned error covers only the inability to run the command at all
// (binary missing, pipe failure); everything the process itself does is
// reported through the Result classification.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// ExecRunner implements [Runner] on os/exec.
type ExecRunner struct{}

// NewRunner creates an [ExecRunner].
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the request and classifies the outcome.
//
// Stdout and stderr are captured separately and returned even when the call
// fails or times out, so partial output stays inspectable. The timeout is
// enforced with a context deadline; once fired the process is killed and the
// result is classified [Timeout] regardless of the exit code the kill
// produced.
func (e *ExecRunner) Run(ctx context.Context, req Request) (Result, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, req.Command, req.Args...)
	if req.Dir != "" {
		cmd.Dir = req.Dir
	}
	if req.Input != "" {
		cmd.Stdin = strings.NewReader(req.Input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.Classification = Timeout
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.Classification = NonZeroExit
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// The command never ran (not found, not executable, ...).
		return result, fmt.Errorf("failed to run %s: %w", req.Command, err)
	}

	if strings.TrimSpace(result.Stdout) == "" {
		result.Classification = EmptyOutput
		return result, nil
	}

	result.Classification = Success
	return result, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
