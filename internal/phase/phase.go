// Package phase implements the three pipeline phases: story creation,
// development, and adversarial review.
//
// Each phase is a [Handler] that takes a story key, drives an external tool
// through the invoke contract, verifies that real work happened, and reports
// the status the story should transition to. Handlers never write the status
// document themselves; the loop owns status transitions so that every
// transition funnels through one code path.
//
// Key types:
//   - [Handler] - one phase of the pipeline
//   - [Outcome] - the result of a successful phase run
//   - [Creator], [Developer], [Reviewer] - the three concrete handlers
package phase

import (
	"context"
	"fmt"
	"strings"

	"sprintloop/internal/config"
	"sprintloop/internal/invoke"
	"sprintloop/internal/review"
	"sprintloop/internal/status"
)

// Outcome is the result of a phase that ran to completion. A phase that
// cannot complete returns an error instead; the loop counts that as a
// failure and leaves the story's status untouched.
type Outcome struct {
	// StoryKey is the story the phase ran for.
	StoryKey string

	// Phase is the phase name (create, develop, review).
	Phase string

	// NextStatus is the status the story should transition to.
	NextStatus status.Status

	// Artifact is the path of the file the phase produced, empty when the
	// phase writes no artifact of its own.
	Artifact string

	// Summary is a one-line human description of what happened.
	Summary string

	// Output is the raw tool output for display. It is never persisted
	// beyond the phase's own artifact file.
	Output string

	// Issues holds the parsed review findings, review phase only.
	Issues []review.Issue
}

// Handler runs one pipeline phase for a story.
type Handler interface {
	// Name returns the phase name.
	Name() string

	// Run executes the phase. An error means the phase failed and the
	// story's status must not change.
	Run(ctx context.Context, storyKey string) (Outcome, error)
}

// runTool performs the shared tool invocation for a phase: expand the
// prompt, build the argument list, pipe the context on stdin, and demand a
// successful, non-empty response.
func runTool(ctx context.Context, cfg *config.Config, runner invoke.Runner, phaseName, storyKey, input, dir string) (string, error) {
	phaseCfg, err := cfg.Phase(phaseName)
	if err != nil {
		return "", err
	}

	prompt, err := cfg.GetPrompt(phaseName, storyKey)
	if err != nil {
		return "", err
	}

	args := []string{"-m", phaseCfg.Model}
	if phaseCfg.SystemPrompt != "" {
		args = append(args, "-s", phaseCfg.SystemPrompt)
	}
	args = append(args, prompt)

	result, err := runner.Run(ctx, invoke.Request{
		Command: phaseCfg.Command,
		Args:    args,
		Input:   input,
		Dir:     dir,
		Timeout: phaseCfg.Timeout(),
	})
	if err != nil {
		return "", fmt.Errorf("%s phase: %w", phaseName, err)
	}
	if result.Failed() {
		return "", fmt.Errorf("%s phase: tool %s", phaseName, result.Cause())
	}

	return strings.TrimSpace(result.Stdout), nil
}
