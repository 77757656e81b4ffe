package phase

import (
	"context"
	"fmt"

	"sprintloop/internal/config"
	"sprintloop/internal/git"
	"sprintloop/internal/invoke"
	"sprintloop/internal/project"
	"sprintloop/internal/status"
)

// Developer drives the coding agent for one story and confirms that the
// repository actually changed.
//
// The agent's own success claim is never trusted: work counts only when the
// change detector sees new commits or newly changed paths relative to the
// snapshot taken before the invocation.
type Developer struct {
	cfg    *config.Config
	paths  project.Paths
	runner invoke.Runner
	git    *git.Git
}

// NewDeveloper creates the development handler.
func NewDeveloper(cfg *config.Config, paths project.Paths, runner invoke.Runner, g *git.Git) *Developer {
	return &Developer{cfg: cfg, paths: paths, runner: runner, git: g}
}

// Name implements [Handler].
func (d *Developer) Name() string { return config.PhaseDevelop }

// Run invokes the coding agent and reports review when git-visible work was
// produced. An invocation that changes nothing fails the phase regardless of
// the agent's exit code.
func (d *Developer) Run(ctx context.Context, storyKey string) (Outcome, error) {
	detector := git.NewDetector(d.git, d.paths.Root)
	if err := detector.Begin(ctx); err != nil {
		return Outcome{}, fmt.Errorf("develop phase: %w", err)
	}

	story := d.paths.ReadStory(storyKey)

	out, err := runTool(ctx, d.cfg, d.runner, config.PhaseDevelop, storyKey, story, d.paths.Root)
	if err != nil {
		return Outcome{}, err
	}

	report, err := detector.Confirm(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("develop phase: %w", err)
	}
	if !report.WorkDone() {
		return Outcome{}, fmt.Errorf("develop phase: agent exited cleanly but produced no repository changes")
	}

	summary := fmt.Sprintf("%d new commits, %d new changed paths", report.NewCommits, report.NewPaths)
	if report.Degraded {
		summary += " (commit history unavailable, counted uncommitted changes only)"
	}

	return Outcome{
		StoryKey:   storyKey,
		Phase:      config.PhaseDevelop,
		NextStatus: status.StatusReview,
		Summary:    summary,
		Output:     out,
	}, nil
}
