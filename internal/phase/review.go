package phase

import (
	"context"
	"errors"
	"fmt"

	"sprintloop/internal/config"
	"sprintloop/internal/git"
	"sprintloop/internal/invoke"
	"sprintloop/internal/project"
	"sprintloop/internal/review"
	"sprintloop/internal/status"
)

// Reviewer runs the adversarial code review for one story.
//
// The reviewer judges the git diff against the base branch, with the story
// file as context for what should have been built. A story with no
// obtainable diff has nothing to approve: that fails the phase rather than
// waving the story through to done.
type Reviewer struct {
	cfg    *config.Config
	paths  project.Paths
	runner invoke.Runner
	git    *git.Git
	parser *review.Parser

	// BaseBranch overrides the diff base. Empty auto-detects the default
	// branch.
	BaseBranch string
}

// NewReviewer creates the review handler.
func NewReviewer(cfg *config.Config, paths project.Paths, runner invoke.Runner, g *git.Git) *Reviewer {
	return &Reviewer{
		cfg:    cfg,
		paths:  paths,
		runner: runner,
		git:    g,
		parser: review.NewParser(),
	}
}

// Name implements [Handler].
func (r *Reviewer) Name() string { return config.PhaseReview }

// Run reviews the story's diff and reports done, or in-progress when the
// review finds a CRITICAL issue. The raw review markdown is saved next to
// the stories before any verdict is drawn from it.
func (r *Reviewer) Run(ctx context.Context, storyKey string) (Outcome, error) {
	base := r.BaseBranch
	if base == "" {
		base = r.git.DefaultBranch(ctx, r.paths.Root)
	}

	diff, err := r.git.Diff(ctx, r.paths.Root, base)
	if err != nil {
		if errors.Is(err, git.ErrNoDiff) {
			return Outcome{}, fmt.Errorf("review phase: no reviewable code changes against %s", base)
		}
		return Outcome{}, fmt.Errorf("review phase: %w", err)
	}

	story := r.paths.ReadStory(storyKey)
	reviewContext := fmt.Sprintf("=== STORY REQUIREMENTS ===\n%s\n\n=== CODE CHANGES ===\n%s", story, diff)

	reviewText, err := runTool(ctx, r.cfg, r.runner, config.PhaseReview, storyKey, reviewContext, r.paths.Root)
	if err != nil {
		return Outcome{}, err
	}

	saved, err := r.paths.SaveReview(storyKey, reviewText+"\n")
	if err != nil {
		return Outcome{}, fmt.Errorf("review phase: %w", err)
	}

	issues := r.parser.Parse(reviewText)

	next := status.StatusDone
	summary := "review passed: " + review.Summary(issues)
	if review.HasCritical(issues) {
		next = status.StatusInProgress
		summary = "review found critical issues: " + review.Summary(issues)
	}

	return Outcome{
		StoryKey:   storyKey,
		Phase:      config.PhaseReview,
		NextStatus: next,
		Artifact:   saved,
		Summary:    summary,
		Output:     reviewText,
		Issues:     issues,
	}, nil
}
