package phase

import (
	"context"
	"fmt"

	"sprintloop/internal/config"
	"sprintloop/internal/invoke"
	"sprintloop/internal/project"
	"sprintloop/internal/status"
)

// Creator generates a story file from the project's epics and sprint status.
//
// The story generator receives the assembled project context on stdin and
// must answer with the complete story markdown. An empty answer fails the
// phase; a story file must never be created empty.
type Creator struct {
	cfg    *config.Config
	paths  project.Paths
	runner invoke.Runner
}

// NewCreator creates the story creation handler.
func NewCreator(cfg *config.Config, paths project.Paths, runner invoke.Runner) *Creator {
	return &Creator{cfg: cfg, paths: paths, runner: runner}
}

// Name implements [Handler].
func (c *Creator) Name() string { return config.PhaseCreate }

// Run generates and saves the story file, then reports ready-for-dev.
func (c *Creator) Run(ctx context.Context, storyKey string) (Outcome, error) {
	projectContext, err := c.paths.BuildContext()
	if err != nil {
		return Outcome{}, fmt.Errorf("create phase: %w", err)
	}

	content, err := runTool(ctx, c.cfg, c.runner, config.PhaseCreate, storyKey, projectContext, c.paths.Root)
	if err != nil {
		return Outcome{}, err
	}

	saved, err := c.paths.SaveStory(storyKey, content+"\n")
	if err != nil {
		return Outcome{}, fmt.Errorf("create phase: %w", err)
	}

	return Outcome{
		StoryKey:   storyKey,
		Phase:      config.PhaseCreate,
		NextStatus: status.StatusReadyForDev,
		Artifact:   saved,
		Summary:    fmt.Sprintf("story file created at %s", saved),
		Output:     content,
	}, nil
}
