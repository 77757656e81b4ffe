// Package cli implements the sprintloop command-line interface.
//
// Commands:
//   - loop    - run the autonomous pipeline until no actionable story remains
//   - create  - run the story creation phase for one story
//   - develop - run the development phase for one story
//   - review  - run the review phase for one story
//   - status  - show the sprint status summary
//   - next    - show the story the loop would pick next
//
// All commands operate on a project directory (--project, default ".") and
// load configuration through the standard search path (--config overrides).
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sprintloop/internal/config"
	"sprintloop/internal/git"
	"sprintloop/internal/invoke"
	"sprintloop/internal/output"
	"sprintloop/internal/phase"
	"sprintloop/internal/project"
	"sprintloop/internal/status"
)

// App carries the shared state built once per invocation: configuration,
// printer, and the persistent flag values.
type App struct {
	cfg     *config.Config
	printer *output.Printer

	projectDir string
	configPath string
	baseBranch string
}

// pipeline holds the wired components for commands that run phases.
type pipeline struct {
	paths    project.Paths
	store    *status.Store
	handlers map[string]phase.Handler
}

// NewRootCommand builds the root cobra command with all subcommands.
func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdout)
}

// newRootCommand builds the root command writing styled output to w.
func newRootCommand(w io.Writer) *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:   "sprintloop",
		Short: "Crash-tolerant story pipeline orchestrator",
		Long: `sprintloop drives stories through a create -> develop -> review pipeline
by invoking external model tools, with all state persisted in the project's
sprint-status.yaml. Kill it at any point and restart: it resumes from the
status document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			var err error
			if app.configPath != "" {
				app.cfg, err = loader.LoadFromFile(app.configPath)
			} else {
				app.cfg, err = loader.Load()
			}
			if err != nil {
				return err
			}
			app.printer = output.NewPrinterWithWriter(w, app.cfg.Output)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&app.projectDir, "project", "p", ".", "project root directory")
	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "config file path")
	root.PersistentFlags().StringVar(&app.baseBranch, "base", "", "base branch for review diffs (default: auto-detect)")

	root.AddCommand(newLoopCommand(app))
	root.AddCommand(newPhaseCommand(app, config.PhaseCreate, "Create the story file for a story"))
	root.AddCommand(newPhaseCommand(app, config.PhaseDevelop, "Run the coding agent for a story"))
	root.AddCommand(newPhaseCommand(app, config.PhaseReview, "Run adversarial review for a story"))
	root.AddCommand(newStatusCommand(app))
	root.AddCommand(newNextCommand(app))

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		if code, ok := IsExitError(err); ok {
			return code
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// buildPipeline resolves the project and wires the phase handlers.
func (a *App) buildPipeline(ctx context.Context) (*pipeline, error) {
	paths, err := project.Resolve(a.projectDir)
	if err != nil {
		return nil, err
	}

	store := status.NewStoreWithPath(paths.Root, paths.SprintStatus)

	g, err := git.New(ctx)
	if err != nil {
		return nil, err
	}

	runner := invoke.NewRunner()

	reviewer := phase.NewReviewer(a.cfg, paths, runner, g)
	reviewer.BaseBranch = a.baseBranch

	return &pipeline{
		paths: paths,
		store: store,
		handlers: map[string]phase.Handler{
			config.PhaseCreate:  phase.NewCreator(a.cfg, paths, runner),
			config.PhaseDevelop: phase.NewDeveloper(a.cfg, paths, runner, g),
			config.PhaseReview:  reviewer,
		},
	}, nil
}
