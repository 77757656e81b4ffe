package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sprintloop/internal/loop"
)

func newLoopCommand(app *App) *cobra.Command {
	var (
		epic          string
		unattended    bool
		maxIterations int
		maxDuration   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Run the autonomous pipeline",
		Long: `Run the autonomous pipeline until no actionable story remains.

Each iteration picks the highest-priority actionable story, runs the phase
its status calls for, and persists the transition to sprint-status.yaml.
In attended mode (interactive terminal, without --unattended) each phase
run asks for confirmation first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.buildPipeline(cmd.Context())
			if err != nil {
				return err
			}

			opts := loop.Options{
				Epic:          epic,
				MaxIterations: maxIterations,
				MaxDuration:   maxDuration,
			}
			if !unattended && term.IsTerminal(int(os.Stdin.Fd())) {
				opts.Confirm = confirmPrompt(app)
			}

			stats, err := loop.New(app.cfg, p.store, p.handlers, app.printer, opts).Run(cmd.Context())

			app.printer.Header("loop finished: %d iterations, %d transitions, %d failures",
				stats.Iterations, stats.Transitions, stats.Failures)
			for _, key := range stats.Blocked {
				app.printer.Warn("%s is blocked and needs manual attention", key)
			}

			switch {
			case err == nil:
				return nil
			case errors.Is(err, loop.ErrAborted):
				app.printer.Muted("aborted")
				return NewExitError(1)
			case errors.Is(err, loop.ErrIterationCeiling), errors.Is(err, loop.ErrDeadlineReached):
				app.printer.Error("%v", err)
				return NewExitError(2)
			default:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&epic, "epic", "", "restrict the loop to one epic, e.g. 3")
	cmd.Flags().BoolVar(&unattended, "unattended", false, "never prompt for confirmation")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override the iteration ceiling")
	cmd.Flags().DurationVar(&maxDuration, "max-duration", 0, "override the wall-clock bound, e.g. 2h")

	return cmd
}

// confirmPrompt asks the operator before each phase run.
func confirmPrompt(app *App) func(storyKey, phaseName string) bool {
	reader := bufio.NewReader(os.Stdin)
	return func(storyKey, phaseName string) bool {
		fmt.Printf("run %s for %s? [Y/n] ", phaseName, storyKey)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "" || answer == "y" || answer == "yes"
	}
}
