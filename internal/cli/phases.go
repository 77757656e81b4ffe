package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sprintloop/internal/status"
)

// newPhaseCommand builds one of the single-phase commands (create, develop,
// review). They all share the same shape: validate the story key, run the
// phase once, persist the transition.
func newPhaseCommand(app *App, phaseName, short string) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <story-key>", phaseName),
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyKey := args[0]
			if !status.IsStoryKey(storyKey) {
				return fmt.Errorf("invalid story key %q: expected {epic}-{story}-{slug}, e.g. 0-1-homepage", storyKey)
			}

			p, err := app.buildPipeline(cmd.Context())
			if err != nil {
				return err
			}

			record, err := p.store.Load()
			if err != nil {
				return err
			}
			before, ok := record.Get(storyKey)
			if !ok {
				return fmt.Errorf("story not found in sprint status: %s", storyKey)
			}

			outcome, err := p.handlers[phaseName].Run(cmd.Context(), storyKey)
			if err != nil {
				app.printer.Error("%v", err)
				return NewExitError(1)
			}

			if err := p.store.Update(storyKey, outcome.NextStatus); err != nil {
				return err
			}

			app.printer.Transition(storyKey, string(before), string(outcome.NextStatus))
			if outcome.Summary != "" {
				app.printer.Muted("%s", outcome.Summary)
			}
			if outcome.Output != "" {
				app.printer.ToolOutput(outcome.Output)
			}
			return nil
		},
	}
}
