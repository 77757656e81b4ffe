package cli

import (
	"github.com/spf13/cobra"

	"sprintloop/internal/project"
	"sprintloop/internal/status"
)

// statusOrder fixes the display order of the summary.
var statusOrder = []status.Status{
	status.StatusBacklog,
	status.StatusReadyForDev,
	status.StatusInProgress,
	status.StatusReview,
	status.StatusDone,
	status.StatusBlocked,
}

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sprint status summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := project.Resolve(app.projectDir)
			if err != nil {
				return err
			}
			store := status.NewStoreWithPath(paths.Root, paths.SprintStatus)

			counts, err := store.Summary()
			if err != nil {
				return err
			}

			app.printer.Header("sprint status (%s)", store.Path())
			total := 0
			for _, st := range statusOrder {
				if n := counts[st]; n > 0 {
					app.printer.Info("%-15s %d", st, n)
					total += n
				}
			}
			app.printer.Muted("%-15s %d", "total", total)

			blocked, err := store.StoriesByStatus(status.StatusBlocked)
			if err != nil {
				return err
			}
			for _, key := range blocked {
				app.printer.Warn("%s needs manual attention", key)
			}

			return nil
		},
	}
}
