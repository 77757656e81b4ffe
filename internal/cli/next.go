package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"sprintloop/internal/project"
	"sprintloop/internal/router"
	"sprintloop/internal/status"
)

func newNextCommand(app *App) *cobra.Command {
	var epic string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the story the loop would pick next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := project.Resolve(app.projectDir)
			if err != nil {
				return err
			}
			store := status.NewStoreWithPath(paths.Root, paths.SprintStatus)

			for _, st := range router.SelectionOrder {
				keys, err := store.StoriesByStatus(st)
				if err != nil {
					return err
				}
				for _, key := range keys {
					if epic != "" && !strings.HasPrefix(key, epic+"-") {
						continue
					}
					phaseName, err := router.PhaseFor(st)
					if err != nil {
						return err
					}
					app.printer.Info("%s (%s) -> %s", key, st, phaseName)
					return nil
				}
			}

			app.printer.Muted("no actionable stories")
			return nil
		},
	}

	cmd.Flags().StringVar(&epic, "epic", "", "restrict selection to one epic")

	return cmd
}
