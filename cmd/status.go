package cmd

import (
	"github.com/bnema/partage-cli/internal/application"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Connect, resolve the signed-in account and show its profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := runBootstrap(cmd, app, asJSON)
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd, newStatusView(snap, app.session.Session())); err != nil {
					return err
				}
			} else if err := writeScreen(cmd, app, snap); err != nil {
				return err
			}

			if snap.State == application.StateFailed {
				return snap.Err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
