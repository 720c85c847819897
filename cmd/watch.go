package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/partage-cli/internal/application"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow contract events and refresh the profile when they concern you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			snap, err := requireReady(cmd, app, false)
			if err != nil {
				return err
			}
			if err := writeScreen(cmd, app, snap); err != nil {
				return err
			}

			creds, err := app.signer.Credentials(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			watcher := application.NewEventWatcher(app.events(creds.AccessToken), app.profiles, app.log)
			err = watcher.Run(ctx, app.session.Session(), func(update application.WatchUpdate) {
				_, _ = fmt.Fprintf(out, "event %s\n", update.Event.Kind)
				if update.Profile == nil {
					return
				}
				if err := writeProfile(cmd, app, snap, *update.Profile); err != nil {
					app.log.WithError(err).Warn("profile not rendered")
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
