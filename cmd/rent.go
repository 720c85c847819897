package cmd

import (
	"errors"

	"github.com/bnema/partage-cli/internal/application"
	"github.com/spf13/cobra"
)

func newRentCmd(app *app) *cobra.Command {
	var hours uint32

	cmd := &cobra.Command{
		Use:   "rent <car-id>",
		Short: "Rent an available car now, paying hourly rate times hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hours == 0 {
				return errors.New("--hours must be at least 1")
			}

			snap, err := requireReady(cmd, app, false)
			if err != nil {
				return err
			}

			profile, err := app.profiles.RentCar(cmd.Context(), application.RentRequest{
				CarID: args[0],
				Hours: hours,
			})
			if err != nil {
				return err
			}

			return writeProfile(cmd, app, snap, profile)
		},
	}

	cmd.Flags().Uint32Var(&hours, "hours", 1, "Rental duration in hours")

	return cmd
}

func newReturnCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <car-id>",
		Short: "Return a rented car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := requireReady(cmd, app, false)
			if err != nil {
				return err
			}

			profile, err := app.profiles.ReturnCar(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return writeProfile(cmd, app, snap, profile)
		},
	}
}
