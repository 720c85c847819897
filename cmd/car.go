package cmd

import (
	"fmt"

	"github.com/bnema/partage-cli/internal/adapters/render/screen"
	"github.com/bnema/partage-cli/internal/application"
	"github.com/bnema/partage-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newCarCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "car",
		Short: "List, add and remove cars",
	}

	cmd.AddCommand(
		newCarAddCmd(app),
		newCarRemoveCmd(app),
		newCarListCmd(app),
		newCarAvailableCmd(app),
		newCarInfoCmd(app),
	)

	return cmd
}

func newCarAddCmd(app *app) *cobra.Command {
	var rate string
	var owner string

	cmd := &cobra.Command{
		Use:   "add <car-id>",
		Short: "Register a car at an hourly rate in yoctoNEAR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseHourlyRate(rate); err != nil {
				return err
			}

			snap, err := requireReady(cmd, app, false)
			if err != nil {
				return err
			}

			profile, err := app.profiles.AddCar(cmd.Context(), domain.AccountID(owner), args[0], rate)
			if err != nil {
				return err
			}

			return writeProfile(cmd, app, snap, profile)
		},
	}

	cmd.Flags().StringVar(&rate, "rate", "", "Hourly rate in yoctoNEAR")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner account (defaults to the signed-in account)")
	_ = cmd.MarkFlagRequired("rate")

	return cmd
}

func newCarRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <car-id>",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove one of your cars",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := requireReady(cmd, app, false)
			if err != nil {
				return err
			}

			profile, err := app.profiles.RemoveCar(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return writeProfile(cmd, app, snap, profile)
		},
	}
}

func newCarListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the cars you own",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := requireReady(cmd, app, asJSON)
			if err != nil {
				return err
			}
			if snap.Role != domain.RoleOwner {
				return fmt.Errorf("%w: %s accounts own no cars", domain.ErrRoleMismatch, snap.Role.Label())
			}

			return writeCars(cmd, app, "Your cars", snap.Profile.Cars, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newCarAvailableCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "available",
		Short: "List every car currently open for booking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := runBootstrap(cmd, app, asJSON)
			if err != nil {
				return err
			}
			if snap.State == application.StateFailed {
				return snap.Err
			}

			cars, err := app.profiles.AvailableCars(cmd.Context())
			if err != nil {
				return err
			}

			return writeCars(cmd, app, "Available cars", cars, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

type carInfoView struct {
	Car          domain.Car `json:"car"`
	AvailableNow bool       `json:"available_now"`
}

func newCarInfoCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <car-id>",
		Short: "Show one car and whether it can be booked right now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := runBootstrap(cmd, app, asJSON)
			if err != nil {
				return err
			}
			if snap.State == application.StateFailed {
				return snap.Err
			}

			car, err := app.profiles.CarInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			available, err := app.profiles.CarAvailable(cmd.Context(), car.CarID)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, carInfoView{Car: car, AvailableNow: available})
			}
			car.Available = available
			return writeCars(cmd, app, "Car "+car.CarID, []domain.Car{car}, false)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeCars(cmd *cobra.Command, app *app, title string, cars []domain.Car, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, cars)
	}

	rendered, err := screen.RenderCars(title, cars, screen.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render cars: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
