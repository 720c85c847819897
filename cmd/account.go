package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/partage-cli/internal/application"
	"github.com/bnema/partage-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the contract account of the signed-in user",
	}

	cmd.AddCommand(newAccountCreateCmd(app))

	return cmd
}

func newAccountCreateCmd(app *app) *cobra.Command {
	var kind string
	var name string
	var license string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register the signed-in account as a car owner or a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			request := domain.AccountRequest{
				Kind:           domain.Role(strings.ToLower(strings.TrimSpace(kind))),
				Name:           strings.TrimSpace(name),
				DrivingLicense: strings.TrimSpace(license),
			}
			if err := request.Validate(); err != nil {
				return err
			}

			snap, err := runBootstrap(cmd, app, false)
			if err != nil {
				return err
			}

			switch snap.State {
			case application.StateCreatingAccount:
			case application.StateReady:
				return fmt.Errorf("%s is already registered as %s", snap.AccountID, snap.Role.Label())
			case application.StateUnauthenticated:
				return errNotSignedIn
			case application.StateFailed:
				return snap.Err
			default:
				return fmt.Errorf("bootstrap stopped in state %s", snap.State)
			}

			snap, err = app.bootstrap.CreateAccount(cmd.Context(), request)
			if err != nil {
				return err
			}

			return writeScreen(cmd, app, snap)
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "Account type: owner or user")
	cmd.Flags().StringVar(&name, "name", "", "Display name stored on the contract")
	cmd.Flags().StringVar(&license, "license", "", "Driving license number (user accounts)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
