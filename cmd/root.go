package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "partage",
		Short:         "Partage: car sharing on a ledger contract from the terminal",
		Long:          "partage connects to a contract runtime node, resolves whether the signed-in account owns cars or rents them, and drives the car-sharing contract: list, add and remove cars, book, cancel, rent and return.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp(os.Stderr)
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newSetupCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newAccountCmd(app),
		newCarCmd(app),
		newBookingCmd(app),
		newRentCmd(app),
		newReturnCmd(app),
		newWatchCmd(app),
	)

	return rootCmd
}
