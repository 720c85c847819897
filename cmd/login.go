package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <access-token|->",
		Short: "Attach a node access token as the signer",
		Long:  "login stores the node access token for the configured network. Pass - to read the token from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			if token == "-" {
				read, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && read == "" {
					return fmt.Errorf("read access token from stdin: %w", err)
				}
				token = read
			}

			ctx := cmd.Context()
			creds, err := app.signer.Attach(ctx, strings.TrimSpace(token))
			if err != nil {
				return err
			}

			app.store.Set(ctx, domain.KeyCachedAccountID, string(creds.AccountID))
			if creds.ContextID != "" {
				if _, ok := app.store.Get(ctx, domain.KeyContextID); !ok {
					app.store.Set(ctx, domain.KeyContextID, creds.ContextID)
				}
			}

			out := cmd.OutOrStdout()
			if holder := app.credentialHolder(ctx); holder != "" {
				_, err = fmt.Fprintf(out, "Signed in as %s on %s (token kept in %s)\n", creds.AccountID, app.settings.Network, holder)
				return err
			}
			_, err = fmt.Fprintf(out, "Signed in as %s on %s\n", creds.AccountID, app.settings.Network)
			return err
		},
	}
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := app.signer.Detach(ctx); err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
				return err
			}
			app.store.Set(ctx, domain.KeyCachedAccountID, "")

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return err
		},
	}
}
