package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/spf13/cobra"
)

func newSetupCmd(app *app) *cobra.Command {
	var nodeURL string
	var applicationID string
	var contextID string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Store the node endpoint and application context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			nodeURL = strings.TrimSpace(nodeURL)
			applicationID = strings.TrimSpace(applicationID)
			contextID = strings.TrimSpace(contextID)

			if nodeURL == "" && applicationID == "" && contextID == "" {
				return errors.New("nothing to store: pass --node-url, --application-id or --context-id")
			}

			if nodeURL != "" {
				if _, err := app.dialer.Dial(ctx, ports.Endpoint{URL: nodeURL}); err != nil {
					return fmt.Errorf("invalid node url: %w", err)
				}
				app.store.Set(ctx, domain.KeyEndpointURL, nodeURL)
			}
			if applicationID != "" {
				app.store.Set(ctx, domain.KeyApplicationID, applicationID)
			}
			if contextID != "" {
				app.store.Set(ctx, domain.KeyContextID, contextID)
			}

			return writeSetup(cmd, app, false)
		},
	}

	cmd.Flags().StringVar(&nodeURL, "node-url", "", "Node endpoint (http, https, ws or wss)")
	cmd.Flags().StringVar(&applicationID, "application-id", "", "Application id installed on the node")
	cmd.Flags().StringVar(&contextID, "context-id", "", "Application context id")

	cmd.AddCommand(newSetupShowCmd(app), newSetupResetCmd(app))

	return cmd
}

func newSetupShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored session settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeSetup(cmd, app, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newSetupResetCmd(app *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the stored node endpoint and application id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if all {
				app.store.Clear(ctx)
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cleared all stored session settings")
				return err
			}

			app.store.Set(ctx, domain.KeyEndpointURL, "")
			app.store.Set(ctx, domain.KeyApplicationID, "")
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cleared node endpoint and application id")
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also forget the context id and cached account")

	return cmd
}

type setupView struct {
	EndpointURL     string `json:"endpoint_url"`
	ApplicationID   string `json:"application_id"`
	ContextID       string `json:"context_id"`
	CachedAccountID string `json:"cached_account_id"`
}

func writeSetup(cmd *cobra.Command, app *app, asJSON bool) error {
	cfg := ports.ReadConfig(cmd.Context(), app.store)
	view := setupView{
		EndpointURL:     cfg.EndpointURL,
		ApplicationID:   cfg.ApplicationID,
		ContextID:       cfg.ContextID,
		CachedAccountID: string(cfg.CachedAccountID),
	}

	if asJSON {
		return writeJSON(cmd, view)
	}

	out := cmd.OutOrStdout()
	for _, row := range []struct {
		key   domain.ConfigKey
		value string
	}{
		{domain.KeyEndpointURL, view.EndpointURL},
		{domain.KeyApplicationID, view.ApplicationID},
		{domain.KeyContextID, view.ContextID},
		{domain.KeyCachedAccountID, view.CachedAccountID},
	} {
		value := row.value
		if value == "" {
			value = "(unset)"
		}
		if _, err := fmt.Fprintf(out, "%s\t%s\n", row.key, value); err != nil {
			return err
		}
	}

	return nil
}
