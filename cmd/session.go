package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/partage-cli/internal/adapters/render/screen"
	"github.com/bnema/partage-cli/internal/application"
	"github.com/bnema/partage-cli/internal/domain"
	"github.com/spf13/cobra"
)

var (
	errNotSignedIn = errors.New("not signed in: run `partage login <token>` first")
	errNoAccount   = errors.New("no account registered: run `partage account create` first")
)

// runBootstrap settles the bootstrap, behind a spinner unless quiet.
func runBootstrap(cmd *cobra.Command, app *app, quiet bool) (application.Snapshot, error) {
	if quiet {
		return app.bootstrap.Start(cmd.Context()), nil
	}

	return runBootstrapSpinner(cmd.Context(), cmd.ErrOrStderr(), app.bootstrap)
}

// requireReady runs the bootstrap and fails unless a profile was loaded.
func requireReady(cmd *cobra.Command, app *app, quiet bool) (application.Snapshot, error) {
	snap, err := runBootstrap(cmd, app, quiet)
	if err != nil {
		return snap, err
	}

	switch snap.State {
	case application.StateReady:
		return snap, nil
	case application.StateUnauthenticated:
		return snap, errNotSignedIn
	case application.StateCreatingAccount:
		return snap, fmt.Errorf("%w (account %s)", errNoAccount, snap.AccountID)
	case application.StateFailed:
		return snap, snap.Err
	default:
		return snap, fmt.Errorf("bootstrap stopped in state %s", snap.State)
	}
}

func writeScreen(cmd *cobra.Command, app *app, snap application.Snapshot) error {
	rendered, err := app.render(screen.Screen{Snapshot: snap, Session: app.session.Session()}, screen.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render screen: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// writeProfile renders snap with profile swapped in after a write.
func writeProfile(cmd *cobra.Command, app *app, snap application.Snapshot, profile domain.Profile) error {
	snap.Profile = &profile
	snap.Diagnostic = profile.Diagnostic
	return writeScreen(cmd, app, snap)
}

type statusView struct {
	State         application.State `json:"state"`
	Generation    uint64            `json:"generation"`
	AccountID     domain.AccountID  `json:"account_id,omitempty"`
	Role          domain.Role       `json:"role,omitempty"`
	EndpointURL   string            `json:"endpoint_url,omitempty"`
	ApplicationID string            `json:"application_id,omitempty"`
	ContextID     string            `json:"context_id,omitempty"`
	Cars          []domain.Car      `json:"cars,omitempty"`
	Bookings      []domain.Booking  `json:"bookings,omitempty"`
	Diagnostic    string            `json:"diagnostic,omitempty"`
	Error         string            `json:"error,omitempty"`
}

func newStatusView(snap application.Snapshot, session domain.Session) statusView {
	view := statusView{
		State:         snap.State,
		Generation:    snap.Generation,
		AccountID:     snap.AccountID,
		Role:          snap.Role,
		EndpointURL:   session.EndpointURL,
		ApplicationID: session.ApplicationID,
		ContextID:     session.ContextID,
		Diagnostic:    snap.Diagnostic,
	}
	if snap.Profile != nil {
		view.Cars = snap.Profile.Cars
		view.Bookings = snap.Profile.Bookings
	}
	if snap.Err != nil {
		view.Error = snap.Err.Error()
	}

	return view
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
