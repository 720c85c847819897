package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/partage-cli/internal/application"
	"github.com/bnema/partage-cli/internal/domain"
	"github.com/spf13/cobra"
)

var bookingTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func newBookingCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "booking",
		Aliases: []string{"book"},
		Short:   "Book cars in advance and manage your bookings",
	}

	cmd.AddCommand(
		newBookingCreateCmd(app),
		newBookingCancelCmd(app),
		newBookingListCmd(app),
	)

	return cmd
}

func newBookingCreateCmd(app *app) *cobra.Command {
	var start string
	var end string

	cmd := &cobra.Command{
		Use:   "create <car-id>",
		Short: "Book a car for a time window, attaching the booking deposit",
		Long:  "Times are RFC 3339, or 2006-01-02T15:04 / 2006-01-02 read as UTC.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := parseBookingWindow(start, end)
			if err != nil {
				return err
			}

			snap, err := requireReady(cmd, app, false)
			if err != nil {
				return err
			}

			profile, err := app.profiles.BookCar(cmd.Context(), application.BookingRequest{
				CarID:  args[0],
				Window: window,
			})
			if err != nil {
				return err
			}

			return writeProfile(cmd, app, snap, profile)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Booking start")
	cmd.Flags().StringVar(&end, "end", "", "Booking end")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func newBookingCancelCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel one of your bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := requireReady(cmd, app, false)
			if err != nil {
				return err
			}

			profile, err := app.profiles.CancelBooking(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return writeProfile(cmd, app, snap, profile)
		},
	}
}

func newBookingListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your bookings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := requireReady(cmd, app, asJSON)
			if err != nil {
				return err
			}
			if snap.Role != domain.RoleUser {
				return fmt.Errorf("%w: %s accounts hold no bookings", domain.ErrRoleMismatch, snap.Role.Label())
			}

			if asJSON {
				return writeJSON(cmd, snap.Profile.Bookings)
			}
			return writeScreen(cmd, app, snap)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func parseBookingWindow(start, end string) (domain.BookingWindow, error) {
	startAt, err := parseBookingTime(start)
	if err != nil {
		return domain.BookingWindow{}, fmt.Errorf("%w: start: %w", domain.ErrInvalidBookingWindow, err)
	}
	endAt, err := parseBookingTime(end)
	if err != nil {
		return domain.BookingWindow{}, fmt.Errorf("%w: end: %w", domain.ErrInvalidBookingWindow, err)
	}

	window := domain.BookingWindow{Start: startAt, End: endAt}
	if err := window.Validate(); err != nil {
		return domain.BookingWindow{}, err
	}
	return window, nil
}

func parseBookingTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range bookingTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse %q (use RFC 3339 or 2006-01-02T15:04)", raw)
}
