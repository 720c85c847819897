package screen

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/bnema/partage-cli/internal/application"
	"github.com/bnema/partage-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const yoctoDigits = 24

var yoctoPerNear = new(big.Int).Exp(big.NewInt(10), big.NewInt(yoctoDigits), nil)

type RenderOptions struct {
	Now time.Time
}

// Screen is what a bootstrap run produced, plus the session it ran on.
type Screen struct {
	Snapshot application.Snapshot
	Session  domain.Session
}

func renderScreen(screen Screen, opts RenderOptions, s styles) string {
	snap := screen.Snapshot
	lines := []string{
		s.title.Render("Partage"),
		s.header.Render(sessionHeader(screen.Session, snap.AccountID)),
	}

	switch snap.State {
	case application.StateFailed:
		lines = append(lines, s.section.Render(renderFailure(snap.Err, s)))
	case application.StateUnauthenticated:
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left,
			s.warning.Render("Not signed in."),
			s.hint.Render("Attach an access token with `partage login <token>`."),
		)))
	case application.StateCreatingAccount:
		lines = append(lines, s.section.Render(renderAccountCreation(snap, s)))
	case application.StateReady:
		lines = append(lines, s.section.Render(renderProfile(snap, opts, s)))
	default:
		lines = append(lines, s.detail.Render(fmt.Sprintf("state: %s", snap.State)))
	}

	if snap.Diagnostic != "" && snap.State != application.StateFailed {
		lines = append(lines, s.section.Render(s.warning.Render("[diagnostic] ")+s.detail.Render(snap.Diagnostic)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sessionHeader(session domain.Session, accountID domain.AccountID) string {
	endpoint := session.EndpointURL
	if endpoint == "" {
		endpoint = "n/a"
	}
	account := string(accountID)
	if account == "" {
		account = "none"
	}

	return fmt.Sprintf("node: %s  account: %s", endpoint, account)
}

func renderFailure(err error, s styles) string {
	title := "Bootstrap failed"
	if errors.Is(err, domain.ErrConnection) {
		title = "Connection failed"
	}

	parts := []string{s.banner.Render(title)}
	if err != nil {
		parts = append(parts, s.detail.Render(err.Error()))
	}
	parts = append(parts, s.hint.Render("Check the node with `partage setup show` or point to another one with `partage setup --node-url <url>`."))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderAccountCreation(snap application.Snapshot, s styles) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.account.Render(fmt.Sprintf("%s has no account yet", snap.AccountID)),
		s.hint.Render("Create one with `partage account create --type owner --name <name>`"),
		s.hint.Render("or `partage account create --type user --name <name> --license <number>`."),
	)
}

func renderProfile(snap application.Snapshot, opts RenderOptions, s styles) string {
	parts := []string{
		s.account.Render(fmt.Sprintf("%s (%s)", snap.AccountID, snap.Role.Label())),
	}

	if snap.Profile == nil {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, s.empty.Render("No profile loaded."))...)
	}

	switch snap.Profile.Role {
	case domain.RoleOwner:
		parts = append(parts, carLines(snap.Profile.Cars, s)...)
	case domain.RoleUser:
		parts = append(parts, bookingLines(snap.Profile.Bookings, opts, s)...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderCarList(title string, cars []domain.Car, _ RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(title),
		s.header.Render(fmt.Sprintf("cars: %d", len(cars))),
	}
	lines = append(lines, carLines(cars, s)...)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func carLines(cars []domain.Car, s styles) []string {
	if len(cars) == 0 {
		return []string{s.empty.Render("No cars.")}
	}

	lines := make([]string, 0, len(cars))
	for _, car := range cars {
		state := s.available.Render("available")
		if !car.Available {
			state = s.rented.Render("rented")
		}

		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render(car.CarID),
			" ",
			s.detail.Render(formatNear(car.HourlyRate)+"/h"),
			" ",
			state,
			" ",
			s.meta.Render(fmt.Sprintf("(owner %s)", car.OwnerID)),
		))
	}

	return lines
}

func bookingLines(bookings []domain.Booking, opts RenderOptions, s styles) []string {
	if len(bookings) == 0 {
		return []string{s.empty.Render("No bookings.")}
	}

	lines := make([]string, 0, len(bookings))
	for _, booking := range bookings {
		line := lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render(booking.BookingID),
			" ",
			s.detail.Render(fmt.Sprintf("car %s  %s to %s", booking.CarID, formatInstant(booking.Start()), formatInstant(booking.End()))),
			" ",
			s.meta.Render("deposit "+formatNear(booking.Deposit)),
		)
		if relative := formatWindowRelative(booking.Start(), booking.End(), opts.Now); relative != "" {
			line += " " + s.meta.Render("("+relative+")")
		}
		lines = append(lines, line)
	}

	return lines
}

func formatInstant(t time.Time) string {
	if t.UnixNano() == 0 {
		return "now"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func formatWindowRelative(start, end, now time.Time) string {
	if now.IsZero() || start.UnixNano() == 0 {
		return ""
	}

	switch {
	case now.Before(start):
		return "starts in " + formatDuration(start.Sub(now))
	case now.Before(end):
		return "in progress, ends in " + formatDuration(end.Sub(now))
	default:
		return "ended"
	}
}

func formatDuration(remaining time.Duration) string {
	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		if hours < 1 {
			hours = 1
		}
		return plural(hours, "hour")
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	return plural(days, "day")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// formatNear prints yoctoNEAR amounts in NEAR. Amounts with more than six
// fractional digits are left in yoctoNEAR.
func formatNear(amount domain.Amount) string {
	value, ok := new(big.Int).SetString(amount.String(), 10)
	if !ok {
		return amount.String() + " yoctoNEAR"
	}

	whole, frac := new(big.Int).QuoRem(value, yoctoPerNear, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String() + " NEAR"
	}

	digits := frac.String()
	digits = strings.Repeat("0", yoctoDigits-len(digits)) + digits
	digits = strings.TrimRight(digits, "0")
	if len(digits) > 6 {
		return value.String() + " yoctoNEAR"
	}

	return fmt.Sprintf("%s.%s NEAR", whole.String(), digits)
}
