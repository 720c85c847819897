package application

import (
	"context"
	"fmt"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var accountFields = []string{"owner", "owner_id", "user", "user_id"}

type Refetcher interface {
	Current() (domain.Profile, bool)
	Refetch(ctx context.Context) (domain.Profile, error)
}

// WatchUpdate is delivered for every event. Profile is set when the event
// touched the signed-in account and the profile was reloaded.
type WatchUpdate struct {
	Event   domain.ContractEvent
	Profile *domain.Profile
}

// EventWatcher follows contract events and refetches the held profile
// whenever one concerns the signed-in account.
type EventWatcher struct {
	stream   ports.EventStream
	profiles Refetcher
	log      *logrus.Entry
}

func NewEventWatcher(stream ports.EventStream, profiles Refetcher, log *logrus.Entry) *EventWatcher {
	return &EventWatcher{
		stream:   stream,
		profiles: profiles,
		log:      logging.OrDiscard(log).WithField("component", "watch"),
	}
}

// Run blocks until ctx ends or the stream closes.
func (w *EventWatcher) Run(ctx context.Context, session domain.Session, onUpdate func(WatchUpdate)) error {
	if !session.Authenticated() {
		return domain.ErrNotConnected
	}

	events, err := w.stream.Subscribe(ctx, ports.Endpoint{
		URL:           session.EndpointURL,
		ApplicationID: session.ApplicationID,
		ContextID:     session.ContextID,
	})
	if err != nil {
		return fmt.Errorf("subscribe to contract events: %w", err)
	}

	for event := range events {
		update := WatchUpdate{Event: event}

		current, _ := w.profiles.Current()
		if concerns(event, session.AccountID, current) {
			profile, err := w.profiles.Refetch(ctx)
			if err != nil {
				w.log.WithError(err).WithField("event", event.Kind).Warn("refetch after event failed")
			} else {
				update.Profile = &profile
			}
		}

		if onUpdate != nil {
			onUpdate(update)
		}
	}

	return ctx.Err()
}

// concerns reports whether event names accountID or one of the cars or
// bookings in the held profile.
func concerns(event domain.ContractEvent, accountID domain.AccountID, profile domain.Profile) bool {
	payload := gjson.ParseBytes(event.Payload)

	for _, field := range accountFields {
		if v := payload.Get(field); v.Exists() && v.String() == string(accountID) {
			return true
		}
	}

	if carID := payload.Get("car_id").String(); carID != "" {
		for _, car := range profile.Cars {
			if car.CarID == carID {
				return true
			}
		}
		for _, booking := range profile.Bookings {
			if booking.CarID == carID {
				return true
			}
		}
	}

	if bookingID := payload.Get("booking_id").String(); bookingID != "" {
		for _, booking := range profile.Bookings {
			if booking.BookingID == bookingID {
				return true
			}
		}
	}

	return false
}
