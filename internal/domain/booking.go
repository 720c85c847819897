package domain

import (
	"fmt"
	"math"
	"time"
)

// Bookings travel as unsigned nanosecond timestamps held in an int64.
var (
	earliestBookingTime = time.Unix(0, 0).UTC()
	latestBookingTime   = time.Unix(0, math.MaxInt64).UTC()
)

type Booking struct {
	BookingID      string    `json:"booking_id"`
	CarID          string    `json:"car_id"`
	UserID         AccountID `json:"user_id"`
	StartTimeNanos int64     `json:"start_time"`
	EndTimeNanos   int64     `json:"end_time"`
	Deposit        Amount    `json:"deposit"`
}

func (b Booking) Start() time.Time {
	return time.Unix(0, b.StartTimeNanos).UTC()
}

func (b Booking) End() time.Time {
	return time.Unix(0, b.EndTimeNanos).UTC()
}

type BookingWindow struct {
	Start time.Time
	End   time.Time
}

func (w BookingWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidBookingWindow)
	}
	if w.Start.Before(earliestBookingTime) {
		return fmt.Errorf("%w: start %s is before %s", ErrInvalidBookingWindow,
			w.Start.Format(time.RFC3339), earliestBookingTime.Format(time.RFC3339))
	}
	if w.End.After(latestBookingTime) {
		return fmt.Errorf("%w: end %s is after %s", ErrInvalidBookingWindow,
			w.End.Format(time.RFC3339), latestBookingTime.Format(time.RFC3339))
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("%w: end %s must be after start %s", ErrInvalidBookingWindow,
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}

	return nil
}

// Nanos returns the contract's nanosecond timestamps.
func (w BookingWindow) Nanos() (start int64, end int64) {
	return w.Start.UnixNano(), w.End.UnixNano()
}
