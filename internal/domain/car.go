package domain

import "fmt"

type Car struct {
	CarID      string    `json:"car_id"`
	OwnerID    AccountID `json:"owner_id"`
	HourlyRate Amount    `json:"hourly_rate"`
	Available  bool      `json:"available"`
}

// ParseHourlyRate validates user input before any call is issued. The
// contract rejects a zero rate, so it is refused here too.
func ParseHourlyRate(raw string) (Amount, error) {
	rate, err := ParseAmount(raw)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %v", ErrInvalidHourlyRate, err)
	}
	if rate.IsZero() {
		return Amount{}, fmt.Errorf("%w: rate must be greater than zero", ErrInvalidHourlyRate)
	}
	return rate, nil
}
