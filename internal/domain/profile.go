package domain

import "slices"

// Profile is rebuilt on every fetch. Cars are only set for owners and
// bookings only for users; use the constructors to keep it that way.
type Profile struct {
	Role     Role
	Cars     []Car
	Bookings []Booking
	// Diagnostic is set when the list could not be read and an empty one
	// was substituted.
	Diagnostic string
}

func NewOwnerProfile(cars []Car) Profile {
	if cars == nil {
		cars = []Car{}
	}
	return Profile{Role: RoleOwner, Cars: cars}
}

func NewUserProfile(bookings []Booking) Profile {
	if bookings == nil {
		bookings = []Booking{}
	}
	return Profile{Role: RoleUser, Bookings: bookings}
}

func (p Profile) Clone() Profile {
	clone := p
	clone.Cars = slices.Clone(p.Cars)
	clone.Bookings = slices.Clone(p.Bookings)
	return clone
}
