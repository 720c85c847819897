package domain

import "encoding/json"

type EventKind string

const (
	EventOwnerCreated     EventKind = "OwnerCreated"
	EventUserCreated      EventKind = "UserCreated"
	EventCarAdded         EventKind = "CarAdded"
	EventCarDeleted       EventKind = "CarDeleted"
	EventCarBooked        EventKind = "CarBooked"
	EventBookingCancelled EventKind = "BookingCancelled"
	EventCarRented        EventKind = "CarRented"
	EventCarReturned      EventKind = "CarReturned"
)

type ContractEvent struct {
	Kind      EventKind
	ContextID string
	Payload   json.RawMessage
}
