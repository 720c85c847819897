package domain

import "errors"

var (
	ErrConnection            = errors.New("ledger connection failed")
	ErrTransport             = errors.New("ledger transport failed")
	ErrNotConnected          = errors.New("session is not connected")
	ErrNoSigner              = errors.New("no signer attached")
	ErrCredentialNotFound    = errors.New("credential not found")
	ErrMalformedToken        = errors.New("malformed access token")
	ErrInvalidHourlyRate     = errors.New("invalid hourly rate")
	ErrInvalidBookingWindow  = errors.New("invalid booking window")
	ErrInvalidAccountRequest = errors.New("invalid account request")
	ErrInvalidRole           = errors.New("invalid role")
	ErrRoleMismatch          = errors.New("operation not allowed for this role")
	ErrCarNotAvailable       = errors.New("car is not available")
	ErrCarNotFound           = errors.New("car not found")
)
