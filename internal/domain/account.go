package domain

import (
	"fmt"
	"strings"
	"time"
)

type AccountID string

// Role is derived from contract membership on every bootstrap, never stored.
type Role string

const (
	RoleUnregistered Role = "unregistered"
	RoleOwner        Role = "owner"
	RoleUser         Role = "user"
)

func (r Role) Registered() bool {
	return r == RoleOwner || r == RoleUser
}

func (r Role) Label() string {
	switch r {
	case RoleOwner:
		return "Owner"
	case RoleUser:
		return "User"
	case RoleUnregistered:
		return "Unregistered"
	default:
		return string(r)
	}
}

// Credentials is what the attached signer knows about the signed-in account.
type Credentials struct {
	AccountID   AccountID
	AccessToken string
	ContextID   string
	ExpiresAt   time.Time
}

func (c Credentials) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}

	return !now.Before(c.ExpiresAt)
}

// CheckAccessToken trims token and verifies it has the compact JWT shape:
// three non-empty base64url segments separated by dots.
func CheckAccessToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: token is empty", ErrMalformedToken)
	}

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return "", fmt.Errorf("%w: want 3 segments, got %d", ErrMalformedToken, len(segments))
	}
	for i, segment := range segments {
		if segment == "" {
			return "", fmt.Errorf("%w: segment %d is empty", ErrMalformedToken, i+1)
		}
		if strings.IndexFunc(segment, notBase64URL) >= 0 {
			return "", fmt.Errorf("%w: segment %d is not base64url", ErrMalformedToken, i+1)
		}
	}

	return token, nil
}

func notBase64URL(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		return false
	}
	return true
}

type AccountRequest struct {
	Kind           Role
	Name           string
	DrivingLicense string
}

func (r AccountRequest) Validate() error {
	if !r.Kind.Registered() {
		return fmt.Errorf("%w: account type must be owner or user, got %q", ErrInvalidAccountRequest, r.Kind)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAccountRequest)
	}
	if r.Kind == RoleUser && strings.TrimSpace(r.DrivingLicense) == "" {
		return fmt.Errorf("%w: driving license is required for user accounts", ErrInvalidAccountRequest)
	}

	return nil
}
