package toml

import (
	"fmt"

	"github.com/bnema/partage-cli/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int           `toml:"version"`
	Session sessionSchema `toml:"session"`
}

type sessionSchema struct {
	EndpointURL     string `toml:"endpoint_url,omitempty"`
	ContextID       string `toml:"context_id,omitempty"`
	ApplicationID   string `toml:"application_id,omitempty"`
	CachedAccountID string `toml:"cached_account_id,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// field maps a namespaced key onto its slot in the schema; nil for
// keys outside the namespace.
func (s *sessionSchema) field(key domain.ConfigKey) *string {
	switch key {
	case domain.KeyEndpointURL:
		return &s.EndpointURL
	case domain.KeyContextID:
		return &s.ContextID
	case domain.KeyApplicationID:
		return &s.ApplicationID
	case domain.KeyCachedAccountID:
		return &s.CachedAccountID
	default:
		return nil
	}
}
