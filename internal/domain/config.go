package domain

// ConfigKey names an entry of the persisted session namespace.
type ConfigKey string

const (
	KeyEndpointURL     ConfigKey = "endpoint-url"
	KeyContextID       ConfigKey = "context-id"
	KeyApplicationID   ConfigKey = "application-id"
	KeyCachedAccountID ConfigKey = "cached-account-id"
)

func AllConfigKeys() []ConfigKey {
	return []ConfigKey{KeyEndpointURL, KeyContextID, KeyApplicationID, KeyCachedAccountID}
}

// PersistedConfig is a read-out of the namespace. Empty strings mean "unset".
type PersistedConfig struct {
	EndpointURL     string
	ApplicationID   string
	ContextID       string
	CachedAccountID AccountID
}
