package ports

import (
	"context"

	"github.com/bnema/partage-cli/internal/domain"
)

// ConfigStore is the durable session namespace. Reads are total: a missing,
// unreadable or corrupt entry reports ok=false. Writes never fail loudly.
type ConfigStore interface {
	Get(ctx context.Context, key domain.ConfigKey) (value string, ok bool)
	Set(ctx context.Context, key domain.ConfigKey, value string)
	Clear(ctx context.Context)
}

// ReadConfig collects the whole namespace.
func ReadConfig(ctx context.Context, store ConfigStore) domain.PersistedConfig {
	var cfg domain.PersistedConfig
	cfg.EndpointURL, _ = store.Get(ctx, domain.KeyEndpointURL)
	cfg.ApplicationID, _ = store.Get(ctx, domain.KeyApplicationID)
	cfg.ContextID, _ = store.Get(ctx, domain.KeyContextID)
	accountID, _ := store.Get(ctx, domain.KeyCachedAccountID)
	cfg.CachedAccountID = domain.AccountID(accountID)
	return cfg
}
