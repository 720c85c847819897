package memory

import (
	"context"
	"testing"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/stretchr/testify/assert"
)

func TestStoreSetGetClear(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	store.Set(ctx, domain.KeyContextID, "ctx-1")
	got, ok := store.Get(ctx, domain.KeyContextID)
	assert.True(t, ok)
	assert.Equal(t, "ctx-1", got)

	store.Clear(ctx)
	for _, key := range domain.AllConfigKeys() {
		_, ok := store.Get(ctx, key)
		assert.False(t, ok, key)
	}
}

func TestReadConfigDefaultsToEmptyStrings(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Set(context.Background(), domain.KeyCachedAccountID, "alice.testnet")

	cfg := ports.ReadConfig(context.Background(), store)
	assert.Equal(t, domain.PersistedConfig{CachedAccountID: "alice.testnet"}, cfg)
}
