package chain

import (
	"context"
	"errors"
	"testing"

	passstore "github.com/bnema/partage-cli/internal/adapters/keystore/pass"
	"github.com/bnema/partage-cli/internal/domain"
	portmocks "github.com/bnema/partage-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testToken = "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhbGljZSJ9.c2ln"

func passThenFile(t *testing.T) (*Store, *portmocks.MockCredentialStore, *portmocks.MockCredentialStore) {
	t.Helper()

	pass := portmocks.NewMockCredentialStore(t)
	file := portmocks.NewMockCredentialStore(t)
	store, err := NewStore(Backend{Name: "pass", Store: pass}, Backend{Name: "file", Store: file})
	require.NoError(t, err)

	return store, pass, file
}

func TestStoreLoadUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	store, pass, _ := passThenFile(t)
	pass.EXPECT().Load(mock.Anything, "testnet").Return("from-pass", nil).Once()

	token, err := store.Load(context.Background(), "testnet")
	require.NoError(t, err)
	assert.Equal(t, "from-pass", token)
}

func TestStoreLocateNamesBackendHoldingToken(t *testing.T) {
	t.Parallel()

	store, pass, file := passThenFile(t)
	pass.EXPECT().Load(mock.Anything, "testnet").Return("", passstore.ErrUnavailable).Once()
	file.EXPECT().Load(mock.Anything, "testnet").Return(testToken, nil).Once()

	name, err := store.Locate(context.Background(), "testnet")
	require.NoError(t, err)
	assert.Equal(t, "file", name)
}

func TestStoreLoadKeepsNotFoundWhenAllBackendsMiss(t *testing.T) {
	t.Parallel()

	store, pass, file := passThenFile(t)
	pass.EXPECT().Load(mock.Anything, "testnet").Return("", passstore.ErrUnavailable).Once()
	file.EXPECT().Load(mock.Anything, "testnet").Return("", domain.ErrCredentialNotFound).Once()

	_, err := store.Locate(context.Background(), "testnet")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
	assert.ErrorIs(t, err, passstore.ErrUnavailable)
	assert.ErrorContains(t, err, "pass backend load failed")
	assert.ErrorContains(t, err, "file backend load failed")
}

func TestStoreSaveRejectsMalformedTokenBeforeAnyBackend(t *testing.T) {
	t.Parallel()

	store, _, _ := passThenFile(t)

	for _, token := range []string{"", "opaque-token", "a.b", "a..c", "a.b c.d", "a.b.c.d"} {
		err := store.Save(context.Background(), "testnet", token)
		assert.ErrorIs(t, err, domain.ErrMalformedToken, token)
	}
}

func TestStoreSaveToReportsAcceptingBackend(t *testing.T) {
	t.Parallel()

	store, pass, file := passThenFile(t)
	pass.EXPECT().Save(mock.Anything, "testnet", testToken).Return(errors.New("gpg failed")).Once()
	file.EXPECT().Save(mock.Anything, "testnet", testToken).Return(nil).Once()

	name, err := store.SaveTo(context.Background(), "testnet", " "+testToken+"\n")
	require.NoError(t, err)
	assert.Equal(t, "file", name)
}

func TestStoreSaveDoesNotFallBackOnCancellation(t *testing.T) {
	t.Parallel()

	store, pass, _ := passThenFile(t)
	pass.EXPECT().Save(mock.Anything, "testnet", testToken).Return(context.Canceled).Once()

	err := store.Save(context.Background(), "testnet", testToken)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreRemoveClearsEveryBackend(t *testing.T) {
	t.Parallel()

	store, pass, file := passThenFile(t)
	pass.EXPECT().Remove(mock.Anything, "testnet").Return(nil).Once()
	file.EXPECT().Remove(mock.Anything, "testnet").Return(nil).Once()

	require.NoError(t, store.Remove(context.Background(), "testnet"))
}

func TestStoreRemoveToleratesMissingPass(t *testing.T) {
	t.Parallel()

	store, pass, file := passThenFile(t)
	pass.EXPECT().Remove(mock.Anything, "testnet").Return(passstore.ErrUnavailable).Once()
	file.EXPECT().Remove(mock.Anything, "testnet").Return(nil).Once()

	require.NoError(t, store.Remove(context.Background(), "testnet"))
}

func TestStoreRemoveReportsTokenLeftBehind(t *testing.T) {
	t.Parallel()

	store, pass, file := passThenFile(t)
	pass.EXPECT().Remove(mock.Anything, "testnet").Return(errors.New("gpg failed")).Once()
	file.EXPECT().Remove(mock.Anything, "testnet").Return(nil).Once()

	err := store.Remove(context.Background(), "testnet")
	assert.ErrorContains(t, err, "pass backend remove failed")
}

func TestNewStoreRejectsBadBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore()
	assert.ErrorIs(t, err, errNoBackends)

	_, err = NewStore(Backend{Name: "pass"})
	assert.ErrorContains(t, err, "is nil")

	_, err = NewStore(Backend{Store: portmocks.NewMockCredentialStore(t)})
	assert.ErrorContains(t, err, "has no name")
}
