package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/partage-cli/internal/adapters/keystore/file"
	passstore "github.com/bnema/partage-cli/internal/adapters/keystore/pass"
	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/ports"
)

// Backend is one named credential store in a chain.
type Backend struct {
	Name  string
	Store ports.CredentialStore
}

// Store keeps an access token in the first backend that accepts it and
// reads it back from whichever backend holds it.
type Store struct {
	backends []Backend
}

var (
	_ ports.CredentialStore   = (*Store)(nil)
	_ ports.CredentialLocator = (*Store)(nil)
)

var errNoBackends = errors.New("credential chain has no backends")

func NewStore(backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, backend := range backends {
		if backend.Store == nil {
			return nil, fmt.Errorf("credential backend %d (%q) is nil", i, backend.Name)
		}
		if backend.Name == "" {
			return nil, fmt.Errorf("credential backend %d has no name", i)
		}
	}

	return &Store{backends: append([]Backend(nil), backends...)}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(
		Backend{Name: passstore.BackendName, Store: passstore.NewStore()},
		Backend{Name: filestore.BackendName, Store: filestore.NewStore(fileRoot)},
	)
}

// Save rejects a token without JWT shape before any backend sees it.
func (s *Store) Save(ctx context.Context, network string, token string) error {
	_, err := s.SaveTo(ctx, network, token)
	return err
}

// SaveTo is Save that also names the backend that accepted the token.
func (s *Store) SaveTo(ctx context.Context, network string, token string) (string, error) {
	token, err := domain.CheckAccessToken(token)
	if err != nil {
		return "", fmt.Errorf("save access token for %q: %w", network, err)
	}

	var failures []error
	for _, backend := range s.backends {
		err := backend.Store.Save(ctx, network, token)
		if err == nil {
			return backend.Name, nil
		}
		if interrupted(err) {
			return "", err
		}
		failures = append(failures, fmt.Errorf("%s backend save failed: %w", backend.Name, err))
	}

	return "", errors.Join(failures...)
}

func (s *Store) Load(ctx context.Context, network string) (string, error) {
	token, _, err := s.find(ctx, network)
	return token, err
}

// Locate names the first backend holding a token for network.
func (s *Store) Locate(ctx context.Context, network string) (string, error) {
	_, name, err := s.find(ctx, network)
	return name, err
}

func (s *Store) find(ctx context.Context, network string) (string, string, error) {
	var failures []error
	for _, backend := range s.backends {
		token, err := backend.Store.Load(ctx, network)
		if err == nil {
			return token, backend.Name, nil
		}
		if interrupted(err) {
			return "", "", err
		}
		failures = append(failures, fmt.Errorf("%s backend load failed: %w", backend.Name, err))
	}

	return "", "", errors.Join(failures...)
}

// Remove clears every backend; a token may have been saved to any of them.
// It succeeds when at least one backend removed cleanly.
func (s *Store) Remove(ctx context.Context, network string) error {
	var failures []error
	for _, backend := range s.backends {
		err := backend.Store.Remove(ctx, network)
		if err == nil {
			continue
		}
		if interrupted(err) {
			return err
		}
		failures = append(failures, fmt.Errorf("%s backend remove failed: %w", backend.Name, err))
	}

	if len(failures) == len(s.backends) {
		return errors.Join(failures...)
	}
	for _, failure := range failures {
		if !errors.Is(failure, passstore.ErrUnavailable) {
			return failure
		}
	}
	return nil
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
