package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/ports"
)

// BackendName identifies this store when a chain reports where a token lives.
const BackendName = "file"

const (
	storeDirMode   = 0o700
	tokenFileMode  = 0o600
	tokenFileName  = "access_token"
	networkDirBase = "networks"
)

// Store keeps one access token file per network under root.
type Store struct {
	root string
	mu   sync.RWMutex
}

var (
	_ ports.CredentialStore   = (*Store)(nil)
	_ ports.CredentialLocator = (*Store)(nil)
)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Save(ctx context.Context, network string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForNetwork(network)
	if err != nil {
		return err
	}

	token, err = domain.CheckAccessToken(token)
	if err != nil {
		return fmt.Errorf("save access token for %q: %w", network, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(token), tokenFileMode); err != nil {
		return fmt.Errorf("write access token for %q: %w", network, err)
	}

	return nil
}

func (s *Store) Load(ctx context.Context, network string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathForNetwork(network)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("access token for %q: %w", network, domain.ErrCredentialNotFound)
		}
		return "", fmt.Errorf("read access token for %q: %w", network, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("access token for %q: %w", network, domain.ErrCredentialNotFound)
	}

	return token, nil
}

// Locate answers BackendName when a token file exists for network.
func (s *Store) Locate(ctx context.Context, network string) (string, error) {
	if _, err := s.Load(ctx, network); err != nil {
		return "", err
	}
	return BackendName, nil
}

func (s *Store) Remove(ctx context.Context, network string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForNetwork(network)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove access token for %q: %w", network, err)
	}

	return nil
}

func (s *Store) pathForNetwork(network string) (string, error) {
	trimmed := strings.TrimSpace(network)
	if trimmed == "" {
		return "", errors.New("network is empty")
	}

	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return "", fmt.Errorf("invalid network name %q", network)
	}

	return filepath.Join(s.root, networkDirBase, trimmed, tokenFileName), nil
}
