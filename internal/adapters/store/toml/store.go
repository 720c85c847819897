package toml

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/bnema/partage-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	storePathKey    = "store.path"
	storeFileMode   = 0o600
	storeDirMode    = 0o700
	storeConfigDir  = ".partage"
	storeConfigFile = "session.toml"
	tempFilePattern = ".session-*.toml.tmp"
)

type Store struct {
	path string
	mu   *sync.RWMutex
	log  *logrus.Entry
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var (
	_ ports.ConfigStore = (*Store)(nil)
	_ ports.ConfigStore = Unavailable{}
)

// NewStore resolves the session file through viper. When no location can
// be resolved it degrades to Unavailable rather than failing the process.
func NewStore(cfg *viper.Viper, log *logrus.Entry) ports.ConfigStore {
	log = logging.OrDiscard(log)

	path, err := resolvePath(cfg)
	if err != nil {
		log.WithError(err).Warn("session store unavailable, settings will not persist")
		return Unavailable{}
	}

	return &Store{path: path, mu: lockForPath(path), log: log.WithField("store", path)}
}

func resolvePath(cfg *viper.Viper) (string, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil && cfg.GetString(storePathKey) == "" {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	if homeDir != "" {
		cfg.SetConfigName(configName)
		cfg.SetConfigType(configType)
		cfg.AddConfigPath(filepath.Join(homeDir, storeConfigDir))
		cfg.SetDefault(storePathKey, filepath.Join(homeDir, storeConfigDir, storeConfigFile))

		if err := cfg.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return "", fmt.Errorf("read config file: %w", err)
			}
		}
	}

	path := cfg.GetString(storePathKey)
	if path == "" {
		return "", errors.New("session store path is empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve session store path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, key domain.ConfigKey) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		s.log.WithError(err).WithField("key", key).Debug("treating unreadable session file as empty")
		return "", false
	}

	slot := file.Session.field(key)
	if slot == nil || *slot == "" {
		return "", false
	}

	value := *slot
	if key == domain.KeyEndpointURL {
		parsed, ok := parseEndpoint(value)
		if !ok {
			s.log.WithField("key", key).Debug("ignoring corrupt stored endpoint")
			return "", false
		}
		value = parsed
	}

	return value, true
}

func (s *Store) Set(ctx context.Context, key domain.ConfigKey, value string) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		// last write wins; an unreadable file is replaced
		file = fileSchema{}
	}
	file.applyDefaults()

	slot := file.Session.field(key)
	if slot == nil {
		s.log.WithField("key", key).Warn("ignoring write outside the session namespace")
		return
	}
	*slot = strings.TrimSpace(value)

	if err := s.writeSchema(file); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("session setting not persisted")
	}
}

func (s *Store) Clear(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeSchema(fileSchema{}); err != nil {
		s.log.WithError(err).Warn("session settings not cleared")
	}
}

func (s *Store) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read session file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode session file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *Store) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.path), storeDirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}

	if err := tempFile.Chmod(storeFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	cleanup = false

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func parseEndpoint(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
		return u.String(), true
	default:
		return "", false
	}
}

// Unavailable stands in when there is nowhere to persist to.
type Unavailable struct{}

func (Unavailable) Get(context.Context, domain.ConfigKey) (string, bool) { return "", false }

func (Unavailable) Set(context.Context, domain.ConfigKey, string) {}

func (Unavailable) Clear(context.Context) {}
