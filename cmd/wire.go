package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	chainstore "github.com/bnema/partage-cli/internal/adapters/keystore/chain"
	filestore "github.com/bnema/partage-cli/internal/adapters/keystore/file"
	passstore "github.com/bnema/partage-cli/internal/adapters/keystore/pass"
	"github.com/bnema/partage-cli/internal/adapters/ledger/jsonrpc"
	"github.com/bnema/partage-cli/internal/adapters/render/screen"
	"github.com/bnema/partage-cli/internal/adapters/signer"
	memorystore "github.com/bnema/partage-cli/internal/adapters/store/memory"
	tomlstore "github.com/bnema/partage-cli/internal/adapters/store/toml"
	"github.com/bnema/partage-cli/internal/application"
	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	envPrefix = "PARTAGE"

	keyNodeURL           = "node_url"
	keyApplicationID     = "application_id"
	keyNetwork           = "network"
	keyContractID        = "contract_id"
	keyGas               = "gas"
	keyBookingDeposit    = "booking_deposit"
	keyRPCRequestsPerSec = "rpc_rps"
	keyRPCBurst          = "rpc_burst"
	keyCredentialBackend = "credential_backend"
	keyEphemeral         = "ephemeral"
	keyLogLevel          = "log_level"
	keyLogFormat         = "log_format"

	credentialBackendAuto = "auto"
	credentialBackendPass = "pass"
	credentialBackendFile = "file"

	defaultNetwork = "testnet"
)

type settings struct {
	NodeURL           string
	ApplicationID     string
	Network           string
	ContractID        string
	Gas               uint64
	BookingDeposit    domain.Amount
	RequestsPerSecond float64
	Burst             int
	CredentialBackend string
	Ephemeral         bool
	LogLevel          string
	LogFormat         string
}

type app struct {
	settings    settings
	log         *logrus.Entry
	store       ports.ConfigStore
	credentials ports.CredentialStore
	dialer      ports.LedgerDialer
	signer      *signer.Signer
	session     *application.SessionClient
	profiles    *application.ProfileService
	bootstrap   *application.Bootstrap
	render      func(screen.Screen, screen.RenderOptions) (string, error)
	events      func(accessToken string) ports.EventStream
	now         func() time.Time
}

// loadSettings reads PARTAGE_* variables, after an optional .env file in
// the working directory.
func loadSettings() (settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return settings{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault(keyNodeURL, "")
	v.SetDefault(keyApplicationID, "")
	v.SetDefault(keyNetwork, defaultNetwork)
	v.SetDefault(keyContractID, application.DefaultContractID)
	v.SetDefault(keyGas, application.DefaultGas)
	v.SetDefault(keyBookingDeposit, application.DefaultBookingDeposit.String())
	v.SetDefault(keyRPCRequestsPerSec, 10)
	v.SetDefault(keyRPCBurst, 4)
	v.SetDefault(keyCredentialBackend, credentialBackendAuto)
	v.SetDefault(keyEphemeral, false)
	v.SetDefault(keyLogLevel, logrus.WarnLevel.String())
	v.SetDefault(keyLogFormat, logging.FormatText)

	deposit, err := domain.ParseAmount(v.GetString(keyBookingDeposit))
	if err != nil {
		return settings{}, fmt.Errorf("%s_%s: %w", envPrefix, strings.ToUpper(keyBookingDeposit), err)
	}

	return settings{
		NodeURL:           strings.TrimSpace(v.GetString(keyNodeURL)),
		ApplicationID:     strings.TrimSpace(v.GetString(keyApplicationID)),
		Network:           strings.TrimSpace(v.GetString(keyNetwork)),
		ContractID:        strings.TrimSpace(v.GetString(keyContractID)),
		Gas:               v.GetUint64(keyGas),
		BookingDeposit:    deposit,
		RequestsPerSecond: v.GetFloat64(keyRPCRequestsPerSec),
		Burst:             v.GetInt(keyRPCBurst),
		CredentialBackend: strings.ToLower(strings.TrimSpace(v.GetString(keyCredentialBackend))),
		Ephemeral:         v.GetBool(keyEphemeral),
		LogLevel:          v.GetString(keyLogLevel),
		LogFormat:         v.GetString(keyLogFormat),
	}, nil
}

func wireApp(logOutput io.Writer) (*app, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: logOutput})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	credentials, err := credentialStore(cfg.CredentialBackend)
	if err != nil {
		return nil, fmt.Errorf("wire credential store: %w", err)
	}

	var store ports.ConfigStore = memorystore.NewStore()
	if !cfg.Ephemeral {
		store = tomlstore.NewStore(viper.New(), log)
	}
	dialer := jsonrpc.NewDialer(jsonrpc.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Log:               log,
	})
	tokenSigner := signer.New(credentials, cfg.Network, ports.SystemClock{}, log)
	contract := application.Contract{
		ID:             cfg.ContractID,
		Gas:            cfg.Gas,
		BookingDeposit: cfg.BookingDeposit,
	}

	session := application.NewSessionClient(store, dialer, tokenSigner, application.SessionConfig{
		DefaultEndpointURL:   cfg.NodeURL,
		DefaultApplicationID: cfg.ApplicationID,
	}, log)
	roles := application.NewRoleResolver(session, contract, log)
	profiles := application.NewProfileService(session, session, contract, log)

	return &app{
		settings:    cfg,
		log:         log,
		store:       store,
		credentials: credentials,
		dialer:      dialer,
		signer:      tokenSigner,
		session:     session,
		profiles:    profiles,
		bootstrap:   application.NewBootstrap(session, roles, profiles, session, contract, log),
		render:      screen.Render,
		events: func(accessToken string) ports.EventStream {
			return jsonrpc.NewEventStream(accessToken, log)
		},
		now: time.Now,
	}, nil
}

// credentialHolder names the backend that holds the signer's token, or
// returns "" when the store cannot tell.
func (a *app) credentialHolder(ctx context.Context) string {
	locator, ok := a.credentials.(ports.CredentialLocator)
	if !ok {
		return ""
	}

	name, err := locator.Locate(ctx, a.settings.Network)
	if err != nil {
		a.log.WithError(err).Debug("credential backend not located")
		return ""
	}
	return name
}

func credentialStore(backend string) (ports.CredentialStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	fileRoot := filepath.Join(homeDir, ".partage", "credentials")

	switch backend {
	case "", credentialBackendAuto:
		return chainstore.NewPassFirstWithFileFallback(fileRoot)
	case credentialBackendPass:
		return passstore.NewStore(), nil
	case credentialBackendFile:
		return filestore.NewStore(fileRoot), nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q (want %s, %s or %s)",
			backend, credentialBackendAuto, credentialBackendPass, credentialBackendFile)
	}
}
