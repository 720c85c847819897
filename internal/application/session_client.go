package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

const (
	FallbackEndpointURL = "http://localhost:2428"

	defaultReadAttempts = 3
	defaultReadBackoff  = 200 * time.Millisecond
)

type SessionConfig struct {
	// DefaultEndpointURL is used when no endpoint is stored; empty falls
	// back to FallbackEndpointURL.
	DefaultEndpointURL   string
	DefaultApplicationID string
	ReadAttempts         int
	ReadBackoff          time.Duration
}

// ContractReader issues read-only calls.
type ContractReader interface {
	ReadCall(ctx context.Context, contractID, method string, args any, out any) error
}

// ContractWriter issues state-changing calls under the signer's identity.
type ContractWriter interface {
	WriteCall(ctx context.Context, contractID, method string, args any, opts WriteOptions) (WriteOutcome, error)
}

type WriteOptions struct {
	Gas     uint64
	Deposit domain.Amount
}

// WriteOutcome is the contract's verdict on a write. Error holds the
// contract's reason verbatim when Success is false.
type WriteOutcome struct {
	Success bool
	Error   string
	TxHash  string
}

// SessionClient owns the connection to the node for one process run.
type SessionClient struct {
	store  ports.ConfigStore
	dialer ports.LedgerDialer
	signer ports.Signer
	cfg    SessionConfig
	log    *logrus.Entry

	mu         sync.Mutex
	session    domain.Session
	ledger     ports.Ledger
	connectErr error
	creds      domain.Credentials
}

var (
	_ ContractReader = (*SessionClient)(nil)
	_ ContractWriter = (*SessionClient)(nil)
)

func NewSessionClient(store ports.ConfigStore, dialer ports.LedgerDialer, signer ports.Signer, cfg SessionConfig, log *logrus.Entry) *SessionClient {
	if cfg.ReadAttempts <= 0 {
		cfg.ReadAttempts = defaultReadAttempts
	}
	if cfg.ReadBackoff <= 0 {
		cfg.ReadBackoff = defaultReadBackoff
	}

	return &SessionClient{
		store:   store,
		dialer:  dialer,
		signer:  signer,
		cfg:     cfg,
		log:     logging.OrDiscard(log).WithField("component", "session"),
		session: domain.Session{Status: domain.SessionDisconnected},
	}
}

// Session returns a copy of the current session.
func (c *SessionClient) Session() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Connect resolves the endpoint settings, dials the node and pings it. It
// is idempotent: once connected or failed, later calls return the same
// outcome without touching the network.
func (c *SessionClient) Connect(ctx context.Context) (domain.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.session.Status {
	case domain.SessionConnected:
		return c.session, nil
	case domain.SessionFailed:
		return c.session, c.connectErr
	}

	c.session.Status = domain.SessionConnecting
	c.session.EndpointURL = c.resolveSetting(ctx, domain.KeyEndpointURL, c.defaultEndpoint)
	c.session.ApplicationID = c.resolveSetting(ctx, domain.KeyApplicationID, c.defaultApplicationID)
	c.session.ContextID = c.resolveSetting(ctx, domain.KeyContextID, c.tokenContextID)

	log := c.log.WithFields(logrus.Fields{
		"endpoint":       c.session.EndpointURL,
		"application_id": c.session.ApplicationID,
		"context_id":     c.session.ContextID,
	})

	endpoint := ports.Endpoint{
		URL:           c.session.EndpointURL,
		ApplicationID: c.session.ApplicationID,
		ContextID:     c.session.ContextID,
	}

	ledger, err := c.dialer.Dial(ctx, endpoint)
	if err == nil {
		err = ledger.Ping(ctx)
	}
	if err != nil {
		c.session.Status = domain.SessionFailed
		c.connectErr = fmt.Errorf("%w: %s: %w", domain.ErrConnection, c.session.EndpointURL, err)
		log.WithError(err).Warn("connection failed")
		return c.session, c.connectErr
	}

	c.ledger = ledger
	c.session.Status = domain.SessionConnected
	log.Debug("connected")

	return c.session, nil
}

// resolveSetting returns the stored value or, failing that, the fallback's
// value, which is then persisted.
func (c *SessionClient) resolveSetting(ctx context.Context, key domain.ConfigKey, fallback func(context.Context) string) string {
	if value, ok := c.store.Get(ctx, key); ok {
		return value
	}

	value := strings.TrimSpace(fallback(ctx))
	if value != "" {
		c.store.Set(ctx, key, value)
	}
	return value
}

func (c *SessionClient) defaultEndpoint(context.Context) string {
	if c.cfg.DefaultEndpointURL != "" {
		return c.cfg.DefaultEndpointURL
	}
	return FallbackEndpointURL
}

func (c *SessionClient) defaultApplicationID(context.Context) string {
	return c.cfg.DefaultApplicationID
}

func (c *SessionClient) tokenContextID(ctx context.Context) string {
	if c.signer == nil {
		return ""
	}
	creds, err := c.signer.Credentials(ctx)
	if err != nil {
		return ""
	}
	return creds.ContextID
}

// ResolveSignedInAccount asks the signer who is signed in and keeps the
// cached account id in step with the answer.
func (c *SessionClient) ResolveSignedInAccount(ctx context.Context) (domain.AccountID, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Status != domain.SessionConnected {
		return "", false, domain.ErrNotConnected
	}

	if c.signer == nil {
		c.forgetAccountLocked(ctx)
		return "", false, nil
	}

	creds, err := c.signer.Credentials(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSigner) {
			c.forgetAccountLocked(ctx)
			return "", false, nil
		}
		return "", false, fmt.Errorf("resolve signed-in account: %w", err)
	}

	c.creds = creds
	c.session.AccountID = creds.AccountID
	c.store.Set(ctx, domain.KeyCachedAccountID, string(creds.AccountID))

	return creds.AccountID, true, nil
}

func (c *SessionClient) forgetAccountLocked(ctx context.Context) {
	c.creds = domain.Credentials{}
	c.session.AccountID = ""
	c.store.Set(ctx, domain.KeyCachedAccountID, "")
}

func (c *SessionClient) connected() (ports.Ledger, domain.Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Status != domain.SessionConnected || c.ledger == nil {
		return nil, domain.Credentials{}, domain.ErrNotConnected
	}
	return c.ledger, c.creds, nil
}

// ReadCall runs a read-only method and decodes its output into out (when
// out is non-nil). Transport failures are retried; contract errors are not.
func (c *SessionClient) ReadCall(ctx context.Context, contractID, method string, args any, out any) error {
	ledger, creds, err := c.connected()
	if err != nil {
		return fmt.Errorf("read %s: %w", method, err)
	}

	encoded, err := encodeArgs(args)
	if err != nil {
		return fmt.Errorf("read %s: %w", method, err)
	}

	req := ports.QueryRequest{
		ContractID:  contractID,
		Method:      method,
		Args:        encoded,
		AccessToken: creds.AccessToken,
	}

	var raw json.RawMessage
	for attempt := 1; ; attempt++ {
		raw, err = ledger.Query(ctx, req)
		if err == nil {
			break
		}
		if attempt >= c.cfg.ReadAttempts || !errors.Is(err, domain.ErrTransport) || ctx.Err() != nil {
			return fmt.Errorf("read %s: %w", method, err)
		}

		c.log.WithError(err).WithFields(logrus.Fields{"method": method, "attempt": attempt}).Debug("retrying read")
		if err := sleepContext(ctx, c.cfg.ReadBackoff*time.Duration(attempt)); err != nil {
			return fmt.Errorf("read %s: %w", method, err)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("read %s: decode output: %w", method, err)
	}
	return nil
}

// WriteCall submits a state-changing call once. A non-nil error means the
// outcome is unknown and the caller should re-read state.
func (c *SessionClient) WriteCall(ctx context.Context, contractID, method string, args any, opts WriteOptions) (WriteOutcome, error) {
	ledger, creds, err := c.connected()
	if err != nil {
		return WriteOutcome{}, fmt.Errorf("write %s: %w", method, err)
	}
	if creds.AccountID == "" {
		return WriteOutcome{}, fmt.Errorf("write %s: %w", method, domain.ErrNoSigner)
	}

	encoded, err := encodeArgs(args)
	if err != nil {
		return WriteOutcome{}, fmt.Errorf("write %s: %w", method, err)
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "account_id": creds.AccountID})

	result, err := ledger.Mutate(ctx, ports.MutateRequest{
		ContractID:  contractID,
		Method:      method,
		Args:        encoded,
		SignerID:    creds.AccountID,
		AccessToken: creds.AccessToken,
		Gas:         opts.Gas,
		Deposit:     opts.Deposit,
	})
	if err != nil {
		log.WithError(err).Warn("write outcome unknown")
		return WriteOutcome{}, fmt.Errorf("write %s: outcome unknown: %w", method, err)
	}

	if !result.Success {
		log.WithField("reason", result.Reason).Info("write rejected by contract")
		return WriteOutcome{Success: false, Error: result.Reason}, nil
	}

	log.WithField("tx_hash", result.TxHash).Debug("write applied")
	return WriteOutcome{Success: true, TxHash: result.TxHash}, nil
}

func encodeArgs(args any) (json.RawMessage, error) {
	if args == nil {
		return json.RawMessage(`{}`), nil
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	return encoded, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
