package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/sirupsen/logrus"
)

type State string

const (
	StateIdle             State = "idle"
	StateConnecting       State = "connecting"
	StateResolvingAccount State = "resolving_account"
	StateUnauthenticated  State = "unauthenticated"
	StateResolvingRole    State = "resolving_role"
	StateCreatingAccount  State = "creating_account"
	StateFetchingProfile  State = "fetching_profile"
	StateReady            State = "ready"
	StateFailed           State = "failed"
)

var ErrIllegalTransition = errors.New("illegal bootstrap transition")

var errStaleGeneration = errors.New("superseded by a newer bootstrap")

var transitions = map[State][]State{
	StateIdle:             {StateConnecting},
	StateConnecting:       {StateResolvingAccount, StateFailed},
	StateResolvingAccount: {StateUnauthenticated, StateResolvingRole, StateFailed},
	StateResolvingRole:    {StateCreatingAccount, StateFetchingProfile},
	StateCreatingAccount:  {StateResolvingRole},
	StateFetchingProfile:  {StateReady, StateFailed},
}

func canTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// Terminal reports whether the bootstrap stops in s until the next Start
// or an account creation.
func (s State) Terminal() bool {
	switch s {
	case StateUnauthenticated, StateCreatingAccount, StateReady, StateFailed:
		return true
	default:
		return false
	}
}

// Snapshot is the observable state of one bootstrap generation. Profile is
// nil until the state reaches Ready.
type Snapshot struct {
	State      State
	Generation uint64
	AccountID  domain.AccountID
	Role       domain.Role
	Profile    *domain.Profile
	Err        error
	Diagnostic string
}

type SessionConnector interface {
	Connect(ctx context.Context) (domain.Session, error)
	ResolveSignedInAccount(ctx context.Context) (domain.AccountID, bool, error)
}

type RoleChecker interface {
	ResolveRole(ctx context.Context, accountID domain.AccountID) RoleResolution
}

type ProfileFetcher interface {
	Fetch(ctx context.Context, role domain.Role, accountID domain.AccountID) (domain.Profile, error)
}

// Bootstrap sequences connect, account resolution, role resolution and
// profile loading, and decides which screen comes next.
type Bootstrap struct {
	session  SessionConnector
	roles    RoleChecker
	profiles ProfileFetcher
	writer   ContractWriter
	contract Contract
	log      *logrus.Entry

	mu         sync.Mutex
	generation uint64
	snapshot   Snapshot
	observers  []func(Snapshot)
}

func NewBootstrap(session SessionConnector, roles RoleChecker, profiles ProfileFetcher, writer ContractWriter, contract Contract, log *logrus.Entry) *Bootstrap {
	return &Bootstrap{
		session:  session,
		roles:    roles,
		profiles: profiles,
		writer:   writer,
		contract: contract.withDefaults(),
		log:      logging.OrDiscard(log).WithField("component", "bootstrap"),
		snapshot: Snapshot{State: StateIdle},
	}
}

// Observe registers fn to receive every snapshot, in order.
func (b *Bootstrap) Observe(fn func(Snapshot)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
}

func (b *Bootstrap) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot
}

// Start runs a new generation to a terminal state. Results of an older
// generation still in flight are discarded.
func (b *Bootstrap) Start(ctx context.Context) Snapshot {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.snapshot = Snapshot{State: StateIdle, Generation: gen}
	b.mu.Unlock()

	if _, err := b.advance(gen, StateConnecting, nil); err != nil {
		return b.Snapshot()
	}

	if _, err := b.session.Connect(ctx); err != nil {
		snap, _ := b.advance(gen, StateFailed, func(s *Snapshot) { s.Err = err })
		return snap
	}

	if _, err := b.advance(gen, StateResolvingAccount, nil); err != nil {
		return b.Snapshot()
	}

	accountID, ok, err := b.session.ResolveSignedInAccount(ctx)
	if err != nil {
		snap, _ := b.advance(gen, StateFailed, func(s *Snapshot) { s.Err = err })
		return snap
	}
	if !ok {
		snap, _ := b.advance(gen, StateUnauthenticated, nil)
		return snap
	}

	if _, err := b.advance(gen, StateResolvingRole, func(s *Snapshot) { s.AccountID = accountID }); err != nil {
		return b.Snapshot()
	}

	return b.settleRole(ctx, gen, accountID, b.roles.ResolveRole(ctx, accountID))
}

// settleRole moves out of ResolvingRole according to resolution.
func (b *Bootstrap) settleRole(ctx context.Context, gen uint64, accountID domain.AccountID, resolution RoleResolution) Snapshot {
	if !resolution.Role.Registered() {
		snap, _ := b.advance(gen, StateCreatingAccount, func(s *Snapshot) {
			s.Role = domain.RoleUnregistered
			s.Diagnostic = diagnosticText(resolution.Diagnostic)
		})
		return snap
	}

	if _, err := b.advance(gen, StateFetchingProfile, func(s *Snapshot) {
		s.Role = resolution.Role
		s.Diagnostic = ""
	}); err != nil {
		return b.Snapshot()
	}

	profile, err := b.profiles.Fetch(ctx, resolution.Role, accountID)
	if err != nil {
		snap, _ := b.advance(gen, StateFailed, func(s *Snapshot) { s.Err = err })
		return snap
	}

	snap, _ := b.advance(gen, StateReady, func(s *Snapshot) {
		s.Profile = &profile
		s.Diagnostic = profile.Diagnostic
	})
	return snap
}

// CreateAccount is only valid while the bootstrap waits in CreatingAccount.
// After a confirmed write the role is derived again from the contract.
func (b *Bootstrap) CreateAccount(ctx context.Context, request domain.AccountRequest) (Snapshot, error) {
	b.mu.Lock()
	current := b.snapshot
	gen := b.generation
	b.mu.Unlock()

	if current.State != StateCreatingAccount {
		return current, fmt.Errorf("%w: create account from %s", ErrIllegalTransition, current.State)
	}

	if err := request.Validate(); err != nil {
		return current, err
	}

	accountID := current.AccountID
	log := b.log.WithFields(logrus.Fields{"account_id": accountID, "kind": request.Kind})

	// the account may have been created elsewhere since the last check
	if existing := b.roles.ResolveRole(ctx, accountID); existing.Role.Registered() {
		log.WithField("role", existing.Role).Info("account already registered, skipping creation")
		if _, err := b.advance(gen, StateResolvingRole, nil); err != nil {
			return b.Snapshot(), err
		}
		return b.settleRole(ctx, gen, accountID, existing), nil
	}

	method, args := createAccountCall(accountID, request)
	outcome, err := b.writer.WriteCall(ctx, b.contract.ID, method, args, WriteOptions{Gas: b.contract.Gas})
	if err != nil {
		return b.Snapshot(), err
	}
	if !outcome.Success {
		return b.Snapshot(), &WriteError{Method: method, Reason: outcome.Error}
	}
	log.Info("account created")

	if _, err := b.advance(gen, StateResolvingRole, func(s *Snapshot) { s.Diagnostic = "" }); err != nil {
		return b.Snapshot(), err
	}

	return b.settleRole(ctx, gen, accountID, b.roles.ResolveRole(ctx, accountID)), nil
}

func createAccountCall(accountID domain.AccountID, req domain.AccountRequest) (string, any) {
	if req.Kind == domain.RoleUser {
		return methodCreateUserAccount, createUserArgs{UserID: accountID, Name: req.Name, DrivingLicense: req.DrivingLicense}
	}
	return methodCreateOwnerAccount, createOwnerArgs{OwnerID: accountID, Name: req.Name}
}

// advance applies a validated transition for generation gen and notifies
// observers. A stale generation is dropped without touching the snapshot;
// on error the snapshot returned is the one currently held.
func (b *Bootstrap) advance(gen uint64, to State, apply func(*Snapshot)) (Snapshot, error) {
	b.mu.Lock()

	log := b.log.WithFields(logrus.Fields{"generation": gen, "state": to})

	if gen != b.generation {
		current := b.snapshot
		b.mu.Unlock()
		log.Debug("discarding result of superseded bootstrap")
		return current, errStaleGeneration
	}

	current := b.snapshot
	if !canTransition(current.State, to) {
		b.mu.Unlock()
		err := fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.State, to)
		log.WithError(err).Error("rejected transition")
		return current, err
	}

	next := current
	next.State = to
	next.Err = nil
	if apply != nil {
		apply(&next)
	}
	b.snapshot = next
	observers := slices.Clone(b.observers)
	b.mu.Unlock()

	log.WithField("from", current.State).Debug("bootstrap transition")
	for _, observe := range observers {
		observe(next)
	}

	return next, nil
}

func diagnosticText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
