package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bnema/partage-cli/internal/adapters/store/memory"
	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// fakeNode is an in-memory car-sharing contract behind the Ledger port.
type fakeNode struct {
	mu sync.Mutex

	pingErr  error
	owners   map[domain.AccountID]bool
	users    map[domain.AccountID]bool
	cars     []domain.Car
	bookings []domain.Booking

	queryErr  map[string]error
	mutateErr map[string]error
	reject    map[string]string

	queries   map[string]int
	queryArgs map[string][]gjson.Result
	mutations []ports.MutateRequest
}

var _ ports.Ledger = (*fakeNode)(nil)

func newFakeNode() *fakeNode {
	return &fakeNode{
		owners:    map[domain.AccountID]bool{},
		users:     map[domain.AccountID]bool{},
		queryErr:  map[string]error{},
		mutateErr: map[string]error{},
		reject:    map[string]string{},
		queries:   map[string]int{},
		queryArgs: map[string][]gjson.Result{},
	}
}

func (n *fakeNode) Ping(context.Context) error {
	return n.pingErr
}

func (n *fakeNode) Query(_ context.Context, req ports.QueryRequest) (json.RawMessage, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	args := gjson.ParseBytes(req.Args)
	n.queries[req.Method]++
	n.queryArgs[req.Method] = append(n.queryArgs[req.Method], args)

	if err := n.queryErr[req.Method]; err != nil {
		return nil, err
	}

	var out any
	switch req.Method {
	case methodIsOwner:
		out = n.owners[domain.AccountID(args.Get("account_id").String())]
	case methodIsUser:
		out = n.users[domain.AccountID(args.Get("account_id").String())]
	case methodListOwnerCars:
		cars := []domain.Car{}
		for _, car := range n.cars {
			if string(car.OwnerID) == args.Get("owner_id").String() {
				cars = append(cars, car)
			}
		}
		out = cars
	case methodListUserBookings:
		bookings := []domain.Booking{}
		for _, booking := range n.bookings {
			if string(booking.UserID) == args.Get("user_id").String() {
				bookings = append(bookings, booking)
			}
		}
		out = bookings
	case methodListAvailableCars:
		cars := []domain.Car{}
		for _, car := range n.cars {
			if car.Available {
				cars = append(cars, car)
			}
		}
		out = cars
	case methodGetCarInfo:
		out = n.car(args.Get("car_id").String())
	case methodCheckAvailability:
		car := n.car(args.Get("car_id").String())
		if car == nil {
			return nil, errors.New("CarNotFound")
		}
		out = car.Available
	default:
		return nil, fmt.Errorf("unknown view method %s", req.Method)
	}

	return json.Marshal(out)
}

func (n *fakeNode) car(carID string) *domain.Car {
	for i := range n.cars {
		if n.cars[i].CarID == carID {
			return &n.cars[i]
		}
	}
	return nil
}

func (n *fakeNode) Mutate(_ context.Context, req ports.MutateRequest) (ports.MutateResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.mutations = append(n.mutations, req)

	if err := n.mutateErr[req.Method]; err != nil {
		return ports.MutateResult{}, err
	}
	if reason, ok := n.reject[req.Method]; ok {
		return ports.MutateResult{Success: false, Reason: reason}, nil
	}

	args := gjson.ParseBytes(req.Args)
	switch req.Method {
	case methodCreateOwnerAccount:
		n.owners[domain.AccountID(args.Get("owner_id").String())] = true
	case methodCreateUserAccount:
		n.users[domain.AccountID(args.Get("user_id").String())] = true
	case methodAddCar:
		n.cars = append(n.cars, domain.Car{
			CarID:      args.Get("car_id").String(),
			OwnerID:    domain.AccountID(args.Get("owner_id").String()),
			HourlyRate: domain.MustAmount(args.Get("hourly_rate").Raw),
			Available:  true,
		})
	case methodDeleteCar:
		kept := n.cars[:0]
		for _, car := range n.cars {
			if car.CarID != args.Get("car_id").String() {
				kept = append(kept, car)
			}
		}
		n.cars = kept
	case methodBookCar:
		n.bookings = append(n.bookings, domain.Booking{
			BookingID:      fmt.Sprintf("%s-%s-%d", args.Get("car_id").String(), args.Get("user_id").String(), args.Get("start_time").Int()),
			CarID:          args.Get("car_id").String(),
			UserID:         domain.AccountID(args.Get("user_id").String()),
			StartTimeNanos: args.Get("start_time").Int(),
			EndTimeNanos:   args.Get("end_time").Int(),
			Deposit:        req.Deposit,
		})
	case methodCancelBooking:
		kept := n.bookings[:0]
		for _, booking := range n.bookings {
			if booking.BookingID != args.Get("booking_id").String() {
				kept = append(kept, booking)
			}
		}
		n.bookings = kept
	case methodRentCar:
		for i := range n.cars {
			if n.cars[i].CarID == args.Get("car_id").String() {
				n.cars[i].Available = false
			}
		}
		n.bookings = append(n.bookings, domain.Booking{
			BookingID: "rental-" + args.Get("car_id").String(),
			CarID:     args.Get("car_id").String(),
			UserID:    domain.AccountID(args.Get("user_id").String()),
			Deposit:   req.Deposit,
		})
	case methodReturnCar:
		for i := range n.cars {
			if n.cars[i].CarID == args.Get("car_id").String() {
				n.cars[i].Available = true
			}
		}
	}

	return ports.MutateResult{Success: true, TxHash: fmt.Sprintf("tx-%d", len(n.mutations))}, nil
}

func (n *fakeNode) queryCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.queries[method]
}

func (n *fakeNode) argsOf(method string) []gjson.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]gjson.Result(nil), n.queryArgs[method]...)
}

func (n *fakeNode) writes() []ports.MutateRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.MutateRequest(nil), n.mutations...)
}

type fakeDialer struct {
	node  *fakeNode
	err   error
	mu    sync.Mutex
	dials []ports.Endpoint
}

func (d *fakeDialer) Dial(_ context.Context, endpoint ports.Endpoint) (ports.Ledger, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials = append(d.dials, endpoint)
	if d.err != nil {
		return nil, d.err
	}
	return d.node, nil
}

type fakeSigner struct {
	creds domain.Credentials
	err   error
}

func (s fakeSigner) Credentials(context.Context) (domain.Credentials, error) {
	if s.err != nil {
		return domain.Credentials{}, s.err
	}
	if s.creds.AccountID == "" {
		return domain.Credentials{}, domain.ErrNoSigner
	}
	return s.creds, nil
}

func signedIn(accountID domain.AccountID) fakeSigner {
	return fakeSigner{creds: domain.Credentials{AccountID: accountID, AccessToken: "token-" + string(accountID)}}
}

type harness struct {
	node      *fakeNode
	dialer    *fakeDialer
	store     *memory.Store
	session   *SessionClient
	roles     *RoleResolver
	profiles  *ProfileService
	bootstrap *Bootstrap
}

func newHarness(t *testing.T, signer ports.Signer) *harness {
	t.Helper()

	node := newFakeNode()
	dialer := &fakeDialer{node: node}
	store := memory.NewStore()
	contract := Contract{ID: "partage.testnet"}

	session := NewSessionClient(store, dialer, signer, SessionConfig{ReadAttempts: 1}, nil)
	roles := NewRoleResolver(session, contract, nil)
	profiles := NewProfileService(session, session, contract, nil)

	return &harness{
		node:      node,
		dialer:    dialer,
		store:     store,
		session:   session,
		roles:     roles,
		profiles:  profiles,
		bootstrap: NewBootstrap(session, roles, profiles, session, contract, nil),
	}
}

// ready runs the bootstrap and requires it to reach Ready.
func (h *harness) ready(t *testing.T) Snapshot {
	t.Helper()

	snap := h.bootstrap.Start(context.Background())
	require.Equal(t, StateReady, snap.State, "bootstrap error: %v", snap.Err)
	return snap
}

func mockAnyContext() interface{} {
	return mock.Anything
}
