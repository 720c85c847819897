package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyAs(t *testing.T, accountID domain.AccountID, role domain.Role) *harness {
	t.Helper()

	h := newHarness(t, signedIn(accountID))
	switch role {
	case domain.RoleOwner:
		h.node.owners[accountID] = true
	case domain.RoleUser:
		h.node.users[accountID] = true
	}
	h.ready(t)
	return h
}

func TestFetchOwnerProfileHasOnlyCars(t *testing.T) {
	h := newHarness(t, signedIn("alice.testnet"))
	h.node.owners["alice.testnet"] = true
	h.node.cars = []domain.Car{
		{CarID: "car-1", OwnerID: "alice.testnet", HourlyRate: domain.MustAmount("10"), Available: true},
		{CarID: "car-2", OwnerID: "someone.testnet", HourlyRate: domain.MustAmount("5"), Available: true},
	}

	snap := h.ready(t)

	require.NotNil(t, snap.Profile)
	assert.Equal(t, domain.RoleOwner, snap.Profile.Role)
	require.Len(t, snap.Profile.Cars, 1)
	assert.Equal(t, "car-1", snap.Profile.Cars[0].CarID)
	assert.Nil(t, snap.Profile.Bookings)
	assert.Zero(t, h.node.queryCount(methodListUserBookings))
}

func TestFetchUserProfileHasOnlyBookings(t *testing.T) {
	h := newHarness(t, signedIn("bob.testnet"))
	h.node.users["bob.testnet"] = true
	h.node.bookings = []domain.Booking{{BookingID: "b-1", CarID: "car-1", UserID: "bob.testnet"}}

	snap := h.ready(t)

	require.NotNil(t, snap.Profile)
	assert.Equal(t, domain.RoleUser, snap.Profile.Role)
	require.Len(t, snap.Profile.Bookings, 1)
	assert.Nil(t, snap.Profile.Cars)
	assert.Zero(t, h.node.queryCount(methodListOwnerCars))
}

func TestFetchReadFailureYieldsEmptyListWithDiagnostic(t *testing.T) {
	h := newHarness(t, signedIn("alice.testnet"))
	h.node.owners["alice.testnet"] = true
	h.node.queryErr[methodListOwnerCars] = errors.New("storage read failed")

	snap := h.ready(t)

	require.NotNil(t, snap.Profile)
	assert.Empty(t, snap.Profile.Cars)
	assert.NotNil(t, snap.Profile.Cars)
	assert.Contains(t, snap.Profile.Diagnostic, "could not load cars")
	assert.Contains(t, snap.Diagnostic, "storage read failed")
}

func TestFetchRejectsUnregisteredRole(t *testing.T) {
	h := newHarness(t, signedIn("alice.testnet"))

	_, err := h.profiles.Fetch(context.Background(), domain.RoleUnregistered, "alice.testnet")

	require.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestAddCarRefetchesOnce(t *testing.T) {
	h := readyAs(t, "alice.testnet", domain.RoleOwner)
	before := h.node.queryCount(methodListOwnerCars)

	profile, err := h.profiles.AddCar(context.Background(), "", "car-9", "1500")

	require.NoError(t, err)
	require.Len(t, profile.Cars, 1)
	assert.Equal(t, "car-9", profile.Cars[0].CarID)
	assert.Equal(t, "1500", profile.Cars[0].HourlyRate.String())
	assert.Equal(t, before+1, h.node.queryCount(methodListOwnerCars))

	writes := h.node.writes()
	require.Len(t, writes, 1)
	assert.JSONEq(t, `{"car_id":"car-9","owner_id":"alice.testnet","hourly_rate":1500}`, string(writes[0].Args))
	assert.Equal(t, DefaultGas, writes[0].Gas)
}

func TestAddCarRejectedLeavesProfileUntouched(t *testing.T) {
	h := newHarness(t, signedIn("alice.testnet"))
	h.node.owners["alice.testnet"] = true
	h.node.cars = []domain.Car{
		{CarID: "car-1", OwnerID: "alice.testnet", HourlyRate: domain.MustAmount("10"), Available: true},
		{CarID: "car-2", OwnerID: "alice.testnet", HourlyRate: domain.MustAmount("250000000000000000000000")},
	}
	h.ready(t)
	held, ok := h.profiles.Current()
	require.True(t, ok)
	require.Len(t, held.Cars, 2)

	h.node.reject[methodAddCar] = "Car already exists"
	before := h.node.queryCount(methodListOwnerCars)

	_, err := h.profiles.AddCar(context.Background(), "", "car-1", "10")

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "Car already exists", writeErr.Reason)
	assert.Equal(t, before, h.node.queryCount(methodListOwnerCars))

	current, ok := h.profiles.Current()
	require.True(t, ok)
	assert.Equal(t, held, current)
}

func TestAddCarInvalidRateIssuesNoCall(t *testing.T) {
	h := readyAs(t, "alice.testnet", domain.RoleOwner)

	for _, rate := range []string{"", "abc", "-5", "1.5", "0"} {
		_, err := h.profiles.AddCar(context.Background(), "", "car-1", rate)
		require.ErrorIs(t, err, domain.ErrInvalidHourlyRate, rate)
	}
	assert.Empty(t, h.node.writes())
}

func TestAddCarRequiresOwner(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)

	_, err := h.profiles.AddCar(context.Background(), "", "car-1", "10")

	require.ErrorIs(t, err, domain.ErrRoleMismatch)
	assert.Empty(t, h.node.writes())
}

func TestWriteWithoutProfile(t *testing.T) {
	h := newHarness(t, signedIn("bob.testnet"))

	_, err := h.profiles.CancelBooking(context.Background(), "b-1")

	require.ErrorIs(t, err, ErrNoProfile)
}

func TestRemoveCar(t *testing.T) {
	h := newHarness(t, signedIn("alice.testnet"))
	h.node.owners["alice.testnet"] = true
	h.node.cars = []domain.Car{{CarID: "car-1", OwnerID: "alice.testnet", HourlyRate: domain.MustAmount("10")}}
	h.ready(t)

	profile, err := h.profiles.RemoveCar(context.Background(), "car-1")

	require.NoError(t, err)
	assert.Empty(t, profile.Cars)
	assert.JSONEq(t, `{"car_id":"car-1"}`, string(h.node.writes()[0].Args))
}

func TestBookCarSendsNanosecondWindowAndDeposit(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)
	window := domain.BookingWindow{
		Start: time.Date(2023, 10, 23, 0, 0, 0, 0, time.FixedZone("UTC+8", 8*60*60)),
		End:   time.Date(2023, 10, 24, 0, 0, 0, 0, time.FixedZone("UTC+8", 8*60*60)),
	}

	profile, err := h.profiles.BookCar(context.Background(), BookingRequest{CarID: "car-1", Window: window})

	require.NoError(t, err)
	require.Len(t, profile.Bookings, 1)
	assert.Equal(t, int64(1697990400000000000), profile.Bookings[0].StartTimeNanos)

	writes := h.node.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, methodBookCar, writes[0].Method)
	assert.Equal(t, domain.AccountID("bob.testnet"), writes[0].SignerID)
	assert.Equal(t, DefaultBookingDeposit, writes[0].Deposit)
	assert.JSONEq(t, `{
		"car_id": "car-1",
		"user_id": "bob.testnet",
		"start_time": 1697990400000000000,
		"end_time": 1698076800000000000,
		"deposit": "1000000000000000000000000"
	}`, string(writes[0].Args))
}

func TestBookCarInvertedWindowIssuesNoCall(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)
	window := domain.BookingWindow{
		Start: time.Date(2023, 10, 24, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 10, 23, 0, 0, 0, 0, time.UTC),
	}

	_, err := h.profiles.BookCar(context.Background(), BookingRequest{CarID: "car-1", Window: window})

	require.ErrorIs(t, err, domain.ErrInvalidBookingWindow)
	assert.Empty(t, h.node.writes())
}

func TestBookCarOutOfRangeWindowIssuesNoCall(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)
	window := domain.BookingWindow{
		Start: time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2300, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	_, err := h.profiles.BookCar(context.Background(), BookingRequest{CarID: "car-1", Window: window})

	require.ErrorIs(t, err, domain.ErrInvalidBookingWindow)
	assert.Empty(t, h.node.writes())
}

func TestBookCarOutcomeUnknownKeepsProfile(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)
	h.node.mutateErr[methodBookCar] = fmt.Errorf("%w: timeout", domain.ErrTransport)
	before := h.node.queryCount(methodListUserBookings)

	_, err := h.profiles.BookCar(context.Background(), BookingRequest{
		CarID:  "car-1",
		Window: domain.BookingWindow{Start: time.Unix(100, 0), End: time.Unix(200, 0)},
	})

	require.ErrorIs(t, err, domain.ErrTransport)
	assert.Len(t, h.node.writes(), 1)
	assert.Equal(t, before, h.node.queryCount(methodListUserBookings))
}

func TestCancelBooking(t *testing.T) {
	h := newHarness(t, signedIn("bob.testnet"))
	h.node.users["bob.testnet"] = true
	h.node.bookings = []domain.Booking{{BookingID: "b-1", CarID: "car-1", UserID: "bob.testnet"}}
	h.ready(t)

	profile, err := h.profiles.CancelBooking(context.Background(), " b-1 ")

	require.NoError(t, err)
	assert.Empty(t, profile.Bookings)
	assert.JSONEq(t, `{"booking_id":"b-1"}`, string(h.node.writes()[0].Args))
}

func TestRentCarAttachesRateTimesHours(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)
	h.node.cars = []domain.Car{{CarID: "car-1", OwnerID: "alice.testnet", HourlyRate: domain.MustAmount("250000000000000000000000"), Available: true}}

	profile, err := h.profiles.RentCar(context.Background(), RentRequest{CarID: "car-1", Hours: 4})

	require.NoError(t, err)
	require.Len(t, profile.Bookings, 1)

	writes := h.node.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "1000000000000000000000000", writes[0].Deposit.String())
	assert.JSONEq(t, `{"car_id":"car-1","user_id":"bob.testnet","duration":4}`, string(writes[0].Args))
}

func TestRentCarRequiresAvailableCar(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)
	h.node.cars = []domain.Car{{CarID: "car-1", OwnerID: "alice.testnet", HourlyRate: domain.MustAmount("10"), Available: false}}

	_, err := h.profiles.RentCar(context.Background(), RentRequest{CarID: "car-1", Hours: 1})
	require.ErrorIs(t, err, domain.ErrCarNotAvailable)

	_, err = h.profiles.RentCar(context.Background(), RentRequest{CarID: "car-1"})
	require.Error(t, err)

	assert.Empty(t, h.node.writes())
}

func TestReturnCarAllowedForBothRoles(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleOwner, domain.RoleUser} {
		t.Run(string(role), func(t *testing.T) {
			h := readyAs(t, "erin.testnet", role)

			_, err := h.profiles.ReturnCar(context.Background(), "car-1")

			require.NoError(t, err)
			require.Len(t, h.node.writes(), 1)
			assert.Equal(t, methodReturnCar, h.node.writes()[0].Method)
		})
	}
}

func TestAvailableCarsNeverNil(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)

	cars, err := h.profiles.AvailableCars(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, cars)
	assert.Empty(t, cars)
	assert.Equal(t, 1, h.node.queryCount(methodListAvailableCars))
}

func TestCarInfoReadsSingleCar(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)
	h.node.cars = []domain.Car{
		{CarID: "car-1", OwnerID: "alice.testnet", HourlyRate: domain.MustAmount("10"), Available: true},
		{CarID: "car-2", OwnerID: "alice.testnet", HourlyRate: domain.MustAmount("20")},
	}

	car, err := h.profiles.CarInfo(context.Background(), " car-2 ")
	require.NoError(t, err)
	assert.Equal(t, h.node.cars[1], car)

	available, err := h.profiles.CarAvailable(context.Background(), "car-2")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = h.profiles.CarAvailable(context.Background(), "car-1")
	require.NoError(t, err)
	assert.True(t, available)

	args := h.node.argsOf(methodGetCarInfo)
	require.Len(t, args, 1)
	assert.JSONEq(t, `{"car_id":"car-2"}`, args[0].Raw)
	assert.Empty(t, h.node.writes())
}

func TestCarInfoUnknownCar(t *testing.T) {
	h := readyAs(t, "bob.testnet", domain.RoleUser)

	_, err := h.profiles.CarInfo(context.Background(), "car-404")
	require.ErrorIs(t, err, domain.ErrCarNotFound)

	_, err = h.profiles.CarAvailable(context.Background(), "car-404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CarNotFound")

	_, err = h.profiles.CarInfo(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, 1, h.node.queryCount(methodCheckAvailability))
}

// blockingReader parks every list call until release is closed.
type blockingReader struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (r *blockingReader) ReadCall(_ context.Context, _, _ string, _ any, out any) error {
	r.mu.Lock()
	r.calls++
	first := r.calls == 1
	r.mu.Unlock()

	if first {
		close(r.started)
	}
	<-r.release

	if cars, ok := out.(*[]domain.Car); ok {
		*cars = []domain.Car{}
	}
	return nil
}

func TestRefetchCoalescesConcurrentCallers(t *testing.T) {
	reader := &blockingReader{started: make(chan struct{}), release: make(chan struct{})}
	profiles := NewProfileService(reader, nil, Contract{}, nil)

	close(reader.release)
	_, err := profiles.Fetch(context.Background(), domain.RoleOwner, "alice.testnet")
	require.NoError(t, err)

	reader.mu.Lock()
	reader.calls = 0
	reader.started = make(chan struct{})
	reader.release = make(chan struct{})
	reader.mu.Unlock()

	first := make(chan error, 1)
	go func() {
		_, err := profiles.Refetch(context.Background())
		first <- err
	}()
	<-reader.started

	const waiters = 5
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			_, err := profiles.Refetch(context.Background())
			assert.NoError(t, err)
		}()
	}

	// give the waiters a chance to join the in-flight load
	time.Sleep(20 * time.Millisecond)
	close(reader.release)

	wg.Wait()
	require.NoError(t, <-first)

	reader.mu.Lock()
	defer reader.mu.Unlock()
	assert.Equal(t, 1, reader.calls)
}

// gatedReader answers the first armed list call from state read on entry,
// then holds the answer until gate is closed.
type gatedReader struct {
	inner   ContractReader
	armed   atomic.Bool
	entered chan struct{}
	gate    chan struct{}
}

func (r *gatedReader) ReadCall(ctx context.Context, contractID, method string, args any, out any) error {
	err := r.inner.ReadCall(ctx, contractID, method, args, out)
	if method == methodListOwnerCars && r.armed.CompareAndSwap(true, false) {
		close(r.entered)
		<-r.gate
	}
	return err
}

func TestWriteDoesNotReuseLoadStartedBeforeIt(t *testing.T) {
	h := newHarness(t, signedIn("alice.testnet"))
	h.node.owners["alice.testnet"] = true
	h.ready(t)

	reader := &gatedReader{inner: h.session, entered: make(chan struct{}), gate: make(chan struct{})}
	profiles := NewProfileService(reader, h.session, Contract{ID: "partage.testnet"}, nil)
	_, err := profiles.Fetch(context.Background(), domain.RoleOwner, "alice.testnet")
	require.NoError(t, err)

	reader.armed.Store(true)
	stale := make(chan domain.Profile, 1)
	go func() {
		profile, err := profiles.Refetch(context.Background())
		assert.NoError(t, err)
		stale <- profile
	}()
	<-reader.entered

	added := make(chan domain.Profile, 1)
	go func() {
		profile, err := profiles.AddCar(context.Background(), "", "car-new", "5")
		assert.NoError(t, err)
		added <- profile
	}()

	require.Eventually(t, func() bool { return len(h.node.writes()) == 1 }, time.Second, time.Millisecond)
	close(reader.gate)

	assert.Empty(t, (<-stale).Cars)

	profile := <-added
	require.Len(t, profile.Cars, 1)
	assert.Equal(t, "car-new", profile.Cars[0].CarID)

	current, ok := profiles.Current()
	require.True(t, ok)
	require.Len(t, current.Cars, 1)
	assert.Equal(t, "car-new", current.Cars[0].CarID)
}

func TestRefetchWithoutFetch(t *testing.T) {
	h := newHarness(t, signedIn("alice.testnet"))

	_, err := h.profiles.Refetch(context.Background())

	require.ErrorIs(t, err, ErrNoProfile)
}

func TestCurrentReturnsCopy(t *testing.T) {
	h := newHarness(t, signedIn("alice.testnet"))
	h.node.owners["alice.testnet"] = true
	h.node.cars = []domain.Car{{CarID: "car-1", OwnerID: "alice.testnet", HourlyRate: domain.MustAmount("10")}}
	h.ready(t)

	current, ok := h.profiles.Current()
	require.True(t, ok)
	current.Cars[0].CarID = "mutated"

	again, _ := h.profiles.Current()
	assert.Equal(t, "car-1", again.Cars[0].CarID)
}

func TestWriteErrorMessage(t *testing.T) {
	err := &WriteError{Method: methodCancelBooking, Reason: "Booking not found"}

	assert.Equal(t, "cancel_booking rejected: Booking not found", err.Error())
}
