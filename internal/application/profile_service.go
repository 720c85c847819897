package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/sirupsen/logrus"
)

var ErrNoProfile = errors.New("no profile loaded")

// WriteError is a write the contract rejected. Reason is the contract's
// message verbatim.
type WriteError struct {
	Method string
	Reason string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Method, e.Reason)
}

type BookingRequest struct {
	CarID  string
	UserID domain.AccountID
	Window domain.BookingWindow
}

type RentRequest struct {
	CarID  string
	UserID domain.AccountID
	Hours  uint32
}

type profileTarget struct {
	role      domain.Role
	accountID domain.AccountID
}

type refetchCall struct {
	seq     uint64
	done    chan struct{}
	profile domain.Profile
	err     error
}

// ProfileService materializes the signed-in account's role-specific data
// and keeps it current after every successful write.
type ProfileService struct {
	reader   ContractReader
	writer   ContractWriter
	contract Contract
	log      *logrus.Entry

	mu       sync.Mutex
	target   profileTarget
	current  domain.Profile
	loaded   bool
	inflight *refetchCall
	loads    uint64
}

func NewProfileService(reader ContractReader, writer ContractWriter, contract Contract, log *logrus.Entry) *ProfileService {
	return &ProfileService{
		reader:   reader,
		writer:   writer,
		contract: contract.withDefaults(),
		log:      logging.OrDiscard(log).WithField("component", "profile"),
	}
}

// Fetch loads the profile for role. Read failures yield an empty list with
// a Diagnostic; only an unregistered or unknown role is an error.
func (s *ProfileService) Fetch(ctx context.Context, role domain.Role, accountID domain.AccountID) (domain.Profile, error) {
	if !role.Registered() {
		return domain.Profile{}, fmt.Errorf("%w: %q has no profile", domain.ErrInvalidRole, role)
	}
	if accountID == "" {
		return domain.Profile{}, fmt.Errorf("fetch profile: %w", domain.ErrNoSigner)
	}

	target := profileTarget{role: role, accountID: accountID}
	profile := s.load(ctx, target)

	s.mu.Lock()
	s.target = target
	s.current = profile
	s.loaded = true
	s.mu.Unlock()

	return profile.Clone(), nil
}

// Current returns the last materialized profile.
func (s *ProfileService) Current() (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return domain.Profile{}, false
	}
	return s.current.Clone(), true
}

// Refetch reloads the held profile. Concurrent callers share a single
// in-flight load and all receive its result.
func (s *ProfileService) Refetch(ctx context.Context) (domain.Profile, error) {
	return s.refetch(ctx, 0)
}

// refetch only joins an in-flight load numbered above after. Older loads
// are waited out and followed by a fresh one.
func (s *ProfileService) refetch(ctx context.Context, after uint64) (domain.Profile, error) {
	s.mu.Lock()
	for {
		if !s.loaded {
			s.mu.Unlock()
			return domain.Profile{}, ErrNoProfile
		}

		call := s.inflight
		if call == nil {
			break
		}
		s.mu.Unlock()

		select {
		case <-call.done:
		case <-ctx.Done():
			return domain.Profile{}, ctx.Err()
		}
		if call.seq > after {
			return call.profile.Clone(), call.err
		}

		s.mu.Lock()
	}

	s.loads++
	call := &refetchCall{seq: s.loads, done: make(chan struct{})}
	s.inflight = call
	target := s.target
	s.mu.Unlock()

	// the load outlives a cancelled first caller; others may be waiting on it
	profile := s.load(context.WithoutCancel(ctx), target)

	s.mu.Lock()
	if s.target == target {
		s.current = profile
	}
	s.inflight = nil
	call.profile = profile
	s.mu.Unlock()
	close(call.done)

	return profile.Clone(), nil
}

func (s *ProfileService) load(ctx context.Context, target profileTarget) domain.Profile {
	log := s.log.WithFields(logrus.Fields{"account_id": target.accountID, "role": target.role})

	switch target.role {
	case domain.RoleOwner:
		var cars []domain.Car
		err := s.reader.ReadCall(ctx, s.contract.ID, methodListOwnerCars, ownerArgs{OwnerID: target.accountID}, &cars)
		if err != nil {
			log.WithError(err).Warn("could not load cars, showing an empty list")
			profile := domain.NewOwnerProfile(nil)
			profile.Diagnostic = fmt.Sprintf("could not load cars: %v", err)
			return profile
		}
		return domain.NewOwnerProfile(cars)
	default:
		var bookings []domain.Booking
		err := s.reader.ReadCall(ctx, s.contract.ID, methodListUserBookings, userArgs{UserID: target.accountID}, &bookings)
		if err != nil {
			log.WithError(err).Warn("could not load bookings, showing an empty list")
			profile := domain.NewUserProfile(nil)
			profile.Diagnostic = fmt.Sprintf("could not load bookings: %v", err)
			return profile
		}
		return domain.NewUserProfile(bookings)
	}
}

func (s *ProfileService) requireRole(allowed ...domain.Role) (profileTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return profileTarget{}, ErrNoProfile
	}
	for _, role := range allowed {
		if s.target.role == role {
			return s.target, nil
		}
	}
	return profileTarget{}, fmt.Errorf("%w: %s", domain.ErrRoleMismatch, s.target.role.Label())
}

// AddCar registers a car for ownerID (the signed-in owner when empty).
func (s *ProfileService) AddCar(ctx context.Context, ownerID domain.AccountID, carID, hourlyRate string) (domain.Profile, error) {
	target, err := s.requireRole(domain.RoleOwner)
	if err != nil {
		return domain.Profile{}, err
	}

	carID = strings.TrimSpace(carID)
	if carID == "" {
		return domain.Profile{}, errors.New("car id is required")
	}
	rate, err := domain.ParseHourlyRate(hourlyRate)
	if err != nil {
		return domain.Profile{}, err
	}
	if ownerID == "" {
		ownerID = target.accountID
	}

	return s.write(ctx, methodAddCar, addCarArgs{CarID: carID, OwnerID: ownerID, HourlyRate: rawInteger(rate)}, WriteOptions{})
}

func (s *ProfileService) RemoveCar(ctx context.Context, carID string) (domain.Profile, error) {
	if _, err := s.requireRole(domain.RoleOwner); err != nil {
		return domain.Profile{}, err
	}

	carID = strings.TrimSpace(carID)
	if carID == "" {
		return domain.Profile{}, errors.New("car id is required")
	}

	return s.write(ctx, methodDeleteCar, carArgs{CarID: carID}, WriteOptions{})
}

// BookCar books a car in advance, attaching the configured deposit.
func (s *ProfileService) BookCar(ctx context.Context, req BookingRequest) (domain.Profile, error) {
	target, err := s.requireRole(domain.RoleUser)
	if err != nil {
		return domain.Profile{}, err
	}

	carID := strings.TrimSpace(req.CarID)
	if carID == "" {
		return domain.Profile{}, errors.New("car id is required")
	}
	if err := req.Window.Validate(); err != nil {
		return domain.Profile{}, err
	}

	userID := req.UserID
	if userID == "" {
		userID = target.accountID
	}
	start, end := req.Window.Nanos()

	args := bookCarArgs{
		CarID:     carID,
		UserID:    userID,
		StartTime: start,
		EndTime:   end,
		Deposit:   s.contract.BookingDeposit,
	}
	return s.write(ctx, methodBookCar, args, WriteOptions{Deposit: s.contract.BookingDeposit})
}

func (s *ProfileService) CancelBooking(ctx context.Context, bookingID string) (domain.Profile, error) {
	if _, err := s.requireRole(domain.RoleUser); err != nil {
		return domain.Profile{}, err
	}

	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return domain.Profile{}, errors.New("booking id is required")
	}

	return s.write(ctx, methodCancelBooking, bookingArgs{BookingID: bookingID}, WriteOptions{})
}

// RentCar rents an available car now, attaching hourly rate * hours.
func (s *ProfileService) RentCar(ctx context.Context, req RentRequest) (domain.Profile, error) {
	target, err := s.requireRole(domain.RoleUser)
	if err != nil {
		return domain.Profile{}, err
	}

	carID := strings.TrimSpace(req.CarID)
	if carID == "" {
		return domain.Profile{}, errors.New("car id is required")
	}
	if req.Hours == 0 {
		return domain.Profile{}, errors.New("rental duration must be at least one hour")
	}

	cars, err := s.AvailableCars(ctx)
	if err != nil {
		return domain.Profile{}, err
	}

	var car *domain.Car
	for i := range cars {
		if cars[i].CarID == carID {
			car = &cars[i]
			break
		}
	}
	if car == nil {
		return domain.Profile{}, fmt.Errorf("%w: %s", domain.ErrCarNotAvailable, carID)
	}

	userID := req.UserID
	if userID == "" {
		userID = target.accountID
	}

	payment := car.HourlyRate.Mul(uint64(req.Hours))
	args := rentCarArgs{CarID: carID, UserID: userID, Duration: req.Hours}
	return s.write(ctx, methodRentCar, args, WriteOptions{Deposit: payment})
}

func (s *ProfileService) ReturnCar(ctx context.Context, carID string) (domain.Profile, error) {
	if _, err := s.requireRole(domain.RoleUser, domain.RoleOwner); err != nil {
		return domain.Profile{}, err
	}

	carID = strings.TrimSpace(carID)
	if carID == "" {
		return domain.Profile{}, errors.New("car id is required")
	}

	return s.write(ctx, methodReturnCar, carArgs{CarID: carID}, WriteOptions{})
}

// AvailableCars lists every car currently open for booking.
func (s *ProfileService) AvailableCars(ctx context.Context) ([]domain.Car, error) {
	var cars []domain.Car
	if err := s.reader.ReadCall(ctx, s.contract.ID, methodListAvailableCars, nil, &cars); err != nil {
		return nil, fmt.Errorf("list available cars: %w", err)
	}
	if cars == nil {
		cars = []domain.Car{}
	}
	return cars, nil
}

// CarInfo reads a single car. The contract answers null for an unknown id.
func (s *ProfileService) CarInfo(ctx context.Context, carID string) (domain.Car, error) {
	carID = strings.TrimSpace(carID)
	if carID == "" {
		return domain.Car{}, errors.New("car id is required")
	}

	var car *domain.Car
	if err := s.reader.ReadCall(ctx, s.contract.ID, methodGetCarInfo, carArgs{CarID: carID}, &car); err != nil {
		return domain.Car{}, fmt.Errorf("get car %s: %w", carID, err)
	}
	if car == nil {
		return domain.Car{}, fmt.Errorf("%w: %s", domain.ErrCarNotFound, carID)
	}
	return *car, nil
}

// CarAvailable asks the contract whether a car is open for booking right now.
func (s *ProfileService) CarAvailable(ctx context.Context, carID string) (bool, error) {
	carID = strings.TrimSpace(carID)
	if carID == "" {
		return false, errors.New("car id is required")
	}

	var available bool
	if err := s.reader.ReadCall(ctx, s.contract.ID, methodCheckAvailability, carArgs{CarID: carID}, &available); err != nil {
		return false, fmt.Errorf("check car %s: %w", carID, err)
	}
	return available, nil
}

// write submits one call and, on success only, refetches once with a load
// that starts after the write. On any failure the held profile is left as
// it was.
func (s *ProfileService) write(ctx context.Context, method string, args any, opts WriteOptions) (domain.Profile, error) {
	if opts.Gas == 0 {
		opts.Gas = s.contract.Gas
	}

	outcome, err := s.writer.WriteCall(ctx, s.contract.ID, method, args, opts)
	if err != nil {
		return domain.Profile{}, err
	}
	if !outcome.Success {
		return domain.Profile{}, &WriteError{Method: method, Reason: outcome.Error}
	}

	// a load already running may have read state from before the write
	s.mu.Lock()
	confirmed := s.loads
	s.mu.Unlock()

	return s.refetch(ctx, confirmed)
}
