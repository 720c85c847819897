package application

import (
	"github.com/bnema/partage-cli/internal/domain"
)

const (
	methodIsOwner            = "is_owner"
	methodIsUser             = "is_user"
	methodListOwnerCars      = "list_owner_cars"
	methodListUserBookings   = "list_user_bookings"
	methodListAvailableCars  = "list_avalaible_cars"
	methodGetCarInfo         = "get_car_info"
	methodCheckAvailability  = "check_car_availability"
	methodCreateOwnerAccount = "create_owner_account"
	methodCreateUserAccount  = "create_user_account"
	methodAddCar             = "add_car"
	methodDeleteCar          = "delete_car"
	methodBookCar            = "book_car"
	methodCancelBooking      = "cancel_booking"
	methodRentCar            = "rent_car"
	methodReturnCar          = "return_car"
)

const (
	DefaultContractID = "partage.testnet"
	DefaultGas        = uint64(300_000_000_000_000)
)

// DefaultBookingDeposit is one NEAR in yoctoNEAR.
var DefaultBookingDeposit = domain.MustAmount("1000000000000000000000000")

// Contract is the deployed car-sharing contract and the call budget used
// for every write.
type Contract struct {
	ID             string
	Gas            uint64
	BookingDeposit domain.Amount
}

func (c Contract) withDefaults() Contract {
	if c.ID == "" {
		c.ID = DefaultContractID
	}
	if c.Gas == 0 {
		c.Gas = DefaultGas
	}
	if c.BookingDeposit.IsZero() {
		c.BookingDeposit = DefaultBookingDeposit
	}
	return c
}

type accountArgs struct {
	AccountID domain.AccountID `json:"account_id"`
}

type ownerArgs struct {
	OwnerID domain.AccountID `json:"owner_id"`
}

type userArgs struct {
	UserID domain.AccountID `json:"user_id"`
}

type createOwnerArgs struct {
	OwnerID domain.AccountID `json:"owner_id"`
	Name    string           `json:"name"`
}

type createUserArgs struct {
	UserID         domain.AccountID `json:"user_id"`
	Name           string           `json:"name"`
	DrivingLicense string           `json:"driving_license"`
}

type addCarArgs struct {
	CarID      string           `json:"car_id"`
	OwnerID    domain.AccountID `json:"owner_id"`
	HourlyRate rawInteger       `json:"hourly_rate"`
}

type carArgs struct {
	CarID string `json:"car_id"`
}

type bookCarArgs struct {
	CarID     string           `json:"car_id"`
	UserID    domain.AccountID `json:"user_id"`
	StartTime int64            `json:"start_time"`
	EndTime   int64            `json:"end_time"`
	Deposit   domain.Amount    `json:"deposit"`
}

type bookingArgs struct {
	BookingID string `json:"booking_id"`
}

type rentCarArgs struct {
	CarID    string           `json:"car_id"`
	UserID   domain.AccountID `json:"user_id"`
	Duration uint32           `json:"duration"`
}

// rawInteger emits an Amount as a bare JSON integer; the contract takes
// hourly_rate as a u128 number, not a string.
type rawInteger domain.Amount

func (r rawInteger) MarshalJSON() ([]byte, error) {
	return []byte(domain.Amount(r).String()), nil
}
