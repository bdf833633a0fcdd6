package parkhub

import (
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/parkhub/parkhub-tui/internal/brtime"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	UserType string `json:"user_type" validate:"required,oneof=driver company"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserType    string `json:"user_type"`
}

// Profile mirrors /users/me.
type Profile struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

// ParkingLot is a lot registered by a company.
type ParkingLot struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	TotalSpots int    `json:"total_spots"`
	CompanyID  int64  `json:"company_id"`
}

// Company identifies the organization operating a lot.
type Company struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Vehicle is a vehicle registered by a driver.
type Vehicle struct {
	ID      int64  `json:"id"`
	Plate   string `json:"plate"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// VehicleInput is the body of POST /vehicles/.
type VehicleInput struct {
	Plate   string `json:"plate" validate:"required,plate"`
	Name    string `json:"name" validate:"omitempty,max=60"`
	Country string `json:"country" validate:"required,iso3166_1_alpha2"`
}

// ActiveSession is a vehicle currently parked, with the lot operator and the
// price accrued so far.
type ActiveSession struct {
	Vehicle           Vehicle     `json:"vehicle"`
	Company           Company     `json:"company"`
	CurrentPriceCents null.Int    `json:"current_price_cents"`
	EntranceDate      null.String `json:"entrance_date"`
}

// EnteredAt parses EntranceDate. The zero time is returned when it is missing
// or malformed.
func (s ActiveSession) EnteredAt() time.Time {
	if !s.EntranceDate.Valid {
		return time.Time{}
	}
	t, err := brtime.ParseInstant(s.EntranceDate.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Entry is a recorded entry, closed once the vehicle exits.
type Entry struct {
	ID           int64       `json:"id"`
	Plate        string      `json:"plate"`
	ParkingLotID int64       `json:"parking_lot_id"`
	EntranceDate string      `json:"entrance_date"`
	ExitDate     null.String `json:"exit_date"`
	PriceCents   null.Int    `json:"price_cents"`
}

// Open reports whether the vehicle is still inside.
func (e Entry) Open() bool {
	return !e.ExitDate.Valid || e.ExitDate.String == ""
}

// EntryInput is the body of POST /entries/ and POST /exits/.
type EntryInput struct {
	Plate        string `json:"plate" validate:"required,plate"`
	ParkingLotID int64  `json:"parking_lot_id" validate:"required,gt=0"`
}

// EntryFilter restricts ListEntries to a UTC range. Zero bounds are omitted.
type EntryFilter struct {
	Start time.Time
	End   time.Time
}

// Price is one pricing rule: a weekday (0 = Monday, 6 = Sunday) and an hour
// range [StartHour, EndHour).
type Price struct {
	ID           int64 `json:"id"`
	ParkingLotID int64 `json:"parking_lot_id"`
	Weekday      int   `json:"weekday"`
	StartHour    int   `json:"start_hour"`
	EndHour      int   `json:"end_hour"`
	PriceCents   int64 `json:"price_cents"`
}

// PriceInput is the body of POST /prices/.
type PriceInput struct {
	ParkingLotID int64 `json:"parking_lot_id" validate:"required,gt=0"`
	Weekday      int   `json:"weekday" validate:"min=0,max=6"`
	StartHour    int   `json:"start_hour" validate:"min=0,max=23"`
	EndHour      int   `json:"end_hour" validate:"min=1,max=24,gtfield=StartHour"`
	PriceCents   int64 `json:"price_cents" validate:"min=0"`
}

// PriceQuote is the price in effect for a lot at a given weekday and hour.
type PriceQuote struct {
	PriceCents null.Int `json:"price_cents"`
}
