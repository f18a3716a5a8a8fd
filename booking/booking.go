// Package booking holds the rules shared by the passenger, payment and
// confirmation steps: passenger validation, meal add-ons, fare breakdown
// and booking ids.
package booking

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"bus-booking-cli/model"
	"bus-booking-cli/seatmap"
)

const (
	DefaultGSTPercent = 5
	CancellationFee   = 15
	MaxPassengerAge   = 120
	idPrefix          = "BUS"
	idLength          = 9
)

var (
	ErrNoSeats             = errors.New("booking has no seats")
	ErrPassengerMismatch   = errors.New("passenger count does not match seat count")
	ErrInvalidContact      = errors.New("contact details are incomplete")
	ErrAlreadyCancelled    = errors.New("booking already cancelled")
	errEmptyName           = errors.New("name is required")
	errInvalidAge          = errors.New("age must be between 1 and 120")
	errInvalidGender       = errors.New("gender must be male, female or other")
	errInvalidEmailAddress = errors.New("email address is invalid")
	errInvalidPhone        = errors.New("phone number must have 10 digits")
)

var mealPrices = map[model.Meal]int{
	model.MealNone:   0,
	model.MealVeg:    150,
	model.MealNonVeg: 200,
}

// Meals lists the meal options in display order.
func Meals() []model.Meal {
	return []model.Meal{model.MealNone, model.MealVeg, model.MealNonVeg}
}

// Genders lists the accepted genders in display order.
func Genders() []model.Gender {
	return []model.Gender{model.GenderMale, model.GenderFemale, model.GenderOther}
}

// MealPrice returns the add-on price of a meal. Unknown meals cost nothing.
func MealPrice(meal model.Meal) int {
	return mealPrices[meal]
}

// ValidationError reports a problem with a single passenger or with the
// contact block (Index is -1 for contact errors).
type ValidationError struct {
	Index int
	Seat  string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("contact: %s", e.Err)
	}
	return fmt.Sprintf("passenger %d (seat %s): %s", e.Index+1, e.Seat, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewPassengers returns one blank passenger per seat, in seat order.
func NewPassengers(seats []model.Seat) []model.Passenger {
	passengers := make([]model.Passenger, len(seats))
	for i, seat := range seats {
		passengers[i] = model.Passenger{SeatNumber: seat.Number, Meal: model.MealNone}
	}
	return passengers
}

// ValidatePassenger checks a single passenger record.
func ValidatePassenger(p model.Passenger) error {
	if strings.TrimSpace(p.Name) == "" {
		return errEmptyName
	}
	if p.Age < 1 || p.Age > MaxPassengerAge {
		return errInvalidAge
	}
	switch p.Gender {
	case model.GenderMale, model.GenderFemale, model.GenderOther:
	default:
		return errInvalidGender
	}
	return nil
}

// ValidateContact checks the email and phone used for the ticket.
func ValidateContact(c model.Contact) error {
	email := strings.TrimSpace(c.Email)
	phone := strings.TrimSpace(c.Phone)
	if email == "" || phone == "" {
		return ErrInvalidContact
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at+1:], ".") || strings.HasSuffix(email, ".") {
		return errInvalidEmailAddress
	}
	digits := 0
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			return errInvalidPhone
		}
		digits++
	}
	if digits != 10 {
		return errInvalidPhone
	}
	return nil
}

// ValidateDetails checks every passenger against the confirmed seats and the
// contact block, returning the first problem found.
func ValidateDetails(seats []model.Seat, passengers []model.Passenger, contact model.Contact) error {
	if len(seats) == 0 {
		return ErrNoSeats
	}
	if len(passengers) != len(seats) {
		return ErrPassengerMismatch
	}
	for i, p := range passengers {
		if err := ValidatePassenger(p); err != nil {
			return &ValidationError{Index: i, Seat: seats[i].Number, Err: err}
		}
	}
	if err := ValidateContact(contact); err != nil {
		return &ValidationError{Index: -1, Err: err}
	}
	return nil
}

// ComputeFare prices a booking. GST is applied to seats and meals and
// rounded to the nearest unit.
func ComputeFare(seats []model.Seat, passengers []model.Passenger, gstPercent int) model.Fare {
	subtotal := seatmap.Total(seats)
	meals := 0
	for _, p := range passengers {
		meals += MealPrice(p.Meal)
	}
	gst := int(math.Round(float64(subtotal+meals) * float64(gstPercent) / 100))
	return model.Fare{
		Subtotal: subtotal,
		Meals:    meals,
		GST:      gst,
		Total:    subtotal + meals + gst,
	}
}

// NewID returns a booking reference such as BUS3F9A0C21E.
func NewID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return idPrefix + strings.ToUpper(raw[:idLength])
}

// Draft is everything collected before payment.
type Draft struct {
	Bus        model.Bus
	Route      model.Route
	TravelDate time.Time
	Seats      []model.Seat
	Passengers []model.Passenger
	Contact    model.Contact
	GSTPercent int
}

// Fare prices the draft.
func (d Draft) Fare() model.Fare {
	return ComputeFare(d.Seats, d.Passengers, d.GSTPercent)
}

// Confirm turns a paid draft into a confirmed booking.
func (d Draft) Confirm(method model.PaymentMethod, now time.Time) model.Booking {
	seats := make([]model.Seat, len(d.Seats))
	copy(seats, d.Seats)
	passengers := make([]model.Passenger, len(d.Passengers))
	copy(passengers, d.Passengers)
	return model.Booking{
		Id:            NewID(),
		Bus:           d.Bus,
		Route:         d.Route,
		TravelDate:    d.TravelDate,
		Seats:         seats,
		Passengers:    passengers,
		Contact:       d.Contact,
		PaymentMethod: method,
		Fare:          d.Fare(),
		Status:        model.BookingConfirmed,
		BookedAt:      now,
	}
}

// ConfirmationProbability estimates, in percent, how likely a waitlisted
// request is to confirm given how full the bus already is.
func ConfirmationProbability(fillRatio float64) int {
	switch {
	case fillRatio > 0.8:
		return 90
	case fillRatio > 0.5:
		return 70
	default:
		return 40
	}
}

// Refund is what the traveller gets back after the cancellation fee.
func Refund(fare model.Fare) int {
	return int(math.Round(float64(fare.Total) * float64(100-CancellationFee) / 100))
}

// Cancel marks b cancelled at now and records the refund.
func Cancel(b model.Booking, now time.Time) (model.Booking, error) {
	if b.Status == model.BookingCancelled {
		return b, fmt.Errorf("%w: %s", ErrAlreadyCancelled, b.Id)
	}
	cancelledAt := now
	b.Status = model.BookingCancelled
	b.CancelledAt = &cancelledAt
	b.Refund = Refund(b.Fare)
	return b, nil
}
