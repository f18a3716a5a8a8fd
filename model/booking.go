package model

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Meal string

const (
	MealNone   Meal = "none"
	MealVeg    Meal = "veg"
	MealNonVeg Meal = "non-veg"
)

type PaymentMethod string

const (
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetBanking PaymentMethod = "netbanking"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type Passenger struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     Gender `json:"gender"`
	SeatNumber string `json:"seatNumber"`
	Meal       Meal   `json:"meal"`
}

type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Fare struct {
	Subtotal int `json:"subtotal"`
	Meals    int `json:"meals"`
	GST      int `json:"gst"`
	Total    int `json:"total"`
}

type Booking struct {
	Id            string        `json:"id"`
	Bus           Bus           `json:"bus"`
	Route         Route         `json:"route"`
	TravelDate    time.Time     `json:"travelDate"`
	Seats         []Seat        `json:"seats"`
	Passengers    []Passenger   `json:"passengers"`
	Contact       Contact       `json:"contact"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Fare          Fare          `json:"fare"`
	Status        BookingStatus `json:"status"`
	BookedAt      time.Time     `json:"bookedAt"`
	CancelledAt   *time.Time    `json:"cancelledAt,omitempty"`
	Refund        int           `json:"refund,omitempty"`
}
