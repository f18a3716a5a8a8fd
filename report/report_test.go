package report

import (
	"strings"
	"testing"
	"time"

	"bus-booking-cli/model"
	"bus-booking-cli/seatmap"
)

func TestSeatLayout(t *testing.T) {
	m := seatmap.New(seatmap.LayoutSpec{
		Rows:        2,
		LowerPerRow: 2,
		UpperPerRow: 1,
		LowerPrice:  1200,
		UpperPrice:  1000,
		Booked:      []string{"L1"},
	})
	if _, err := m.Toggle("U2"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	out := SeatLayout(m)
	for _, want := range []string{"--", "L2", "[U2]", "4 available • 1 booked • 6 total", "₹1200", "Confirmation chance 40%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected layout to contain %q:\n%s", want, out)
		}
	}
}

func TestReceipt(t *testing.T) {
	b := model.Booking{
		Id: "BUS123456789",
		Seats: []model.Seat{
			{Number: "L2", Price: 1200},
			{Number: "U4", Price: 1000},
		},
		Passengers: []model.Passenger{
			{Name: "Asha Patel", Age: 29, Gender: model.GenderFemale, SeatNumber: "L2", Meal: model.MealVeg},
			{Name: "Ravi Patel", Age: 31, Gender: model.GenderMale, SeatNumber: "U4", Meal: model.MealNone},
		},
		Fare:   model.Fare{Subtotal: 2200, Meals: 150, GST: 118, Total: 2468},
		Status: model.BookingConfirmed,
	}

	out := Receipt(b)
	for _, want := range []string{"Asha Patel", "veg (+₹150)", "₹1000", "₹2200", "₹118", "₹2468"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected receipt to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(strings.ToLower(out), "refund") {
		t.Fatal("expected no refund line for a confirmed booking")
	}

	b.Status = model.BookingCancelled
	b.Refund = 2098
	if out := Receipt(b); !strings.Contains(out, "₹2098") {
		t.Fatalf("expected the refund in the receipt:\n%s", out)
	}
}

func TestHistory(t *testing.T) {
	bookings := []model.Booking{
		{
			Id:         "BUSAAA",
			Route:      model.Route{From: "Surat", To: "Mumbai"},
			TravelDate: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
			Bus:        model.Bus{Name: "AC Seater"},
			Seats:      []model.Seat{{Number: "L2"}, {Number: "L4"}},
			Fare:       model.Fare{Total: 2520},
			Status:     model.BookingCancelled,
			Refund:     2142,
		},
	}
	out := History(bookings)
	for _, want := range []string{"BUSAAA", "Surat → Mumbai", "Thu, 12 Mar 2026", "L2, L4", "cancelled (refund ₹2142)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected history to contain %q:\n%s", want, out)
		}
	}
}

func TestBuses(t *testing.T) {
	out := Buses([]model.Bus{{Id: "1", Name: "Volvo AC Sleeper", Price: 899, Rating: 4.5, AvailableSeats: 12, TotalSeats: 40}})
	for _, want := range []string{"Volvo AC Sleeper", "₹899", "4.5", "12/40"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table to contain %q:\n%s", want, out)
		}
	}
}
