// Package report renders buses, seat layouts and bookings as text tables.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"bus-booking-cli/booking"
	"bus-booking-cli/model"
	"bus-booking-cli/seatmap"
)

const dateLayout = "Mon, 02 Jan 2006"

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func rupees(amount int) string {
	return fmt.Sprintf("₹%d", amount)
}

// Buses lists search results.
func Buses(buses []model.Bus) string {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Bus", "Operator", "Departs", "Arrives", "Duration", "Fare", "Rating", "Seats", "Amenities"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, Align: text.AlignRight},
		{Number: 10, WidthMax: 28},
	})
	for _, b := range buses {
		t.AppendRow(table.Row{
			b.Id,
			b.Name,
			b.Operator,
			b.DepartureTime,
			b.ArrivalTime,
			b.Duration,
			rupees(b.Price),
			fmt.Sprintf("%.1f", b.Rating),
			fmt.Sprintf("%d/%d", b.AvailableSeats, b.TotalSeats),
			strings.Join(b.Amenities, ", "),
		})
	}
	return t.Render()
}

// SeatLayout draws both decks row by row. Booked berths show as "--".
func SeatLayout(m *seatmap.SeatMap) string {
	spec := m.Spec()
	lower := m.Deck(model.SeatLower)
	upper := m.Deck(model.SeatUpper)

	header := table.Row{"Row"}
	for i := 0; i < spec.LowerPerRow; i++ {
		header = append(header, "Lower")
	}
	for i := 0; i < spec.UpperPerRow; i++ {
		header = append(header, "Upper")
	}

	t := newTable()
	t.AppendHeader(header, table.RowConfig{AutoMerge: true})
	for row := 0; row < spec.Rows; row++ {
		r := table.Row{row + 1}
		r = appendDeckRow(r, lower, row, spec.LowerPerRow)
		r = appendDeckRow(r, upper, row, spec.UpperPerRow)
		t.AppendRow(r)
	}

	c := m.Counts()
	return t.Render() +
		fmt.Sprintf("\n%d available • %d booked • %d total", c.Available, c.Booked, c.Total) +
		fmt.Sprintf("\nLower berth %s • Upper berth %s • Confirmation chance %d%%",
			rupees(spec.LowerPrice), rupees(spec.UpperPrice), booking.ConfirmationProbability(m.FillRatio()))
}

func appendDeckRow(r table.Row, deck []model.Seat, row int, perRow int) table.Row {
	for col := 0; col < perRow; col++ {
		i := row*perRow + col
		if i >= len(deck) {
			r = append(r, "")
			continue
		}
		seat := deck[i]
		switch seat.Status {
		case model.SeatBooked:
			r = append(r, "--")
		case model.SeatSelected:
			r = append(r, "["+seat.Number+"]")
		default:
			r = append(r, seat.Number)
		}
	}
	return r
}

// Receipt itemises a booking: one line per passenger plus the fare
// breakdown in the footer.
func Receipt(b model.Booking) string {
	t := newTable()
	t.AppendHeader(table.Row{"Seat", "Passenger", "Age", "Gender", "Meal", "Fare"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	prices := make(map[string]int, len(b.Seats))
	for _, seat := range b.Seats {
		prices[seat.Number] = seat.Price
	}
	for _, p := range b.Passengers {
		meal := string(p.Meal)
		if price := booking.MealPrice(p.Meal); price > 0 {
			meal = fmt.Sprintf("%s (+%s)", p.Meal, rupees(price))
		}
		t.AppendRow(table.Row{p.SeatNumber, p.Name, p.Age, p.Gender, meal, rupees(prices[p.SeatNumber])})
	}

	t.AppendFooter(table.Row{"", "", "", "", "Seats", rupees(b.Fare.Subtotal)})
	if b.Fare.Meals > 0 {
		t.AppendFooter(table.Row{"", "", "", "", "Meals", rupees(b.Fare.Meals)})
	}
	t.AppendFooter(table.Row{"", "", "", "", "GST", rupees(b.Fare.GST)})
	t.AppendFooter(table.Row{"", "", "", "", "Total", rupees(b.Fare.Total)})
	if b.Status == model.BookingCancelled {
		t.AppendFooter(table.Row{"", "", "", "", "Refund", rupees(b.Refund)})
	}
	return t.Render()
}

// History lists stored bookings.
func History(bookings []model.Booking) string {
	t := newTable()
	t.AppendHeader(table.Row{"Booking", "Route", "Travel date", "Bus", "Seats", "Total", "Status", "Booked at"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
	})
	for _, b := range bookings {
		seats := make([]string, 0, len(b.Seats))
		for _, seat := range b.Seats {
			seats = append(seats, seat.Number)
		}
		status := string(b.Status)
		if b.Status == model.BookingCancelled && b.Refund > 0 {
			status += " (refund " + rupees(b.Refund) + ")"
		}
		t.AppendRow(table.Row{
			b.Id,
			b.Route.From + " → " + b.Route.To,
			formatDate(b.TravelDate),
			b.Bus.Name,
			strings.Join(seats, ", "),
			rupees(b.Fare.Total),
			status,
			b.BookedAt.Format("2006-01-02 15:04"),
		})
	}
	return t.Render()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}
