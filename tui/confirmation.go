package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bus-booking-cli/booking"
	"bus-booking-cli/model"
	"bus-booking-cli/payment"
	"bus-booking-cli/report"
	"bus-booking-cli/store"
)

func (m appModel) handleConfirmationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "x":
		if m.state == stateConfirmation && m.booking.Status == model.BookingConfirmed {
			m.confirmCancel = true
		}
		return m, nil, true
	case "y":
		if !m.confirmCancel {
			return m, nil, false
		}
		return m, m.cancelBookingCmd(m.booking.Id), true
	case "n":
		if m.confirmCancel {
			m.confirmCancel = false
			return m, nil, true
		}
		next, cmd := m.reset()
		return next, cmd, true
	case "h":
		return m.openHistory(m.state)
	}
	return m, nil, false
}

func (m appModel) cancelBookingCmd(id string) tea.Cmd {
	now := m.now()
	return func() tea.Msg {
		b, err := store.CancelBooking(id, now)
		return cancelMsg{booking: b, err: err}
	}
}

func (m appModel) tripLines(b model.Booking) []string {
	return []string{
		fmt.Sprintf("Booking ID   %s", lipgloss.NewStyle().Bold(true).Render(b.Id)),
		fmt.Sprintf("Route        %s → %s", b.Route.From, b.Route.To),
		fmt.Sprintf("Travel date  %s", b.TravelDate.Format("Mon, 02 Jan 2006")),
		fmt.Sprintf("Bus          %s • %s", b.Bus.Name, b.Bus.Operator),
		fmt.Sprintf("Departs      %s • Arrives %s", b.Bus.DepartureTime, b.Bus.ArrivalTime),
	}
}

func (m appModel) confirmationView() string {
	b := m.booking
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")).Render("✔ Booking confirmed")
	if b.Status == model.BookingCancelled {
		title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")).Render("Booking cancelled")
	}

	lines := m.tripLines(b)
	lines = append(lines,
		fmt.Sprintf("Paid with    %s", payment.MethodLabel(b.PaymentMethod)),
		fmt.Sprintf("Contact      %s • %s", b.Contact.Email, b.Contact.Phone),
	)

	out := title + "\n\n" + strings.Join(lines, "\n") + "\n\n" + report.Receipt(b)
	if b.Status == model.BookingConfirmed {
		out += "\n\n" + hint("A confirmation has been sent to "+b.Contact.Email+".")
	}
	if m.confirmCancel {
		out += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(
			fmt.Sprintf("Cancel booking %s? You will get %s back (%d%% cancellation fee). y/n",
				b.Id, formatRupees(booking.Refund(b.Fare)), booking.CancellationFee))
	}
	return out
}

func (m appModel) cancelledView() string {
	b := m.booking
	cancelledAt := m.now()
	if b.CancelledAt != nil {
		cancelledAt = *b.CancelledAt
	}

	lines := m.tripLines(b)
	lines = append(lines,
		fmt.Sprintf("Cancelled    %s", cancelledAt.Format(time.DateTime)),
		fmt.Sprintf("Refund       %s of %s (%d%% cancellation fee deducted)",
			formatRupees(b.Refund), formatRupees(b.Fare.Total), booking.CancellationFee),
	)
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")).Render("Booking cancelled")
	return title + "\n\n" + strings.Join(lines, "\n") + "\n\n" +
		hint("The refund goes back to your original payment method.")
}
