package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bus-booking-cli/model"
	"bus-booking-cli/store"
)

type historyItem struct {
	booking model.Booking
}

func (i historyItem) Title() string {
	b := i.booking
	title := fmt.Sprintf("%s • %s → %s", b.Id, b.Route.From, b.Route.To)
	if b.Status == model.BookingCancelled {
		title += " (cancelled)"
	}
	return title
}

func (i historyItem) Description() string {
	b := i.booking
	seats := make([]string, 0, len(b.Seats))
	for _, seat := range b.Seats {
		seats = append(seats, seat.Number)
	}
	desc := fmt.Sprintf("%s • %s • seats %s • %s",
		b.TravelDate.Format("Mon, 02 Jan 2006"), b.Bus.Name, strings.Join(seats, ", "), formatRupees(b.Fare.Total))
	if b.Status == model.BookingCancelled {
		desc += " • refund " + formatRupees(b.Refund)
	}
	return desc
}

func (i historyItem) FilterValue() string {
	return i.booking.Id + " " + i.booking.Route.From + " " + i.booking.Route.To
}

func buildHistoryItems(bookings []model.Booking) []list.Item {
	items := make([]list.Item, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, historyItem{booking: b})
	}
	return items
}

func (m *appModel) replaceHistoryItem(b model.Booking) {
	for i, item := range m.historyList.Items() {
		hi, ok := item.(historyItem)
		if ok && hi.booking.Id == b.Id {
			m.historyList.SetItem(i, historyItem{booking: b})
			return
		}
	}
}

func (m appModel) selectedBooking() (model.Booking, bool) {
	item, ok := m.historyList.SelectedItem().(historyItem)
	if !ok {
		return model.Booking{}, false
	}
	return item.booking, true
}

// openHistory loads stored bookings. esc returns to returnState.
func (m appModel) openHistory(returnState appState) (tea.Model, tea.Cmd, bool) {
	m.historyReturn = returnState
	m.confirmCancel = false
	return m, loadHistoryCmd(), true
}

func loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		bookings, err := store.LoadBookings()
		return historyMsg{bookings: bookings, err: err}
	}
}

func (m appModel) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		b, ok := m.selectedBooking()
		if !ok {
			return m, nil, true
		}
		m.booking = b
		m.confirmCancel = false
		m.state = stateConfirmation
		if b.Status == model.BookingCancelled {
			m.state = stateCancelled
		}
		return m, nil, true
	case "x":
		if b, ok := m.selectedBooking(); ok && b.Status == model.BookingConfirmed {
			m.confirmCancel = true
		}
		return m, nil, true
	case "y":
		if !m.confirmCancel {
			return m, nil, false
		}
		b, ok := m.selectedBooking()
		if !ok {
			m.confirmCancel = false
			return m, nil, true
		}
		return m, m.cancelBookingCmd(b.Id), true
	case "n":
		if m.confirmCancel {
			m.confirmCancel = false
			return m, nil, true
		}
	}
	return m, nil, false
}

func (m appModel) historyView() string {
	if len(m.historyList.Items()) == 0 {
		return "No bookings yet.\n\n" + hint("Press esc to go back.")
	}
	out := m.historyList.View()
	if m.confirmCancel {
		if b, ok := m.selectedBooking(); ok {
			out += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(
				fmt.Sprintf("Cancel booking %s? y/n", b.Id))
		}
	}
	return out
}
