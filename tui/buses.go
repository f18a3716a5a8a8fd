package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"bus-booking-cli/model"
)

type busItem struct {
	bus model.Bus
}

func (b busItem) Title() string {
	return fmt.Sprintf("%s • %s", b.bus.Name, b.bus.Operator)
}

func (b busItem) Description() string {
	parts := []string{
		fmt.Sprintf("%s → %s (%s)", b.bus.DepartureTime, b.bus.ArrivalTime, b.bus.Duration),
		"from " + formatRupees(b.bus.Price),
	}
	if b.bus.Rating > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", b.bus.Rating))
	}
	if b.bus.TotalSeats > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d seats left", b.bus.AvailableSeats, b.bus.TotalSeats))
	}
	if b.bus.BusType != "" {
		parts = append(parts, b.bus.BusType)
	}
	if len(b.bus.Amenities) > 0 {
		parts = append(parts, strings.Join(b.bus.Amenities, ", "))
	}
	return strings.Join(parts, " • ")
}

func (b busItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{b.bus.Name, b.bus.Operator, b.bus.BusType, strings.Join(b.bus.Amenities, " ")}, " "))
}

func buildBusItems(buses []model.Bus) []list.Item {
	items := make([]list.Item, 0, len(buses))
	for _, bus := range buses {
		items = append(items, busItem{bus: bus})
	}
	return items
}

func (m appModel) selectBus() (tea.Model, tea.Cmd, bool) {
	item, ok := m.busList.SelectedItem().(busItem)
	if !ok {
		return m, nil, true
	}
	m.bus = item.bus
	m.state = stateLoadingSeats
	return m, tea.Batch(m.fetchSeatsCmd(m.bus.Id), m.spinner.Tick), true
}

func (m appModel) fetchSeatsCmd(busID string) tea.Cmd {
	return func() tea.Msg {
		booked, err := m.catalog.BookedSeats(context.Background(), busID)
		return seatsMsg{booked: booked, err: err}
	}
}
