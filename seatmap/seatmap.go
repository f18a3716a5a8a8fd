// Package seatmap tracks berth status for a single seat-selection session.
//
// A SeatMap is created fresh from a LayoutSpec every time the wizard enters
// the seat step and is dropped when it leaves. Seats live in one indexed
// slice that carries their status; the selection is an index into that
// slice kept in click order. Both are updated in the same call so that a
// seat is selected exactly when it appears in the selection.
//
// A SeatMap is not safe for concurrent use. The wizard owns it and only
// touches it from its Update loop.
package seatmap

import (
	"errors"
	"fmt"
	"strings"

	"bus-booking-cli/model"
)

var (
	// ErrSeatNotFound is returned by Toggle for an id that is not part of
	// the layout.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrNoSeatsSelected is returned by Confirm when the selection is empty.
	ErrNoSeatsSelected = errors.New("no seats selected")

	// ErrSelectionFull is returned by Toggle when selecting one more seat
	// would exceed LayoutSpec.MaxSelected.
	ErrSelectionFull = errors.New("seat selection limit reached")
)

// Seat id prefixes: lower berths are L1, L2, ... and upper berths U1, U2, ...
const (
	LowerPrefix = "L"
	UpperPrefix = "U"
)

// LayoutSpec describes a sleeper layout. Every row holds LowerPerRow
// lower berths and UpperPerRow upper berths.
type LayoutSpec struct {
	Rows        int
	LowerPerRow int
	UpperPerRow int
	LowerPrice  int
	UpperPrice  int

	// Booked lists the seat ids that are sold before the session starts.
	// Ids that do not exist in the layout are ignored.
	Booked []string

	// MaxSelected caps the selection size. Zero means no cap.
	MaxSelected int
}

// DefaultBooked is the booked set of the built-in sample bus.
func DefaultBooked() []string {
	return []string{"L1", "L3", "U2", "L8", "U5", "L12", "U9", "L15", "U13", "L19", "U18"}
}

// DefaultSpec returns the built-in 10-row sleeper: 20 lower berths at 1200
// and 20 upper berths at 1000.
func DefaultSpec() LayoutSpec {
	return LayoutSpec{
		Rows:        10,
		LowerPerRow: 2,
		UpperPerRow: 2,
		LowerPrice:  1200,
		UpperPrice:  1000,
		Booked:      DefaultBooked(),
	}
}

// Size is the number of seats Generate produces for the spec.
func (s LayoutSpec) Size() int {
	if s.Rows <= 0 {
		return 0
	}
	return s.Rows * (max(0, s.LowerPerRow) + max(0, s.UpperPerRow))
}

// Generate builds the seat list for spec: the lower deck in row-major order
// followed by the upper deck. Seats in spec.Booked start booked, every
// other seat starts available. Generate is deterministic.
func Generate(spec LayoutSpec) []model.Seat {
	booked := make(map[string]bool, len(spec.Booked))
	for _, id := range spec.Booked {
		booked[normalizeID(id)] = true
	}

	seats := make([]model.Seat, 0, spec.Size())
	seats = appendDeck(seats, model.SeatLower, LowerPrefix, spec.Rows, spec.LowerPerRow, spec.LowerPrice, booked)
	seats = appendDeck(seats, model.SeatUpper, UpperPrefix, spec.Rows, spec.UpperPerRow, spec.UpperPrice, booked)
	return seats
}

func appendDeck(seats []model.Seat, seatType model.SeatType, prefix string, rows int, perRow int, price int, booked map[string]bool) []model.Seat {
	number := 1
	for row := 1; row <= rows; row++ {
		for col := 1; col <= perRow; col++ {
			id := fmt.Sprintf("%s%d", prefix, number)
			status := model.SeatAvailable
			if booked[id] {
				status = model.SeatBooked
			}
			seats = append(seats, model.Seat{
				Id:     id,
				Number: id,
				Type:   seatType,
				Status: status,
				Price:  price,
				Row:    row,
				Column: col,
			})
			number++
		}
	}
	return seats
}

// SeatMap is the state of one seat-selection session.
type SeatMap struct {
	spec     LayoutSpec
	seats    []model.Seat
	index    map[string]int
	selected []int
}

// New generates a fresh layout for spec with nothing selected.
func New(spec LayoutSpec) *SeatMap {
	seats := Generate(spec)
	index := make(map[string]int, len(seats))
	for i, seat := range seats {
		index[seat.Id] = i
	}
	return &SeatMap{
		spec:  spec,
		seats: seats,
		index: index,
	}
}

// Spec returns the layout the map was generated from.
func (m *SeatMap) Spec() LayoutSpec {
	return m.spec
}

// Len is the number of seats in the layout.
func (m *SeatMap) Len() int {
	return len(m.seats)
}

// Seats returns a copy of the layout in generation order.
func (m *SeatMap) Seats() []model.Seat {
	out := make([]model.Seat, len(m.seats))
	copy(out, m.seats)
	return out
}

// Deck returns a copy of the seats of one berth type in generation order.
func (m *SeatMap) Deck(seatType model.SeatType) []model.Seat {
	var out []model.Seat
	for _, seat := range m.seats {
		if seat.Type == seatType {
			out = append(out, seat)
		}
	}
	return out
}

// Seat looks up a seat by id. Ids are matched case-insensitively.
func (m *SeatMap) Seat(id string) (model.Seat, bool) {
	i, ok := m.index[normalizeID(id)]
	if !ok {
		return model.Seat{}, false
	}
	return m.seats[i], true
}

// Toggle flips a seat between available and selected and reports whether
// anything changed.
//
// Booked seats are ignored: Toggle returns false and no error. Selecting
// appends the seat to the end of the selection; deselecting removes it and
// keeps the relative order of the remaining seats, so toggling an available
// seat twice restores the previous state exactly.
func (m *SeatMap) Toggle(id string) (bool, error) {
	i, ok := m.index[normalizeID(id)]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrSeatNotFound, strings.TrimSpace(id))
	}

	switch m.seats[i].Status {
	case model.SeatBooked:
		return false, nil
	case model.SeatSelected:
		m.seats[i].Status = model.SeatAvailable
		m.removeSelected(i)
		return true, nil
	default:
		if m.spec.MaxSelected > 0 && len(m.selected) >= m.spec.MaxSelected {
			return false, ErrSelectionFull
		}
		m.seats[i].Status = model.SeatSelected
		m.selected = append(m.selected, i)
		return true, nil
	}
}

func (m *SeatMap) removeSelected(pos int) {
	for k, idx := range m.selected {
		if idx == pos {
			m.selected = append(m.selected[:k], m.selected[k+1:]...)
			return
		}
	}
}

// IsSelected reports whether id is part of the selection.
func (m *SeatMap) IsSelected(id string) bool {
	seat, ok := m.Seat(id)
	return ok && seat.Status == model.SeatSelected
}

// Selection returns a copy of the selected seats in click order.
func (m *SeatMap) Selection() []model.Seat {
	out := make([]model.Seat, 0, len(m.selected))
	for _, i := range m.selected {
		out = append(out, m.seats[i])
	}
	return out
}

// Total is the price of the current selection.
func (m *SeatMap) Total() int {
	return Total(m.Selection())
}

// Confirm hands the selection over to the next wizard step. The returned
// slice is a copy; later toggles do not affect it.
func (m *SeatMap) Confirm() ([]model.Seat, error) {
	if len(m.selected) == 0 {
		return nil, ErrNoSeatsSelected
	}
	return m.Selection(), nil
}

// Total sums the prices of seats.
func Total(seats []model.Seat) int {
	total := 0
	for _, seat := range seats {
		total += seat.Price
	}
	return total
}

// Counts tallies the seats of a layout by status.
type Counts struct {
	Available int
	Booked    int
	Selected  int
	Total     int
}

// Counts reports how many seats are in each status.
func (m *SeatMap) Counts() Counts {
	var c Counts
	for _, seat := range m.seats {
		c.Total++
		switch seat.Status {
		case model.SeatAvailable:
			c.Available++
		case model.SeatBooked:
			c.Booked++
		case model.SeatSelected:
			c.Selected++
		}
	}
	return c
}

// FillRatio is the share of the layout that was booked before the session.
func (m *SeatMap) FillRatio() float64 {
	c := m.Counts()
	if c.Total == 0 {
		return 0
	}
	return float64(c.Booked) / float64(c.Total)
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
