package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bus-booking-cli/booking"
	"bus-booking-cli/model"
	"bus-booking-cli/seatmap"
)

const seatCellWidth = 4

// seatCursor addresses the combined grid: lower berths occupy the first
// LowerPerRow columns of a row, upper berths the rest.
type seatCursor struct {
	row int
	col int
}

var (
	seatStyleAvailable = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleBooked    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Faint(true)
	seatStyleSelected  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Bold(true)
)

// openSeatMap starts a fresh seat session for the current bus.
func (m *appModel) openSeatMap() {
	spec := m.layout
	spec.Booked = append([]string(nil), m.booked...)
	m.seats = seatmap.New(spec)
	m.cursor = seatCursor{}
	m.notice = ""
	m.state = stateSelectSeats
}

func gridWidth(spec seatmap.LayoutSpec) int {
	return max(0, spec.LowerPerRow) + max(0, spec.UpperPerRow)
}

// seatIDAt maps a cursor position to a seat id.
func seatIDAt(spec seatmap.LayoutSpec, c seatCursor) string {
	if c.col < spec.LowerPerRow {
		return fmt.Sprintf("%s%d", seatmap.LowerPrefix, c.row*spec.LowerPerRow+c.col+1)
	}
	return fmt.Sprintf("%s%d", seatmap.UpperPrefix, c.row*spec.UpperPerRow+(c.col-spec.LowerPerRow)+1)
}

func (m *appModel) moveCursor(dRow, dCol int) {
	spec := m.seats.Spec()
	m.cursor.row = min(max(m.cursor.row+dRow, 0), max(spec.Rows-1, 0))
	m.cursor.col = min(max(m.cursor.col+dCol, 0), max(gridWidth(spec)-1, 0))
}

func (m appModel) handleSeatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.seats == nil || m.seats.Len() == 0 {
		return m, nil, false
	}
	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)
	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case " ", "enter":
		return m.toggleSeat(seatIDAt(m.seats.Spec(), m.cursor))
	case "c":
		return m.confirmSeats()
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m appModel) toggleSeat(id string) (tea.Model, tea.Cmd, bool) {
	changed, err := m.seats.Toggle(id)
	switch {
	case errors.Is(err, seatmap.ErrSelectionFull):
		m.notice = fmt.Sprintf("You can book at most %d seats at a time.", m.seats.Spec().MaxSelected)
	case err != nil:
		m.logger.Warn("seat toggle failed", "seat", id, "error", err)
		m.notice = err.Error()
	case !changed:
		m.notice = fmt.Sprintf("Seat %s is already booked.", id)
	default:
		m.notice = ""
	}
	return m, nil, true
}

// confirmSeats moves on to passenger details. An empty selection keeps the
// wizard on the seat step.
func (m appModel) confirmSeats() (tea.Model, tea.Cmd, bool) {
	seats, err := m.seats.Confirm()
	if err != nil {
		m.notice = "Select at least one seat to continue."
		return m, nil, true
	}
	m.draft = booking.Draft{
		Bus:        m.bus,
		Route:      model.Route{From: m.query.From, To: m.query.To},
		TravelDate: m.query.Date,
		Seats:      seats,
		Passengers: booking.NewPassengers(seats),
		GSTPercent: m.gst,
	}
	m.details = newDetailsForm(m.draft.Passengers)
	m.logger.Debug("seats confirmed", "bus", m.bus.Id, "seats", len(seats), "total", seatmap.Total(seats))
	m.state = stateDetails
	return m, m.details.setFocus(0), true
}

func (m appModel) seatsView() string {
	if m.seats == nil || m.seats.Len() == 0 {
		return "No seat layout for this bus."
	}
	spec := m.seats.Spec()

	deckTitle := lipgloss.NewStyle().Bold(true).Underline(true)
	lower := deckTitle.Render("Lower deck") + "\n\n" + m.renderDeck(spec, 0, spec.LowerPerRow)
	upper := deckTitle.Render("Upper deck") + "\n\n" + m.renderDeck(spec, spec.LowerPerRow, spec.UpperPerRow)

	decks := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().MarginRight(4).Render(lower),
		lipgloss.NewStyle().MarginRight(4).Render(upper),
		m.seatSummaryView(),
	)

	legend := strings.Join([]string{
		seatStyleAvailable.Render("L4") + " available",
		seatStyleBooked.Render("L1") + " booked",
		seatStyleSelected.Render("L2") + " selected",
	}, " • ")
	out := decks + "\n\n" + hint("Legend: ") + legend
	if m.notice != "" {
		out += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(m.notice)
	}
	return out
}

func (m appModel) renderDeck(spec seatmap.LayoutSpec, firstCol int, perRow int) string {
	if perRow <= 0 {
		return hint("none")
	}
	var b strings.Builder
	for row := 0; row < spec.Rows; row++ {
		for col := firstCol; col < firstCol+perRow; col++ {
			pos := seatCursor{row: row, col: col}
			id := seatIDAt(spec, pos)
			seat, _ := m.seats.Seat(id)
			b.WriteString(renderSeat(seat, pos == m.cursor))
			if col < firstCol+perRow-1 {
				b.WriteString(" ")
			}
		}
		if row < spec.Rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderSeat(seat model.Seat, focused bool) string {
	text := padCell(seat.Number, seatCellWidth)
	var style lipgloss.Style
	switch seat.Status {
	case model.SeatBooked:
		style = seatStyleBooked
		text = padCell("--", seatCellWidth)
	case model.SeatSelected:
		style = seatStyleSelected
	default:
		style = seatStyleAvailable
	}
	if focused {
		style = style.Reverse(true).Bold(true)
	}
	return style.Render(text)
}

func (m appModel) seatSummaryView() string {
	selection := m.seats.Selection()
	counts := m.seats.Counts()

	ids := make([]string, 0, len(selection))
	for _, seat := range selection {
		ids = append(ids, seat.Number)
	}
	picked := "none"
	if len(ids) > 0 {
		picked = strings.Join(ids, ", ")
	}

	cursorID := seatIDAt(m.seats.Spec(), m.cursor)
	cursorLine := cursorID
	if seat, ok := m.seats.Seat(cursorID); ok {
		cursorLine = fmt.Sprintf("%s • %s berth • %s • %s", seat.Number, seat.Type, formatRupees(seat.Price), seat.Status)
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("Booking summary"),
		"",
		"Seat: " + cursorLine,
		"Selected: " + picked,
		lipgloss.NewStyle().Bold(true).Render("Total: " + formatRupees(m.seats.Total())),
		"",
		fmt.Sprintf("Available %d • Booked %d • Selected %d", counts.Available, counts.Booked, counts.Selected),
		fmt.Sprintf("Confirmation chance: %d%%", booking.ConfirmationProbability(m.seats.FillRatio())),
	}
	if limit := m.seats.Spec().MaxSelected; limit > 0 {
		lines = append(lines, fmt.Sprintf("Limit: %d seats per booking", limit))
	}
	switch {
	case m.seats.IsSelected(cursorID):
		lines = append(lines, "", hint("Press space to release "+cursorID+", c to continue."))
	case len(selection) == 0:
		lines = append(lines, "", hint("Select a seat to continue."))
	default:
		lines = append(lines, "", hint("Press c to continue."))
	}

	return lipgloss.NewStyle().
		Padding(0, 2).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(strings.Join(lines, "\n"))
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text == "" {
		return strings.Repeat(" ", width)
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}
