package seatmap

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"bus-booking-cli/model"
)

func selectionIDs(m *SeatMap) []string {
	var ids []string
	for _, seat := range m.Selection() {
		ids = append(ids, seat.Id)
	}
	return ids
}

func assertSelectionConsistent(t *testing.T, m *SeatMap) {
	t.Helper()
	inSelection := map[string]bool{}
	for _, seat := range m.Selection() {
		if inSelection[seat.Id] {
			t.Fatalf("seat %s appears twice in selection", seat.Id)
		}
		inSelection[seat.Id] = true
	}
	for _, seat := range m.Seats() {
		selected := seat.Status == model.SeatSelected
		if selected != inSelection[seat.Id] {
			t.Fatalf("seat %s: status %s but inSelection=%v", seat.Id, seat.Status, inSelection[seat.Id])
		}
		if seat.Status == model.SeatBooked && inSelection[seat.Id] {
			t.Fatalf("booked seat %s is selected", seat.Id)
		}
	}
}

func TestGenerate_DefaultLayout(t *testing.T) {
	spec := DefaultSpec()
	seats := Generate(spec)

	if len(seats) != 40 {
		t.Fatalf("expected 40 seats, got %d", len(seats))
	}
	if len(seats) != spec.Rows*(spec.LowerPerRow+spec.UpperPerRow) {
		t.Fatalf("size mismatch: %d", len(seats))
	}
	if seats[0].Id != "L1" || seats[19].Id != "L20" || seats[20].Id != "U1" || seats[39].Id != "U20" {
		t.Fatalf("unexpected ordering: %s %s %s %s", seats[0].Id, seats[19].Id, seats[20].Id, seats[39].Id)
	}

	booked := map[string]bool{}
	for _, id := range DefaultBooked() {
		booked[id] = true
	}
	seen := map[string]bool{}
	for _, seat := range seats {
		if seen[seat.Number] {
			t.Fatalf("duplicate seat number %s", seat.Number)
		}
		seen[seat.Number] = true
		if seat.Id != seat.Number {
			t.Fatalf("expected id == number, got %s / %s", seat.Id, seat.Number)
		}
		want := model.SeatAvailable
		if booked[seat.Id] {
			want = model.SeatBooked
		}
		if seat.Status != want {
			t.Fatalf("seat %s: expected %s, got %s", seat.Id, want, seat.Status)
		}
		switch seat.Type {
		case model.SeatLower:
			if seat.Price != 1200 {
				t.Fatalf("lower seat %s priced %d", seat.Id, seat.Price)
			}
		case model.SeatUpper:
			if seat.Price != 1000 {
				t.Fatalf("upper seat %s priced %d", seat.Id, seat.Price)
			}
		default:
			t.Fatalf("unexpected seat type %q", seat.Type)
		}
	}
}

func TestGenerate_RowMajorPositions(t *testing.T) {
	seats := Generate(LayoutSpec{Rows: 2, LowerPerRow: 3, UpperPerRow: 1, LowerPrice: 5, UpperPrice: 3})

	want := []struct {
		id  string
		row int
		col int
	}{
		{"L1", 1, 1}, {"L2", 1, 2}, {"L3", 1, 3},
		{"L4", 2, 1}, {"L5", 2, 2}, {"L6", 2, 3},
		{"U1", 1, 1}, {"U2", 2, 1},
	}
	if len(seats) != len(want) {
		t.Fatalf("expected %d seats, got %d", len(want), len(seats))
	}
	for i, w := range want {
		if seats[i].Id != w.id || seats[i].Row != w.row || seats[i].Column != w.col {
			t.Fatalf("seat %d: expected %s@%d,%d got %s@%d,%d", i, w.id, w.row, w.col, seats[i].Id, seats[i].Row, seats[i].Column)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	spec := DefaultSpec()
	if !reflect.DeepEqual(Generate(spec), Generate(spec)) {
		t.Fatal("expected identical layouts for identical specs")
	}
}

func TestGenerate_IgnoresUnknownBookedIDs(t *testing.T) {
	seats := Generate(LayoutSpec{Rows: 1, LowerPerRow: 1, UpperPerRow: 1, Booked: []string{"X9", "u1"}})
	if seats[0].Status != model.SeatAvailable {
		t.Fatalf("expected L1 available, got %s", seats[0].Status)
	}
	if seats[1].Status != model.SeatBooked {
		t.Fatalf("expected U1 booked, got %s", seats[1].Status)
	}
}

func TestToggle_SelectThenTotal(t *testing.T) {
	m := New(DefaultSpec())

	for _, id := range []string{"L2", "U4"} {
		changed, err := m.Toggle(id)
		if err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
		if !changed {
			t.Fatalf("expected %s to change", id)
		}
	}
	if got := m.Total(); got != 2200 {
		t.Fatalf("expected total 2200, got %d", got)
	}
	if got := selectionIDs(m); !reflect.DeepEqual(got, []string{"L2", "U4"}) {
		t.Fatalf("unexpected selection: %v", got)
	}
	assertSelectionConsistent(t, m)
}

func TestToggle_BookedSeatIsIgnored(t *testing.T) {
	m := New(DefaultSpec())
	before := m.Seats()

	changed, err := m.Toggle("L1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if changed {
		t.Fatal("expected booked seat toggle to be ignored")
	}
	if len(m.Selection()) != 0 {
		t.Fatalf("expected empty selection, got %v", selectionIDs(m))
	}
	if !reflect.DeepEqual(before, m.Seats()) {
		t.Fatal("expected layout unchanged")
	}
}

func TestToggle_UnknownSeat(t *testing.T) {
	m := New(DefaultSpec())
	_, err := m.Toggle("Z99")
	if !errors.Is(err, ErrSeatNotFound) {
		t.Fatalf("expected ErrSeatNotFound, got %v", err)
	}
}

func TestToggle_Scenario(t *testing.T) {
	m := New(DefaultSpec())
	for _, id := range []string{"L2", "U4", "L2"} {
		if _, err := m.Toggle(id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
	}
	if got := selectionIDs(m); !reflect.DeepEqual(got, []string{"U4"}) {
		t.Fatalf("expected [U4], got %v", got)
	}
	if got := m.Total(); got != 1000 {
		t.Fatalf("expected total 1000, got %d", got)
	}
	seat, _ := m.Seat("L2")
	if seat.Status != model.SeatAvailable {
		t.Fatalf("expected L2 available, got %s", seat.Status)
	}
}

func TestToggle_TwiceRestoresState(t *testing.T) {
	m := New(DefaultSpec())
	for _, id := range []string{"U4", "L2", "L10"} {
		if _, err := m.Toggle(id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
	}

	for _, id := range []string{"U1", "L20", "L5", "U20"} {
		seatsBefore := m.Seats()
		selBefore := selectionIDs(m)

		if _, err := m.Toggle(id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
		if _, err := m.Toggle(id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}

		if !reflect.DeepEqual(seatsBefore, m.Seats()) {
			t.Fatalf("layout changed after double toggle of %s", id)
		}
		if got := selectionIDs(m); !reflect.DeepEqual(got, selBefore) {
			t.Fatalf("selection order changed after double toggle of %s: %v -> %v", id, selBefore, got)
		}
	}
}

func TestToggle_RandomSequenceKeepsInvariant(t *testing.T) {
	m := New(DefaultSpec())
	seats := m.Seats()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		id := seats[rng.Intn(len(seats))].Id
		if _, err := m.Toggle(id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
		assertSelectionConsistent(t, m)
		if got, want := m.Total(), Total(m.Selection()); got != want {
			t.Fatalf("total mismatch: %d vs %d", got, want)
		}
	}

	for _, id := range DefaultBooked() {
		seat, _ := m.Seat(id)
		if seat.Status != model.SeatBooked {
			t.Fatalf("booked seat %s changed to %s", id, seat.Status)
		}
	}
}

func TestToggle_MaxSelected(t *testing.T) {
	spec := DefaultSpec()
	spec.MaxSelected = 2
	m := New(spec)

	_, _ = m.Toggle("L2")
	_, _ = m.Toggle("L4")
	changed, err := m.Toggle("L5")
	if !errors.Is(err, ErrSelectionFull) {
		t.Fatalf("expected ErrSelectionFull, got %v", err)
	}
	if changed || m.IsSelected("L5") {
		t.Fatal("expected L5 to stay available")
	}

	if _, err := m.Toggle("L2"); err != nil {
		t.Fatalf("deselect should work at the cap: %v", err)
	}
	if _, err := m.Toggle("L5"); err != nil {
		t.Fatalf("expected room after deselect: %v", err)
	}
	if got := selectionIDs(m); !reflect.DeepEqual(got, []string{"L4", "L5"}) {
		t.Fatalf("unexpected selection: %v", got)
	}
}

func TestConfirm(t *testing.T) {
	m := New(DefaultSpec())

	if _, err := m.Confirm(); !errors.Is(err, ErrNoSeatsSelected) {
		t.Fatalf("expected ErrNoSeatsSelected, got %v", err)
	}

	_, _ = m.Toggle("u4")
	_, _ = m.Toggle("L2")
	seats, err := m.Confirm()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(seats) != 2 || seats[0].Id != "U4" || seats[1].Id != "L2" {
		t.Fatalf("unexpected confirmed seats: %+v", seats)
	}

	seats[0].Price = 1
	_, _ = m.Toggle("U4")
	if seats[0].Id != "U4" || len(seats) != 2 {
		t.Fatal("confirmed selection must not follow later toggles")
	}
	if got := m.Total(); got != 1200 {
		t.Fatalf("expected total 1200, got %d", got)
	}
}

func TestCountsAndFillRatio(t *testing.T) {
	m := New(DefaultSpec())
	_, _ = m.Toggle("L2")

	c := m.Counts()
	if c.Total != 40 || c.Booked != 11 || c.Selected != 1 || c.Available != 28 {
		t.Fatalf("unexpected counts: %+v", c)
	}
	if got := m.FillRatio(); got != 11.0/40.0 {
		t.Fatalf("unexpected fill ratio %v", got)
	}
	if got := len(m.Deck(model.SeatUpper)); got != 20 {
		t.Fatalf("expected 20 upper seats, got %d", got)
	}
}

func TestEmptySpec(t *testing.T) {
	m := New(LayoutSpec{})
	if m.Len() != 0 || m.FillRatio() != 0 || m.Total() != 0 {
		t.Fatalf("expected empty map, got len=%d", m.Len())
	}
}
