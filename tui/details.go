package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bus-booking-cli/booking"
	"bus-booking-cli/model"
)

// Every passenger card has four focusable slots.
const (
	slotName = iota
	slotAge
	slotGender
	slotMeal
	passengerSlots
)

type passengerFields struct {
	seat   string
	name   textinput.Model
	age    textinput.Model
	gender int
	meal   int
}

type detailsForm struct {
	passengers []passengerFields
	email      textinput.Model
	phone      textinput.Model
	focus      int
	err        string
}

func newDetailsForm(passengers []model.Passenger) detailsForm {
	f := detailsForm{passengers: make([]passengerFields, len(passengers))}
	for i, p := range passengers {
		name := textinput.New()
		name.Placeholder = "Full name"
		name.CharLimit = 60
		name.Width = 30
		name.SetValue(p.Name)

		age := textinput.New()
		age.Placeholder = "Age"
		age.CharLimit = 3
		age.Width = 5
		if p.Age > 0 {
			age.SetValue(strconv.Itoa(p.Age))
		}

		f.passengers[i] = passengerFields{
			seat:   p.SeatNumber,
			name:   name,
			age:    age,
			gender: indexOf(booking.Genders(), p.Gender),
			meal:   max(0, indexOf(booking.Meals(), p.Meal)),
		}
	}

	f.email = textinput.New()
	f.email.Placeholder = "you@example.com"
	f.email.CharLimit = 80
	f.email.Width = 30

	f.phone = textinput.New()
	f.phone.Placeholder = "10 digit mobile"
	f.phone.CharLimit = 10
	f.phone.Width = 12
	return f
}

func indexOf[T comparable](values []T, v T) int {
	for i, candidate := range values {
		if candidate == v {
			return i
		}
	}
	return -1
}

func (f detailsForm) fieldCount() int {
	return len(f.passengers)*passengerSlots + 2
}

func (f detailsForm) emailField() int {
	return len(f.passengers) * passengerSlots
}

// input returns the text input behind field i, or nil for option fields.
func (f *detailsForm) input(i int) *textinput.Model {
	switch {
	case i == f.emailField():
		return &f.email
	case i == f.emailField()+1:
		return &f.phone
	case i < 0 || i > f.emailField():
		return nil
	}
	p := &f.passengers[i/passengerSlots]
	switch i % passengerSlots {
	case slotName:
		return &p.name
	case slotAge:
		return &p.age
	default:
		return nil
	}
}

func (f *detailsForm) setFocus(i int) tea.Cmd {
	n := f.fieldCount()
	f.focus = ((i % n) + n) % n
	var cmd tea.Cmd
	for k := 0; k < n; k++ {
		in := f.input(k)
		if in == nil {
			continue
		}
		if k == f.focus {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

func (f *detailsForm) update(msg tea.Msg) tea.Cmd {
	in := f.input(f.focus)
	if in == nil {
		return nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return cmd
}

// cycle steps the gender or meal option under focus. It reports false when
// the focused field is a text input.
func (f *detailsForm) cycle(delta int) bool {
	if f.focus >= f.emailField() {
		return false
	}
	p := &f.passengers[f.focus/passengerSlots]
	switch f.focus % passengerSlots {
	case slotGender:
		n := len(booking.Genders())
		if p.gender < 0 {
			p.gender = 0
			if delta < 0 {
				p.gender = n - 1
			}
			return true
		}
		p.gender = (p.gender + delta + n) % n
		return true
	case slotMeal:
		n := len(booking.Meals())
		p.meal = (p.meal + delta + n) % n
		return true
	default:
		return false
	}
}

func (f detailsForm) collect() ([]model.Passenger, model.Contact) {
	genders := booking.Genders()
	meals := booking.Meals()
	passengers := make([]model.Passenger, len(f.passengers))
	for i, p := range f.passengers {
		age, _ := strconv.Atoi(strings.TrimSpace(p.age.Value()))
		var gender model.Gender
		if p.gender >= 0 {
			gender = genders[p.gender]
		}
		passengers[i] = model.Passenger{
			Name:       strings.TrimSpace(p.name.Value()),
			Age:        age,
			Gender:     gender,
			SeatNumber: p.seat,
			Meal:       meals[p.meal],
		}
	}
	contact := model.Contact{
		Email: strings.TrimSpace(f.email.Value()),
		Phone: strings.TrimSpace(f.phone.Value()),
	}
	return passengers, contact
}

func (m appModel) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "down":
		return m, m.details.setFocus(m.details.focus + 1), true
	case "shift+tab", "up":
		return m, m.details.setFocus(m.details.focus - 1), true
	case "right", " ":
		if m.details.cycle(1) {
			return m, nil, true
		}
	case "left":
		if m.details.cycle(-1) {
			return m, nil, true
		}
	case "enter":
		return m.submitDetails()
	}
	return m, nil, false
}

func (m appModel) submitDetails() (tea.Model, tea.Cmd, bool) {
	passengers, contact := m.details.collect()
	if err := booking.ValidateDetails(m.draft.Seats, passengers, contact); err != nil {
		m.details.err = err.Error()
		var verr *booking.ValidationError
		if errors.As(err, &verr) {
			focus := m.details.emailField()
			if verr.Index >= 0 {
				focus = verr.Index * passengerSlots
			}
			return m, m.details.setFocus(focus), true
		}
		return m, nil, true
	}
	m.details.err = ""
	m.draft.Passengers = passengers
	m.draft.Contact = contact
	m.checkout = newCheckoutForm()
	m.state = statePayment
	return m, nil, true
}

func (m appModel) detailsView() string {
	focused := lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	label := lipgloss.NewStyle().Width(8)
	title := lipgloss.NewStyle().Bold(true)

	marker := func(i int) string {
		if i == m.details.focus {
			return focused.Render("› ")
		}
		return "  "
	}
	option := func(i int, text string) string {
		if i == m.details.focus {
			return focused.Render("‹ " + text + " ›")
		}
		return "  " + text
	}

	seatTypes := make(map[string]model.SeatType, len(m.draft.Seats))
	for _, seat := range m.draft.Seats {
		seatTypes[seat.Number] = seat.Type
	}

	var cards []string
	for i, p := range m.details.passengers {
		base := i * passengerSlots
		gender := "select"
		if p.gender >= 0 {
			gender = string(booking.Genders()[p.gender])
		}
		meal := booking.Meals()[p.meal]
		mealText := string(meal)
		if price := booking.MealPrice(meal); price > 0 {
			mealText += fmt.Sprintf(" (+%s)", formatRupees(price))
		}
		card := strings.Join([]string{
			title.Render(fmt.Sprintf("Passenger %d • Seat %s (%s)", i+1, p.seat, seatTypes[p.seat])),
			marker(base+slotName) + label.Render("Name") + p.name.View(),
			marker(base+slotAge) + label.Render("Age") + p.age.View(),
			marker(base+slotGender) + label.Render("Gender") + option(base+slotGender, gender),
			marker(base+slotMeal) + label.Render("Meal") + option(base+slotMeal, mealText),
		}, "\n")
		cards = append(cards, card)
	}

	email := m.details.emailField()
	contact := strings.Join([]string{
		title.Render("Contact details"),
		marker(email) + label.Render("Email") + m.details.email.View(),
		marker(email+1) + label.Render("Phone") + m.details.phone.View(),
	}, "\n")
	cards = append(cards, contact)

	passengers, _ := m.details.collect()
	fare := booking.ComputeFare(m.draft.Seats, passengers, m.draft.GSTPercent)
	out := strings.Join(cards, "\n\n") + "\n\n" + fareView(fare, m.draft.GSTPercent)
	if m.details.err != "" {
		out += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.details.err)
	}
	return out
}

func fareView(fare model.Fare, gstPercent int) string {
	lines := []string{
		fmt.Sprintf("Seats         %s", formatRupees(fare.Subtotal)),
	}
	if fare.Meals > 0 {
		lines = append(lines, fmt.Sprintf("Meals         %s", formatRupees(fare.Meals)))
	}
	lines = append(lines,
		fmt.Sprintf("GST (%d%%)      %s", gstPercent, formatRupees(fare.GST)),
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Total         %s", formatRupees(fare.Total))),
	)
	return strings.Join(lines, "\n")
}
