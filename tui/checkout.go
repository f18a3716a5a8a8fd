package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bus-booking-cli/booking"
	"bus-booking-cli/model"
	"bus-booking-cli/payment"
)

// checkoutForm collects the payment method. The card and UPI fields are
// shown for completeness and are not validated.
type checkoutForm struct {
	methodIndex int
	editing     bool
	card        textinput.Model
	expiry      textinput.Model
	upi         textinput.Model
	field       int
}

func newCheckoutForm() checkoutForm {
	card := textinput.New()
	card.Placeholder = "1234 5678 9012 3456"
	card.CharLimit = 19
	card.Width = 22

	expiry := textinput.New()
	expiry.Placeholder = "MM/YY"
	expiry.CharLimit = 5
	expiry.Width = 6

	upi := textinput.New()
	upi.Placeholder = "name@upi"
	upi.CharLimit = 40
	upi.Width = 24

	return checkoutForm{card: card, expiry: expiry, upi: upi}
}

func (f checkoutForm) method() model.PaymentMethod {
	methods := payment.Methods()
	if f.methodIndex < 0 || f.methodIndex >= len(methods) {
		return methods[0]
	}
	return methods[f.methodIndex]
}

// fields returns the inputs that belong to the chosen method.
func (f *checkoutForm) fields() []*textinput.Model {
	switch f.method() {
	case model.PaymentCard:
		return []*textinput.Model{&f.card, &f.expiry}
	case model.PaymentUPI:
		return []*textinput.Model{&f.upi}
	default:
		return nil
	}
}

// toggleEditing walks focus from the method list through the method's
// fields and back. Methods without fields keep focus on the list.
func (f *checkoutForm) toggleEditing() tea.Cmd {
	fields := f.fields()
	if len(fields) == 0 {
		f.editing = false
		return nil
	}
	if !f.editing {
		f.editing = true
		f.field = 0
		return fields[0].Focus()
	}
	fields[f.field].Blur()
	f.field++
	if f.field >= len(fields) {
		f.editing = false
		f.field = 0
		return nil
	}
	return fields[f.field].Focus()
}

func (f *checkoutForm) update(msg tea.Msg) tea.Cmd {
	if !f.editing {
		return nil
	}
	fields := f.fields()
	if f.field >= len(fields) {
		return nil
	}
	var cmd tea.Cmd
	*fields[f.field], cmd = fields[f.field].Update(msg)
	return cmd
}

func (m appModel) handlePaymentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "tab":
		return m, m.checkout.toggleEditing(), true
	case "up", "k":
		if m.checkout.editing {
			return m, nil, false
		}
		n := len(payment.Methods())
		m.checkout.methodIndex = (m.checkout.methodIndex - 1 + n) % n
		return m, nil, true
	case "down", "j":
		if m.checkout.editing {
			return m, nil, false
		}
		m.checkout.methodIndex = (m.checkout.methodIndex + 1) % len(payment.Methods())
		return m, nil, true
	case "enter":
		return m.startPayment()
	}
	return m, nil, false
}

// startPayment hands the draft to the processor. The payment runs in a
// command goroutine and is cancelled through its context.
func (m appModel) startPayment() (tea.Model, tea.Cmd, bool) {
	for _, in := range m.checkout.fields() {
		in.Blur()
	}
	m.checkout.editing = false

	ctx, cancel := context.WithCancel(context.Background())
	m.paySeq++
	m.cancelPay = cancel
	m.state = stateProcessing
	m.logger.Info("payment started", "method", m.checkout.method(), "total", m.draft.Fare().Total)
	return m, tea.Batch(m.payCmd(ctx, m.paySeq, m.draft, m.checkout.method()), m.spinner.Tick), true
}

func (m appModel) payCmd(ctx context.Context, seq int, draft booking.Draft, method model.PaymentMethod) tea.Cmd {
	processor := m.processor
	return func() tea.Msg {
		b, err := processor.Process(ctx, draft, method)
		return paymentMsg{seq: seq, booking: b, err: err}
	}
}

func (m appModel) paymentView() string {
	focused := lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	title := lipgloss.NewStyle().Bold(true)

	var methods []string
	for i, method := range payment.Methods() {
		line := "  ( ) " + payment.MethodLabel(method)
		if i == m.checkout.methodIndex {
			line = focused.Render("› (•) " + payment.MethodLabel(method))
		}
		methods = append(methods, line)
	}

	var fields []string
	switch m.checkout.method() {
	case model.PaymentCard:
		fields = append(fields,
			"Card number  "+m.checkout.card.View(),
			"Expiry       "+m.checkout.expiry.View(),
		)
	case model.PaymentUPI:
		fields = append(fields, "UPI id       "+m.checkout.upi.View())
	case model.PaymentNetBanking:
		fields = append(fields, hint("You will be redirected to your bank after confirming."))
	}

	var seats []string
	for _, seat := range m.draft.Seats {
		seats = append(seats, seat.Number)
	}
	summary := strings.Join([]string{
		title.Render("Trip"),
		fmt.Sprintf("%s • %s", m.draft.Bus.Name, m.draft.Bus.Operator),
		fmt.Sprintf("%s → %s on %s", m.draft.Route.From, m.draft.Route.To, m.draft.TravelDate.Format("Mon, 02 Jan 2006")),
		fmt.Sprintf("Seats: %s • %d passenger(s)", strings.Join(seats, ", "), len(m.draft.Passengers)),
		"",
		fareView(m.draft.Fare(), m.draft.GSTPercent),
	}, "\n")

	left := title.Render("Payment method") + "\n" + strings.Join(methods, "\n") + "\n\n" + strings.Join(fields, "\n")
	panel := lipgloss.NewStyle().
		Padding(0, 2).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(summary)
	return lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().MarginRight(4).Render(left), panel) +
		"\n\n" + hint(fmt.Sprintf("Press enter to pay %s.", formatRupees(m.draft.Fare().Total)))
}
