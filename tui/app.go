package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bus-booking-cli/booking"
	"bus-booking-cli/model"
	"bus-booking-cli/payment"
	"bus-booking-cli/seatmap"
	"bus-booking-cli/service"
	"bus-booking-cli/store"
)

type appState int

const (
	stateSearch appState = iota
	stateLoadingBuses
	stateSelectBus
	stateLoadingSeats
	stateSelectSeats
	stateDetails
	statePayment
	stateProcessing
	stateConfirmation
	stateCancelled
	stateHistory
	stateError
)

// Options wires the wizard to its collaborators. Zero values fall back to
// the built-in sample catalog, the default layout and an instant payment.
type Options struct {
	Catalog   service.Catalog
	Processor *payment.Processor
	Locator   *service.Locator
	Layout    seatmap.LayoutSpec

	// GSTPercent is charged as given; zero means a tax-free fare.
	GSTPercent int
	Logger     *slog.Logger
	Now        func() time.Time
}

type appModel struct {
	catalog   service.Catalog
	processor *payment.Processor
	locator   *service.Locator
	layout    seatmap.LayoutSpec
	gst       int
	logger    *slog.Logger
	now       func() time.Time

	state     appState
	lastState appState
	err       error

	width  int
	height int

	status      string
	statusLevel slog.Level
	statusSeq   int

	search   searchForm
	stations []model.Station
	recent   []model.Route

	query   model.SearchQuery
	busList list.Model
	bus     model.Bus
	booked  []string

	seats  *seatmap.SeatMap
	cursor seatCursor
	notice string

	draft    booking.Draft
	details  detailsForm
	checkout checkoutForm

	paySeq    int
	cancelPay context.CancelFunc

	booking       model.Booking
	confirmCancel bool

	historyList   list.Model
	historyReturn appState

	spinner spinner.Model
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type stationsMsg struct {
	stations []model.Station
	err      error
}

type recentRoutesMsg struct {
	routes []model.Route
}

type busesMsg struct {
	buses []model.Bus
	err   error
}

type seatsMsg struct {
	booked []string
	err    error
}

type locationMsg struct {
	station model.Station
	km      float64
	found   bool
	err     error
}

type paymentMsg struct {
	seq     int
	booking model.Booking
	err     error
}

type historyMsg struct {
	bookings []model.Booking
	err      error
}

type cancelMsg struct {
	booking model.Booking
	err     error
}

func New(opts Options) tea.Model {
	if opts.Catalog == nil {
		opts.Catalog = service.NewMockCatalog(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Processor == nil {
		opts.Processor = payment.NewProcessor(0, opts.Logger)
	}
	if opts.Layout.Size() == 0 {
		opts.Layout = seatmap.DefaultSpec()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := appModel{
		catalog:   opts.Catalog,
		processor: opts.Processor,
		locator:   opts.Locator,
		layout:    opts.Layout,
		gst:       opts.GSTPercent,
		logger:    opts.Logger,
		now:       opts.Now,
		state:     stateSearch,
	}
	m.search = newSearchForm(truncateDate(m.now()))
	m.busList = newList("Select Bus")
	m.historyList = newList("My Bookings")
	m.historyList.SetFilteringEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchStationsCmd(), loadRecentRoutesCmd(), textinput.Blink)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.handleFilterInput(msg) {
			return m, nil
		}
		var handled bool
		m, cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// fallthrough to component update
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case logRecordMsg:
		return m, m.setStatus(msg.summary, msg.level)

	case statusFadeMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.state = stateError
		return m, nil

	case stationsMsg:
		if msg.err != nil {
			m.logger.Warn("could not load stations", "error", msg.err)
			return m, nil
		}
		m.stations = msg.stations
		return m, nil

	case recentRoutesMsg:
		m.recent = msg.routes
		if len(m.recent) > 0 && m.search.empty() {
			m.search.applyRoute(m.recent[0])
			m.search.recentIndex = 0
		}
		return m, nil

	case locationMsg:
		if msg.err != nil {
			m.logger.Warn("location lookup failed", "error", msg.err)
			return m, nil
		}
		if !msg.found {
			return m, m.setStatus("No boarding station near you", slog.LevelInfo)
		}
		m.search.inputs[fieldFrom].SetValue(msg.station.Name)
		return m, m.setStatus(fmt.Sprintf("Nearest station: %s (%.0f km)", msg.station.Name, msg.km), slog.LevelInfo)

	case busesMsg:
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		if len(msg.buses) == 0 {
			return m, errWithStateCmd(
				fmt.Errorf("no buses found from %s to %s on %s", m.query.From, m.query.To, m.query.Date.Format(time.DateOnly)),
				stateSearch,
			)
		}
		m.busList.SetItems(buildBusItems(msg.buses))
		m.busList.ResetFilter()
		m.busList.Select(0)
		m.state = stateSelectBus
		return m, nil

	case seatsMsg:
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		m.booked = msg.booked
		m.openSeatMap()
		return m, nil

	case paymentMsg:
		if msg.seq != m.paySeq || m.state != stateProcessing {
			return m, nil
		}
		if m.cancelPay != nil {
			m.cancelPay()
			m.cancelPay = nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				m.state = statePayment
				return m, nil
			}
			return m, errWithStateCmd(msg.err, statePayment)
		}
		m.booking = msg.booking
		m.confirmCancel = false
		if err := store.SaveBooking(m.booking); err != nil {
			m.logger.Warn("could not save booking", "id", m.booking.Id, "error", err)
		}
		m.logger.Info("booking confirmed", "id", m.booking.Id, "total", m.booking.Fare.Total)
		m.state = stateConfirmation
		return m, nil

	case historyMsg:
		if msg.err != nil {
			return m, errWithStateCmd(msg.err, m.historyReturn)
		}
		m.historyList.SetItems(buildHistoryItems(msg.bookings))
		m.state = stateHistory
		return m, nil

	case cancelMsg:
		m.confirmCancel = false
		if msg.err != nil {
			return m, errWithStateCmd(msg.err, m.state)
		}
		m.logger.Info("booking cancelled", "id", msg.booking.Id, "refund", msg.booking.Refund)
		if m.state == stateHistory {
			m.replaceHistoryItem(msg.booking)
			return m, m.setStatus(fmt.Sprintf("Booking %s cancelled, refund ₹%d", msg.booking.Id, msg.booking.Refund), slog.LevelInfo)
		}
		m.booking = msg.booking
		m.state = stateCancelled
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSearch:
		cmd = m.search.update(msg)
	case stateSelectBus:
		m.busList, cmd = m.busList.Update(msg)
	case stateDetails:
		cmd = m.details.update(msg)
	case statePayment:
		cmd = m.checkout.update(msg)
	case stateHistory:
		m.historyList, cmd = m.historyList.Update(msg)
	case stateProcessing:
		m.spinner, cmd = m.spinner.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	body := ""
	switch m.state {
	case stateSearch:
		body = m.searchView()
	case stateLoadingBuses, stateLoadingSeats, stateProcessing:
		body = m.loadingView()
	case stateSelectBus:
		body = m.busList.View()
	case stateSelectSeats:
		body = m.seatsView()
	case stateDetails:
		body = m.detailsView()
	case statePayment:
		body = m.paymentView()
	case stateConfirmation:
		body = m.confirmationView()
	case stateCancelled:
		body = m.cancelledView()
	case stateHistory:
		body = m.historyView()
	case stateError:
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.err.Error()) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	}
	view := header + "\n\n" + body
	if m.status != "" {
		view += "\n\n" + m.statusView()
	}
	return view
}

var wizardSteps = []string{"Search", "Bus", "Seats", "Details", "Payment", "Done"}

func (m appModel) step() int {
	switch m.state {
	case stateSearch, stateLoadingBuses:
		return 0
	case stateSelectBus, stateLoadingSeats:
		return 1
	case stateSelectSeats:
		return 2
	case stateDetails:
		return 3
	case statePayment, stateProcessing:
		return 4
	case stateConfirmation, stateCancelled:
		return 5
	default:
		return -1
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Bus Booking")

	current := m.step()
	var steps []string
	for i, name := range wizardSteps {
		style := lipgloss.NewStyle().Faint(true)
		if i == current {
			style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
		}
		steps = append(steps, style.Render(name))
	}
	progress := strings.Join(steps, hint(" › "))

	sub := []string{}
	if m.query.From != "" && m.state != stateSearch && m.state != stateHistory {
		sub = append(sub, fmt.Sprintf("Route: %s → %s", m.query.From, m.query.To))
		sub = append(sub, fmt.Sprintf("Date: %s", m.query.Date.Format(time.DateOnly)))
	}
	if m.bus.Name != "" && current >= 2 {
		sub = append(sub, fmt.Sprintf("Bus: %s", m.bus.Name))
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}

	hints := "ctrl+c quit • esc back"
	switch m.state {
	case stateSearch:
		hints = "ctrl+c quit • tab next field • enter search • ctrl+r recent routes • ctrl+l nearest station • ctrl+b my bookings"
	case stateSelectBus:
		hints = "ctrl+c quit • esc back • type to filter • enter select"
	case stateSelectSeats:
		hints = "q quit • esc back • arrows move • space toggle seat • c continue"
	case stateDetails:
		hints = "ctrl+c quit • esc back • tab next field • ←/→ change option • enter continue"
	case statePayment:
		hints = "ctrl+c quit • esc back • ↑/↓ method • tab edit details • enter pay"
	case stateProcessing:
		hints = "ctrl+c quit • esc cancel payment"
	case stateConfirmation:
		hints = "q quit • x cancel booking • n new booking • h my bookings"
		if m.booking.Status == model.BookingCancelled {
			hints = "q quit • n new booking • h my bookings"
		}
	case stateCancelled:
		hints = "q quit • n new booking • h my bookings"
	case stateHistory:
		hints = "q quit • esc back • enter open • x cancel booking"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + "  " + progress + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) statusView() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	switch {
	case m.statusLevel >= slog.LevelError:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	case m.statusLevel >= slog.LevelWarn:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	}
	return style.Render(m.status)
}

// setStatus shows text on the status line and schedules it to fade.
func (m *appModel) setStatus(text string, level slog.Level) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusLevel = level
	return statusFadeCmd(m.statusSeq)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancelPay != nil {
			m.cancelPay()
		}
		return m, tea.Quit, true
	case "q":
		if m.state == stateSelectSeats || m.state == stateConfirmation || m.state == stateCancelled || m.state == stateHistory || m.state == stateError {
			return m, tea.Quit, true
		}
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		if m.confirmCancel {
			m.confirmCancel = false
			return m, nil, true
		}
		model, cmd := m.goBack()
		return model, cmd, true
	}

	switch m.state {
	case stateSearch:
		return m.handleSearchKey(msg)
	case stateSelectBus:
		if msg.Type == tea.KeyEnter {
			return m.selectBus()
		}
	case stateSelectSeats:
		return m.handleSeatKey(msg)
	case stateDetails:
		return m.handleDetailsKey(msg)
	case statePayment:
		return m.handlePaymentKey(msg)
	case stateConfirmation, stateCancelled:
		return m.handleConfirmationKey(msg)
	case stateHistory:
		return m.handleHistoryKey(msg)
	}
	return m, nil, false
}

func (m appModel) goBack() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateSelectBus:
		m.state = stateSearch
		return m, m.search.setFocus(m.search.focus)
	case stateSelectSeats:
		m.seats = nil
		m.notice = ""
		m.state = stateSelectBus
	case stateDetails:
		m.openSeatMap()
	case statePayment:
		m.state = stateDetails
		return m, m.details.setFocus(m.details.focus)
	case stateProcessing:
		if m.cancelPay != nil {
			m.cancelPay()
			m.cancelPay = nil
		}
		m.paySeq++
		m.state = statePayment
		m.logger.Info("payment cancelled")
	case stateHistory:
		m.state = m.historyReturn
		if m.state == stateSearch {
			return m, m.search.setFocus(m.search.focus)
		}
	case stateError:
		m.state = m.lastState
	default:
		return m, nil
	}
	return m, nil
}

// reset starts a new booking. Stations and recent routes survive.
func (m appModel) reset() (tea.Model, tea.Cmd) {
	m.query = model.SearchQuery{}
	m.bus = model.Bus{}
	m.booked = nil
	m.seats = nil
	m.notice = ""
	m.draft = booking.Draft{}
	m.details = detailsForm{}
	m.checkout = checkoutForm{}
	m.booking = model.Booking{}
	m.confirmCancel = false
	m.busList.SetItems(nil)
	m.search = newSearchForm(truncateDate(m.now()))
	m.state = stateSearch
	return m, loadRecentRoutesCmd()
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	listPtr.SetFilterText(listPtr.FilterValue() + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := trimLastRune(listPtr.FilterValue())
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectBus:
		return &m.busList
	case stateHistory:
		return &m.historyList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingBuses ||
		m.state == stateLoadingSeats ||
		m.state == stateProcessing
}

func (m appModel) loadingView() string {
	title := "Loading"
	detail := "Fetching data..."
	switch m.state {
	case stateLoadingBuses:
		title = "Searching buses"
	case stateLoadingSeats:
		title = "Loading seat layout"
	case stateProcessing:
		title = fmt.Sprintf("Processing %s payment of ₹%d", payment.MethodLabel(m.checkout.method()), m.draft.Fare().Total)
		detail = "Please do not close the window."
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint(detail))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 8
	if h < 6 {
		h = 6
	}
	m.busList.SetSize(m.width, h)
	m.historyList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func errWithStateCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    returnState,
			returnStateSet: true,
		}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingBuses:
		return stateSearch
	case stateLoadingSeats:
		return stateSelectBus
	case stateProcessing:
		return statePayment
	case stateError:
		return stateSearch
	default:
		return state
	}
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func formatRupees(amount int) string {
	return fmt.Sprintf("₹%d", amount)
}
