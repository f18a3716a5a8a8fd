package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bus-booking-cli/model"
	"bus-booking-cli/service"
	"bus-booking-cli/store"
)

const (
	fieldFrom = iota
	fieldTo
	fieldDate
	searchFieldCount
)

const locateTimeout = 10 * time.Second

type searchForm struct {
	inputs      []textinput.Model
	focus       int
	err         string
	recentIndex int
}

func newSearchForm(today time.Time) searchForm {
	labels := []string{"Ahmedabad", "Mumbai", time.DateOnly}
	f := searchForm{
		inputs:      make([]textinput.Model, searchFieldCount),
		recentIndex: -1,
	}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = labels[i]
		in.CharLimit = 40
		in.Width = 24
		f.inputs[i] = in
	}
	f.inputs[fieldDate].CharLimit = len(time.DateOnly)
	f.inputs[fieldDate].SetValue(today.Format(time.DateOnly))
	f.setFocus(fieldFrom)
	return f
}

func (f *searchForm) setFocus(i int) tea.Cmd {
	f.focus = (i + searchFieldCount) % searchFieldCount
	var cmd tea.Cmd
	for k := range f.inputs {
		if k == f.focus {
			cmd = f.inputs[k].Focus()
		} else {
			f.inputs[k].Blur()
		}
	}
	return cmd
}

func (f *searchForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f searchForm) empty() bool {
	return strings.TrimSpace(f.inputs[fieldFrom].Value()) == "" && strings.TrimSpace(f.inputs[fieldTo].Value()) == ""
}

func (f *searchForm) applyRoute(route model.Route) {
	f.inputs[fieldFrom].SetValue(route.From)
	f.inputs[fieldTo].SetValue(route.To)
	f.err = ""
}

// query reads the form. The date must be today or later.
func (f searchForm) query(today time.Time) (model.SearchQuery, error) {
	q := model.SearchQuery{
		From: strings.TrimSpace(f.inputs[fieldFrom].Value()),
		To:   strings.TrimSpace(f.inputs[fieldTo].Value()),
	}
	if err := service.ValidateQuery(q); err != nil {
		return q, err
	}
	raw := strings.TrimSpace(f.inputs[fieldDate].Value())
	if raw == "" {
		q.Date = today
		return q, nil
	}
	date, err := time.ParseInLocation(time.DateOnly, raw, today.Location())
	if err != nil {
		return q, fmt.Errorf("travel date must look like %s", time.DateOnly)
	}
	if date.Before(today) {
		return q, errors.New("travel date is in the past")
	}
	q.Date = date
	return q, nil
}

// completeStation expands value to a station name when it is a station
// code or an unambiguous name prefix.
func completeStation(stations []model.Station, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if s, ok := service.FindStation(stations, value); ok {
		return s.Name
	}
	match := ""
	for _, s := range stations {
		if strings.HasPrefix(strings.ToLower(s.Name), strings.ToLower(value)) {
			if match != "" {
				return value
			}
			match = s.Name
		}
	}
	if match == "" {
		return value
	}
	return match
}

func (m appModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "down":
		m.completeFocused()
		return m, m.search.setFocus(m.search.focus + 1), true
	case "shift+tab", "up":
		m.completeFocused()
		return m, m.search.setFocus(m.search.focus - 1), true
	case "ctrl+r":
		if len(m.recent) == 0 {
			return m, m.setStatus("No recent routes yet", slog.LevelInfo), true
		}
		m.search.recentIndex = (m.search.recentIndex + 1) % len(m.recent)
		m.search.applyRoute(m.recent[m.search.recentIndex])
		return m, nil, true
	case "ctrl+l":
		if m.locator == nil {
			return m, m.setStatus("Location lookup is disabled", slog.LevelInfo), true
		}
		return m, m.locateCmd(), true
	case "ctrl+b":
		return m.openHistory(stateSearch)
	case "enter":
		m.completeFocused()
		return m.submitSearch()
	}
	return m, nil, false
}

func (m *appModel) completeFocused() {
	if m.search.focus == fieldDate {
		return
	}
	in := &m.search.inputs[m.search.focus]
	if completed := completeStation(m.stations, in.Value()); completed != in.Value() {
		in.SetValue(completed)
	}
}

func (m appModel) submitSearch() (tea.Model, tea.Cmd, bool) {
	query, err := m.search.query(truncateDate(m.now()))
	if err != nil {
		m.search.err = err.Error()
		return m, nil, true
	}
	m.search.err = ""
	m.query = query
	if err := store.RememberRoute(model.Route{From: query.From, To: query.To}); err != nil {
		m.logger.Warn("could not remember route", "error", err)
	}
	m.state = stateLoadingBuses
	return m, tea.Batch(m.fetchBusesCmd(query), m.spinner.Tick), true
}

func (m appModel) searchView() string {
	labels := []string{"From", "To", "Date"}
	labelStyle := lipgloss.NewStyle().Width(6).Bold(true)
	focused := lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Where are you travelling?"))
	b.WriteString("\n\n")
	for i, in := range m.search.inputs {
		marker := "  "
		if i == m.search.focus {
			marker = focused.Render("› ")
		}
		b.WriteString(marker + labelStyle.Render(labels[i]) + in.View() + "\n")
	}

	if m.search.err != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.search.err) + "\n")
	}
	if len(m.stations) > 0 {
		names := make([]string, 0, len(m.stations))
		for _, s := range m.stations {
			if s.Code != "" {
				names = append(names, fmt.Sprintf("%s (%s)", s.Name, s.Code))
			} else {
				names = append(names, s.Name)
			}
		}
		b.WriteString("\n" + hint("Stations: "+strings.Join(names, ", ")))
	}
	if len(m.recent) > 0 {
		var routes []string
		for _, r := range m.recent {
			routes = append(routes, r.From+" → "+r.To)
		}
		b.WriteString("\n" + hint("Recent: "+strings.Join(routes, " • ")))
	}
	return b.String()
}

func (m appModel) fetchStationsCmd() tea.Cmd {
	return func() tea.Msg {
		if cached, fresh, err := store.LoadStationCache(); err == nil && fresh && len(cached) > 0 {
			return stationsMsg{stations: cached}
		}
		stations, err := m.catalog.Stations(context.Background())
		if err == nil && len(stations) > 0 {
			_ = store.SaveStationCache(stations)
		}
		return stationsMsg{stations: stations, err: err}
	}
}

func loadRecentRoutesCmd() tea.Cmd {
	return func() tea.Msg {
		routes, _ := store.LoadRecentRoutes()
		return recentRoutesMsg{routes: routes}
	}
}

func (m appModel) fetchBusesCmd(query model.SearchQuery) tea.Cmd {
	return func() tea.Msg {
		if cached, fresh, err := store.LoadBusCache(query); err == nil && fresh && len(cached) > 0 {
			return busesMsg{buses: cached}
		}
		buses, err := m.catalog.SearchBuses(context.Background(), query)
		if err == nil && len(buses) > 0 {
			_ = store.SaveBusCache(query, buses)
		}
		return busesMsg{buses: buses, err: err}
	}
}

func (m appModel) locateCmd() tea.Cmd {
	locator := m.locator
	stations := m.stations
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), locateTimeout)
		defer cancel()
		loc, err := locator.Locate(ctx)
		if err != nil {
			return locationMsg{err: err}
		}
		station, km, ok := service.NearestStation(loc, stations)
		return locationMsg{station: station, km: km, found: ok}
	}
}
