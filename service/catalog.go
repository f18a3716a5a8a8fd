package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bus-booking-cli/model"
	"bus-booking-cli/seatmap"
)

var (
	ErrInvalidQuery = errors.New("invalid search")
	ErrBusNotFound  = errors.New("bus not found")
)

// Catalog is the source of stations, buses and pre-booked seats.
type Catalog interface {
	Stations(ctx context.Context) ([]model.Station, error)
	SearchBuses(ctx context.Context, query model.SearchQuery) ([]model.Bus, error)
	BookedSeats(ctx context.Context, busID string) ([]string, error)
}

// ValidateQuery checks that a search names two different stations.
func ValidateQuery(query model.SearchQuery) error {
	from := strings.TrimSpace(query.From)
	to := strings.TrimSpace(query.To)
	if from == "" || to == "" {
		return fmt.Errorf("%w: origin and destination are required", ErrInvalidQuery)
	}
	if strings.EqualFold(from, to) {
		return fmt.Errorf("%w: origin and destination must differ", ErrInvalidQuery)
	}
	return nil
}

var defaultStations = []model.Station{
	{Name: "Ahmedabad", Code: "AMD", Latitude: 23.0225, Longitude: 72.5714},
	{Name: "Vadodara", Code: "BDQ", Latitude: 22.3072, Longitude: 73.1812},
	{Name: "Surat", Code: "STV", Latitude: 21.1702, Longitude: 72.8311},
	{Name: "Mumbai", Code: "BOM", Latitude: 19.0760, Longitude: 72.8777},
}

var defaultBuses = []model.Bus{
	{
		Id:             "1",
		Name:           "Volvo AC Sleeper",
		Operator:       "GSRTC",
		DepartureTime:  "10:00 PM",
		ArrivalTime:    "06:00 AM",
		Duration:       "8h",
		Price:          899,
		Rating:         4.5,
		TotalSeats:     40,
		AvailableSeats: 12,
		Amenities:      []string{"AC", "WiFi", "Charging"},
		BusType:        "Sleeper",
	},
	{
		Id:             "2",
		Name:           "AC Seater",
		Operator:       "Patel Travels",
		DepartureTime:  "09:00 PM",
		ArrivalTime:    "05:30 AM",
		Duration:       "8h 30m",
		Price:          699,
		Rating:         4.1,
		TotalSeats:     45,
		AvailableSeats: 18,
		Amenities:      []string{"AC", "Water Bottle"},
		BusType:        "Seater",
	},
}

// MockCatalog serves the built-in sample data. Every search returns the
// same buses and every bus shares the same booked set.
type MockCatalog struct {
	stations []model.Station
	buses    []model.Bus
	booked   []string
}

// NewMockCatalog returns the sample catalog. A nil booked slice uses the
// default booked set.
func NewMockCatalog(booked []string) *MockCatalog {
	if booked == nil {
		booked = seatmap.DefaultBooked()
	}
	return &MockCatalog{
		stations: defaultStations,
		buses:    defaultBuses,
		booked:   booked,
	}
}

func (c *MockCatalog) Stations(ctx context.Context) ([]model.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Station, len(c.stations))
	copy(out, c.stations)
	return out, nil
}

func (c *MockCatalog) SearchBuses(ctx context.Context, query model.SearchQuery) ([]model.Bus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}
	out := make([]model.Bus, len(c.buses))
	for i, bus := range c.buses {
		bus.Amenities = append([]string(nil), bus.Amenities...)
		out[i] = bus
	}
	return out, nil
}

func (c *MockCatalog) BookedSeats(ctx context.Context, busID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, bus := range c.buses {
		if bus.Id == busID {
			return append([]string(nil), c.booked...), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBusNotFound, busID)
}

// FindStation matches a station by name or code, ignoring case.
func FindStation(stations []model.Station, name string) (model.Station, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Station{}, false
	}
	for _, s := range stations {
		if strings.EqualFold(s.Name, name) || strings.EqualFold(s.Code, name) {
			return s, true
		}
	}
	return model.Station{}, false
}
