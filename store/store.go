package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bus-booking-cli/booking"
	"bus-booking-cli/model"
)

const (
	appDir          = "bus-booking-cli"
	stationCacheTTL = 7 * 24 * time.Hour
	busCacheTTL     = 10 * time.Minute
	maxRecentRoutes = 8
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrAlreadyCancelled = booking.ErrAlreadyCancelled
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

type routeHistory struct {
	Routes []model.Route `json:"routes"`
}

type bookingHistory struct {
	Bookings []model.Booking `json:"bookings"`
}

func LoadStationCache() ([]model.Station, bool, error) {
	path, err := cachePath("stations.json")
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Station](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= stationCacheTTL, nil
}

func SaveStationCache(stations []model.Station) error {
	path, err := cachePath("stations.json")
	if err != nil {
		return err
	}
	return saveCache(path, stations)
}

// LoadBusCache returns the cached search results for a route and day.
func LoadBusCache(query model.SearchQuery) ([]model.Bus, bool, error) {
	path, err := cachePath(busCacheName(query))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Bus](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= busCacheTTL, nil
}

func SaveBusCache(query model.SearchQuery, buses []model.Bus) error {
	path, err := cachePath(busCacheName(query))
	if err != nil {
		return err
	}
	return saveCache(path, buses)
}

func busCacheName(query model.SearchQuery) string {
	date := "any"
	if !query.Date.IsZero() {
		date = query.Date.Format(time.DateOnly)
	}
	return fmt.Sprintf("buses_%s_%s_%s.json", fileKey(query.From), fileKey(query.To), date)
}

func fileKey(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, value)
}

func LoadRecentRoutes() ([]model.Route, error) {
	path, err := configPath("routes.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history routeHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.New("invalid route history format")
	}
	return history.Routes, nil
}

// RememberRoute moves route to the front of the recent list.
func RememberRoute(route model.Route) error {
	route.From = strings.TrimSpace(route.From)
	route.To = strings.TrimSpace(route.To)
	if route.From == "" || route.To == "" {
		return errors.New("route needs both stations")
	}

	history, _ := LoadRecentRoutes()
	next := []model.Route{route}
	for _, existing := range history {
		if stringsEqualFold(existing.From, route.From) && stringsEqualFold(existing.To, route.To) {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentRoutes {
			break
		}
	}

	path, err := configPath("routes.json")
	if err != nil {
		return err
	}
	return writeJSON(path, routeHistory{Routes: next})
}

// LoadBookings returns every stored booking, newest first.
func LoadBookings() ([]model.Booking, error) {
	path, err := configPath("bookings.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history bookingHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.New("invalid booking history format")
	}
	sort.SliceStable(history.Bookings, func(i, j int) bool {
		return history.Bookings[i].BookedAt.After(history.Bookings[j].BookedAt)
	})
	return history.Bookings, nil
}

// SaveBooking stores b, replacing an earlier entry with the same id.
func SaveBooking(b model.Booking) error {
	if strings.TrimSpace(b.Id) == "" {
		return errors.New("booking id is required")
	}
	bookings, err := LoadBookings()
	if err != nil {
		return err
	}

	next := []model.Booking{b}
	for _, existing := range bookings {
		if existing.Id != b.Id {
			next = append(next, existing)
		}
	}
	return saveBookings(next)
}

func FindBooking(id string) (model.Booking, error) {
	bookings, err := LoadBookings()
	if err != nil {
		return model.Booking{}, err
	}
	for _, b := range bookings {
		if strings.EqualFold(b.Id, strings.TrimSpace(id)) {
			return b, nil
		}
	}
	return model.Booking{}, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
}

// CancelBooking marks a stored booking cancelled and returns the updated
// record.
func CancelBooking(id string, now time.Time) (model.Booking, error) {
	bookings, err := LoadBookings()
	if err != nil {
		return model.Booking{}, err
	}

	id = strings.TrimSpace(id)
	for i := range bookings {
		if !strings.EqualFold(bookings[i].Id, id) {
			continue
		}
		cancelled, err := booking.Cancel(bookings[i], now)
		if err != nil {
			return cancelled, err
		}
		bookings[i] = cancelled
		if err := saveBookings(bookings); err != nil {
			return model.Booking{}, err
		}
		return cancelled, nil
	}
	return model.Booking{}, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
}

func saveBookings(bookings []model.Booking) error {
	path, err := configPath("bookings.json")
	if err != nil {
		return err
	}
	return writeJSON(path, bookingHistory{Bookings: bookings})
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	return writeJSON(path, cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	})
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func stringsEqualFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
