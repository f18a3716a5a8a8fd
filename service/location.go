package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bus-booking-cli/model"
)

const (
	ipAPIEndpoint   = "https://ipapi.co/json/"
	ipWhoIsEndpoint = "https://ipwho.is/"
	ipInfoEndpoint  = "https://ipinfo.io/json"
	errorSnippetMax = 120
	earthRadiusKM   = 6371.0
)

// UserLocation is the approximate position of the user.
type UserLocation struct {
	Latitude  float64
	Longitude float64
	City      string
	Region    string
	Source    string
}

type locationProvider struct {
	name     string
	endpoint string
	parse    func([]byte) (UserLocation, error)
}

var defaultLocationProviders = []locationProvider{
	{name: "ipapi", endpoint: ipAPIEndpoint, parse: parseIPAPI},
	{name: "ipwhois", endpoint: ipWhoIsEndpoint, parse: parseIPWhoIs},
	{name: "ipinfo", endpoint: ipInfoEndpoint, parse: parseIPInfo},
}

// Locator resolves the user's position through IP geolocation, trying each
// provider in turn.
type Locator struct {
	httpClient *http.Client
	providers  []locationProvider
	logger     *slog.Logger
}

func NewLocator(httpClient *http.Client, logger *slog.Logger) *Locator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Locator{
		httpClient: httpClient,
		providers:  defaultLocationProviders,
		logger:     logger,
	}
}

// Locate returns the first location any provider can resolve.
func (l *Locator) Locate(ctx context.Context) (UserLocation, error) {
	if len(l.providers) == 0 {
		return UserLocation{}, errors.New("no location providers configured")
	}

	var failures []string
	for _, provider := range l.providers {
		loc, err := l.fromProvider(ctx, provider)
		if err == nil {
			return loc, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return UserLocation{}, err
		}
		l.logger.Debug("location provider failed", "provider", provider.name, "error", err)
		failures = append(failures, fmt.Sprintf("%s: %s", provider.name, err.Error()))
	}
	return UserLocation{}, fmt.Errorf("all location providers failed (%s)", strings.Join(failures, " | "))
}

func (l *Locator) fromProvider(ctx context.Context, provider locationProvider) (UserLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.endpoint, nil)
	if err != nil {
		return UserLocation{}, fmt.Errorf("create location request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	res, err := l.httpClient.Do(req)
	if err != nil {
		return UserLocation{}, fmt.Errorf("location request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		if msg := compactSnippet(string(snippet)); msg != "" {
			return UserLocation{}, fmt.Errorf("%s: %s", res.Status, msg)
		}
		return UserLocation{}, errors.New(res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return UserLocation{}, fmt.Errorf("read location response: %w", err)
	}
	loc, err := provider.parse(body)
	if err != nil {
		return UserLocation{}, err
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return UserLocation{}, errors.New("provider returned empty coordinates")
	}
	loc.Source = provider.name
	return loc, nil
}

// NearestStation picks the station closest to loc. Stations without
// coordinates are skipped.
func NearestStation(loc UserLocation, stations []model.Station) (model.Station, float64, bool) {
	var best model.Station
	bestKM := math.Inf(1)
	for _, s := range stations {
		if s.Latitude == 0 && s.Longitude == 0 {
			continue
		}
		if km := haversineKM(loc.Latitude, loc.Longitude, s.Latitude, s.Longitude); km < bestKM {
			best, bestKM = s, km
		}
	}
	if math.IsInf(bestKM, 1) {
		return model.Station{}, 0, false
	}
	return best, bestKM, true
}

func haversineKM(lat1 float64, lon1 float64, lat2 float64, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func parseIPAPI(body []byte) (UserLocation, error) {
	var payload struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		City      string  `json:"city"`
		Region    string  `json:"region"`
		Error     bool    `json:"error"`
		Reason    string  `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return UserLocation{}, fmt.Errorf("decode location response: %w", err)
	}
	if payload.Error {
		return UserLocation{}, errors.New(orDefault(payload.Reason, "unknown error"))
	}
	return UserLocation{Latitude: payload.Latitude, Longitude: payload.Longitude, City: payload.City, Region: payload.Region}, nil
}

func parseIPWhoIs(body []byte) (UserLocation, error) {
	var payload struct {
		Success   bool    `json:"success"`
		Message   string  `json:"message"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		City      string  `json:"city"`
		Region    string  `json:"region"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return UserLocation{}, fmt.Errorf("decode location response: %w", err)
	}
	if !payload.Success {
		return UserLocation{}, errors.New(orDefault(payload.Message, "provider returned unsuccessful response"))
	}
	return UserLocation{Latitude: payload.Latitude, Longitude: payload.Longitude, City: payload.City, Region: payload.Region}, nil
}

func parseIPInfo(body []byte) (UserLocation, error) {
	var payload struct {
		Loc    string `json:"loc"`
		City   string `json:"city"`
		Region string `json:"region"`
		Bogon  bool   `json:"bogon"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return UserLocation{}, fmt.Errorf("decode location response: %w", err)
	}
	if payload.Bogon {
		return UserLocation{}, errors.New("bogon IP")
	}
	lat, lng, ok := strings.Cut(strings.TrimSpace(payload.Loc), ",")
	if !ok {
		return UserLocation{}, errors.New("provider did not return valid loc")
	}
	latitude, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return UserLocation{}, fmt.Errorf("parse latitude: %w", err)
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return UserLocation{}, fmt.Errorf("parse longitude: %w", err)
	}
	return UserLocation{Latitude: latitude, Longitude: longitude, City: payload.City, Region: payload.Region}, nil
}

func compactSnippet(raw string) string {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)
	if text == "" || strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > errorSnippetMax {
		text = string(runes[:errorSnippetMax])
	}
	return text
}

func orDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
