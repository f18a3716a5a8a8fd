package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/exp/maps"

	"bus-booking-cli/model"
)

const (
	defaultUserAgent   = "bus-booking-cli"
	defaultTimeout     = 12 * time.Second
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
)

// Client reads the catalog from a remote booking backend.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	logger      *slog.Logger
}

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "catalog api error"
	}
	return fmt.Sprintf("catalog api error: %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// NewClient creates a client for the backend at baseURL. If httpClient is
// nil, a default client is used.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   defaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
		logger:      logger,
	}
}

// Stations lists boarding points. The backend may answer with station
// objects or with a plain list of names.
func (c *Client) Stations(ctx context.Context) ([]model.Station, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, c.baseURL+"/stations", &raw); err != nil {
		return nil, err
	}

	var stations []model.Station
	if err := json.Unmarshal(raw, &stations); err == nil {
		return stations, nil
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("decode stations: %w", err)
	}
	stations = make([]model.Station, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			stations = append(stations, model.Station{Name: name})
		}
	}
	return stations, nil
}

// SearchBuses lists the buses running on the query's route and date.
func (c *Client) SearchBuses(ctx context.Context, query model.SearchQuery) ([]model.Bus, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("from", strings.TrimSpace(query.From))
	params.Set("to", strings.TrimSpace(query.To))
	if !query.Date.IsZero() {
		params.Set("date", query.Date.Format(time.DateOnly))
	}

	var buses []model.Bus
	if err := c.getJSON(ctx, c.baseURL+"/buses?"+params.Encode(), &buses); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return buses, nil
}

// BookedSeats returns the ids of seats already sold on a bus, sorted. The
// backend answers with a seat → booked map.
func (c *Client) BookedSeats(ctx context.Context, busID string) ([]string, error) {
	if strings.TrimSpace(busID) == "" {
		return nil, errors.New("bus id is required")
	}
	endpoint := c.baseURL + "/seats?bus=" + url.QueryEscape(busID)

	var seats map[string]bool
	if err := c.getJSON(ctx, endpoint, &seats); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrBusNotFound, busID)
		}
		return nil, err
	}

	booked := make([]string, 0, len(seats))
	for _, id := range maps.Keys(seats) {
		if seats[id] {
			booked = append(booked, id)
		}
	}
	sort.Strings(booked)
	return booked, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				c.logger.Warn("catalog request failed, retrying", "endpoint", endpoint, "attempt", attempt, "error", err)
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
			_ = res.Body.Close()

			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Endpoint:   endpoint,
				Body:       strings.TrimSpace(string(snippet)),
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				c.logger.Warn("catalog returned retryable status", "endpoint", endpoint, "status", res.StatusCode, "attempt", attempt)
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		c.logger.Debug("catalog request ok", "endpoint", endpoint, "attempt", attempt)
		return nil
	}

	return errors.New("request failed after retries")
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.retryDelay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryDelay doubles retryBase per attempt, capped at retryCap.
func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	limit := c.retryCap
	if limit <= 0 {
		limit = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= limit/2 {
			return limit
		}
		delay *= 2
	}
	return min(delay, limit)
}
