// Package config loads bus-booking-cli settings.
//
// Settings start from Default, are overlaid by an optional YAML file named by
// the --config flag or the BUSBOOK_CONFIG environment variable, and finally
// by the BUSBOOK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bus-booking-cli/booking"
	"bus-booking-cli/payment"
	"bus-booking-cli/seatmap"
)

const (
	EnvConfig       = "BUSBOOK_CONFIG"
	EnvCatalogURL   = "BUSBOOK_CATALOG_URL"
	EnvLogLevel     = "BUSBOOK_LOG_LEVEL"
	EnvPaymentDelay = "BUSBOOK_PAYMENT_DELAY"
	EnvMaxSeats     = "BUSBOOK_MAX_SEATS"
)

// Config is the full application configuration.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog"`
	Booking  BookingConfig  `yaml:"booking"`
	Payment  PaymentConfig  `yaml:"payment"`
	Log      LogConfig      `yaml:"log"`
	Location LocationConfig `yaml:"location"`
}

// CatalogConfig selects where buses and seats come from.
type CatalogConfig struct {
	// URL of a remote catalog API. Empty uses the built-in sample data.
	URL string `yaml:"url"`

	// Timeout per HTTP request, as a Go duration string.
	// Default: 12s
	Timeout string `yaml:"timeout"`
}

// BookingConfig configures the seat layout and fare rules.
type BookingConfig struct {
	// MaxSeats caps how many seats one booking may hold. 0 means no cap.
	MaxSeats int `yaml:"max_seats"`

	// GSTPercent is applied to seats plus meals.
	// Default: 5
	GSTPercent int `yaml:"gst_percent"`

	Layout LayoutConfig `yaml:"layout"`
}

type LayoutConfig struct {
	Rows        int      `yaml:"rows"`
	LowerPerRow int      `yaml:"lower_per_row"`
	UpperPerRow int      `yaml:"upper_per_row"`
	LowerPrice  int      `yaml:"lower_price"`
	UpperPrice  int      `yaml:"upper_price"`
	Booked      []string `yaml:"booked"`
}

type PaymentConfig struct {
	// Delay is how long the simulated gateway takes.
	// Default: 2s
	Delay string `yaml:"delay"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// File receives JSON log records when set.
	File string `yaml:"file"`
}

type LocationConfig struct {
	// Enabled allows the wizard to look up the nearest boarding station
	// through IP geolocation.
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	spec := seatmap.DefaultSpec()
	return &Config{
		Catalog: CatalogConfig{
			Timeout: "12s",
		},
		Booking: BookingConfig{
			GSTPercent: booking.DefaultGSTPercent,
			Layout: LayoutConfig{
				Rows:        spec.Rows,
				LowerPerRow: spec.LowerPerRow,
				UpperPerRow: spec.UpperPerRow,
				LowerPrice:  spec.LowerPrice,
				UpperPrice:  spec.UpperPrice,
				Booked:      spec.Booked,
			},
		},
		Payment: PaymentConfig{
			Delay: payment.DefaultDelay.String(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Location: LocationConfig{
			Enabled: true,
		},
	}
}

// Load builds the configuration. path wins over BUSBOOK_CONFIG; when both
// are empty only defaults and environment overrides apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvCatalogURL); ok {
		c.Catalog.URL = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPaymentDelay); v != "" {
		c.Payment.Delay = v
	}
	if v := os.Getenv(EnvMaxSeats); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxSeats, err)
		}
		c.Booking.MaxSeats = n
	}
	return nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.PaymentDelay(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.CatalogTimeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Booking.MaxSeats < 0 {
		errs = append(errs, fmt.Errorf("booking.max_seats must not be negative, got %d", c.Booking.MaxSeats))
	}
	if c.Booking.GSTPercent < 0 {
		errs = append(errs, fmt.Errorf("booking.gst_percent must not be negative, got %d", c.Booking.GSTPercent))
	}

	layout := c.Booking.Layout
	for name, v := range map[string]int{
		"rows":          layout.Rows,
		"lower_per_row": layout.LowerPerRow,
		"upper_per_row": layout.UpperPerRow,
		"lower_price":   layout.LowerPrice,
		"upper_price":   layout.UpperPrice,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("booking.layout.%s must not be negative, got %d", name, v))
		}
	}
	if layout.Rows == 0 || layout.LowerPerRow+layout.UpperPerRow == 0 {
		errs = append(errs, errors.New("booking.layout must contain at least one seat"))
	}

	known := make(map[string]bool)
	for _, seat := range seatmap.Generate(c.LayoutSpec()) {
		known[seat.Id] = true
	}
	for _, id := range layout.Booked {
		if !known[strings.ToUpper(strings.TrimSpace(id))] {
			errs = append(errs, fmt.Errorf("booking.layout.booked: seat %q is not in the layout", id))
		}
	}

	return errors.Join(errs...)
}

// LayoutSpec converts the layout section into a seat map spec.
func (c *Config) LayoutSpec() seatmap.LayoutSpec {
	l := c.Booking.Layout
	return seatmap.LayoutSpec{
		Rows:        l.Rows,
		LowerPerRow: l.LowerPerRow,
		UpperPerRow: l.UpperPerRow,
		LowerPrice:  l.LowerPrice,
		UpperPrice:  l.UpperPrice,
		Booked:      append([]string(nil), l.Booked...),
		MaxSelected: c.Booking.MaxSeats,
	}
}

func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return level, nil
}

func (c *Config) PaymentDelay() (time.Duration, error) {
	return parseDuration("payment.delay", c.Payment.Delay)
}

func (c *Config) CatalogTimeout() (time.Duration, error) {
	return parseDuration("catalog.timeout", c.Catalog.Timeout)
}

func parseDuration(field string, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", field, value)
	}
	return d, nil
}
