package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bus-booking-cli/booking"
	"bus-booking-cli/config"
	"bus-booking-cli/model"
	"bus-booking-cli/store"
)

func setTestEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvCatalogURL, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvPaymentDelay, "")
	t.Setenv(config.EnvMaxSeats, "")
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd("1.2.3", "abc123")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	setTestEnv(t)
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if strings.TrimSpace(out) != "busbook 1.2.3 (abc123)" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestBuses(t *testing.T) {
	setTestEnv(t)
	date := time.Now().AddDate(0, 0, 1).Format(time.DateOnly)

	out, err := run(t, "buses", "--from", "amd", "--to", "BOM", "--date", date)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, want := range []string{"Ahmedabad → Mumbai", "Volvo AC Sleeper", "Patel Travels", "₹899"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q:\n%s", want, out)
		}
	}

	routes, err := store.LoadRecentRoutes()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(routes) != 1 || routes[0].From != "Ahmedabad" {
		t.Fatalf("unexpected routes %+v", routes)
	}
}

func TestBuses_InvalidInput(t *testing.T) {
	setTestEnv(t)

	if _, err := run(t, "buses", "--from", "Surat", "--to", "surat"); err == nil {
		t.Fatal("expected an error for identical stations")
	}
	if _, err := run(t, "buses", "--from", "Surat", "--to", "Mumbai", "--date", "2001-01-01"); err == nil || !strings.Contains(err.Error(), "past") {
		t.Fatalf("expected a past date error, got %v", err)
	}
	if _, err := run(t, "buses", "--from", "Surat", "--to", "Mumbai", "--log-level", "loud"); err == nil {
		t.Fatal("expected an error for an unknown log level")
	}
}

func TestParseTravelDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	got, err := parseTravelDate("", now)
	if err != nil || !got.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected today, got %v (%v)", got, err)
	}
	if _, err := parseTravelDate("2026-03-10", now); err != nil {
		t.Fatalf("expected today to be accepted, got %v", err)
	}
	if _, err := parseTravelDate("10-03-2026", now); err == nil {
		t.Fatal("expected a format error")
	}
}

func TestSeats(t *testing.T) {
	setTestEnv(t)

	out, err := run(t, "seats", "1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, want := range []string{"L2", "U20", "29 available • 11 booked • 40 total", "Confirmation chance 40%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "seats", "99"); err == nil {
		t.Fatal("expected an error for an unknown bus")
	}
}

func TestSeats_ConfigLayout(t *testing.T) {
	root := setTestEnv(t)
	path := filepath.Join(root, "busbook.yaml")
	cfg := `booking:
  layout:
    rows: 2
    lower_per_row: 1
    upper_per_row: 1
    lower_price: 800
    upper_price: 700
    booked: [L1]
`
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	out, err := run(t, "seats", "2", "--config", path)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.Contains(out, "3 available • 1 booked • 4 total") {
		t.Fatalf("unexpected layout:\n%s", out)
	}
	if !strings.Contains(out, "₹800") {
		t.Fatalf("expected configured prices:\n%s", out)
	}
}

func saveTestBooking(t *testing.T) model.Booking {
	t.Helper()
	b := model.Booking{
		Id:         "BUSAAAA11112",
		Bus:        model.Bus{Id: "1", Name: "Volvo AC Sleeper", Operator: "GSRTC"},
		Route:      model.Route{From: "Ahmedabad", To: "Mumbai"},
		TravelDate: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Seats:      []model.Seat{{Id: "L2", Number: "L2", Type: model.SeatLower, Price: 1200}},
		Passengers: []model.Passenger{{Name: "Asha Patel", Age: 29, Gender: model.GenderFemale, SeatNumber: "L2", Meal: model.MealNone}},
		Fare:       model.Fare{Subtotal: 1200, GST: 60, Total: 1260},
		Status:     model.BookingConfirmed,
		BookedAt:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	if err := store.SaveBooking(b); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	return b
}

func TestHistory(t *testing.T) {
	setTestEnv(t)

	out, err := run(t, "history")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.Contains(out, "No bookings yet.") {
		t.Fatalf("unexpected output %q", out)
	}

	b := saveTestBooking(t)
	out, err = run(t, "history")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, want := range []string{b.Id, "Ahmedabad → Mumbai", "₹1260", "confirmed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestCancel(t *testing.T) {
	setTestEnv(t)
	b := saveTestBooking(t)

	out, err := run(t, "cancel", strings.ToLower(b.Id), "--yes")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.Contains(out, "₹1071 will be refunded") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	stored, err := store.FindBooking(b.Id)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if stored.Status != model.BookingCancelled || stored.Refund != 1071 {
		t.Fatalf("expected a cancelled booking, got %+v", stored)
	}

	_, err = run(t, "cancel", b.Id, "--yes")
	if !errors.Is(err, booking.ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestCancel_NotFound(t *testing.T) {
	setTestEnv(t)
	_, err := run(t, "cancel", "BUSNOPE", "--yes")
	if !errors.Is(err, store.ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestFanoutHandler(t *testing.T) {
	var info, debug bytes.Buffer
	handler := fanoutHandler{
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	logger := slog.New(handler).With("component", "test")

	logger.Debug("only debug")
	logger.Info("both")

	if strings.Contains(info.String(), "only debug") {
		t.Fatal("expected the info handler to skip debug records")
	}
	if !strings.Contains(info.String(), "both") || !strings.Contains(debug.String(), "only debug") {
		t.Fatalf("unexpected output:\ninfo=%s\ndebug=%s", info.String(), debug.String())
	}
	if !strings.Contains(debug.String(), "component=test") {
		t.Fatal("expected derived attrs on every handler")
	}
}

func TestLogFile(t *testing.T) {
	root := setTestEnv(t)
	path := filepath.Join(root, "busbook.log")

	if _, err := run(t, "seats", "1", "--log-file", path, "--log-level", "debug"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected the log file to be created, got %v", err)
	}
}
