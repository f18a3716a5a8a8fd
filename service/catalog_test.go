package service

import (
	"context"
	"errors"
	"testing"

	"bus-booking-cli/model"
	"bus-booking-cli/seatmap"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   model.SearchQuery
		wantErr bool
	}{
		{"ok", model.SearchQuery{From: "Ahmedabad", To: "Mumbai"}, false},
		{"missing from", model.SearchQuery{To: "Mumbai"}, true},
		{"missing to", model.SearchQuery{From: "Surat", To: "  "}, true},
		{"same station", model.SearchQuery{From: "Surat", To: "SURAT"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}

func TestMockCatalog_SearchBuses(t *testing.T) {
	catalog := NewMockCatalog(nil)

	buses, err := catalog.SearchBuses(context.Background(), model.SearchQuery{From: "Ahmedabad", To: "Mumbai"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(buses) != 2 || buses[0].Name != "Volvo AC Sleeper" || buses[1].Operator != "Patel Travels" {
		t.Fatalf("unexpected buses: %+v", buses)
	}

	buses[0].Amenities[0] = "changed"
	again, _ := catalog.SearchBuses(context.Background(), model.SearchQuery{From: "Surat", To: "Mumbai"})
	if again[0].Amenities[0] != "AC" {
		t.Fatal("mock catalog must hand out copies")
	}

	if _, err := catalog.SearchBuses(context.Background(), model.SearchQuery{}); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestMockCatalog_BookedSeats(t *testing.T) {
	catalog := NewMockCatalog(nil)

	booked, err := catalog.BookedSeats(context.Background(), "1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(booked) != len(seatmap.DefaultBooked()) {
		t.Fatalf("unexpected booked set: %v", booked)
	}
	if _, err := catalog.BookedSeats(context.Background(), "99"); !errors.Is(err, ErrBusNotFound) {
		t.Fatalf("expected ErrBusNotFound, got %v", err)
	}

	custom := NewMockCatalog([]string{"U1"})
	booked, _ = custom.BookedSeats(context.Background(), "2")
	if len(booked) != 1 || booked[0] != "U1" {
		t.Fatalf("unexpected custom booked set: %v", booked)
	}
}

func TestMockCatalog_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockCatalog(nil).Stations(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFindStation(t *testing.T) {
	stations, _ := NewMockCatalog(nil).Stations(context.Background())

	if s, ok := FindStation(stations, "bom"); !ok || s.Name != "Mumbai" {
		t.Fatalf("expected Mumbai by code, got %+v %v", s, ok)
	}
	if s, ok := FindStation(stations, " vadodara "); !ok || s.Code != "BDQ" {
		t.Fatalf("expected Vadodara by name, got %+v %v", s, ok)
	}
	if _, ok := FindStation(stations, "Pune"); ok {
		t.Fatal("expected no match for Pune")
	}
}
