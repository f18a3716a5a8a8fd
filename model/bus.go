package model

import "time"

type Bus struct {
	Id             string   `json:"id"`
	Name           string   `json:"name"`
	Operator       string   `json:"operator"`
	DepartureTime  string   `json:"departureTime"`
	ArrivalTime    string   `json:"arrivalTime"`
	Duration       string   `json:"duration"`
	Price          int      `json:"price"`
	Rating         float64  `json:"rating"`
	TotalSeats     int      `json:"totalSeats"`
	AvailableSeats int      `json:"availableSeats"`
	Amenities      []string `json:"amenities"`
	BusType        string   `json:"busType"`
}

type SearchQuery struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Date time.Time `json:"date"`
}

type Route struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Station struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
