package model

type SeatType string

const (
	SeatLower SeatType = "lower"
	SeatUpper SeatType = "upper"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatBooked    SeatStatus = "booked"
	SeatSelected  SeatStatus = "selected"
)

// Seat is a single berth. Id and Number are identical; Row and Column
// locate the berth inside its deck and start at 1.
type Seat struct {
	Id     string     `json:"id"`
	Number string     `json:"number"`
	Type   SeatType   `json:"type"`
	Status SeatStatus `json:"status"`
	Price  int        `json:"price"`
	Row    int        `json:"row"`
	Column int        `json:"column"`
}
