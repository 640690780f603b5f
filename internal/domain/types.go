package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

type City struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   *string `json:"state,omitempty"`
}

type Route struct {
	ID         int64  `json:"id"`
	FromCityID int64  `json:"fromCityId"`
	ToCityID   int64  `json:"toCityId"`
	FromCity   string `json:"fromCity,omitempty"`
	ToCity     string `json:"toCity,omitempty"`
	DistanceKm *int   `json:"distanceKm,omitempty"`
}

type Bus struct {
	ID         int64  `json:"id"`
	Name       string `json:"busName"`
	Type       string `json:"busType"`
	SeatType   string `json:"seatType"`
	TotalSeats int    `json:"totalSeats"`
}

type Schedule struct {
	ID              int64     `json:"id"`
	BusID           int64     `json:"busId"`
	RouteID         int64     `json:"routeId"`
	DepartureTime   time.Time `json:"departureTime"`
	ArrivalTime     time.Time `json:"arrivalTime"`
	DurationMinutes int       `json:"durationMinutes"`
	PriceCents      int64     `json:"priceCents"`
	Capacity        int       `json:"capacity"`
}

// Availability is capacity minus the seats of Confirmed bookings.
type Availability struct {
	ScheduleID int64 `json:"scheduleId"`
	Capacity   int   `json:"capacity"`
	Booked     int   `json:"booked"`
	Available  int   `json:"available"`
}

func NewAvailability(scheduleID int64, capacity, booked int) Availability {
	return Availability{
		ScheduleID: scheduleID,
		Capacity:   capacity,
		Booked:     booked,
		Available:  capacity - booked,
	}
}

type SearchQuery struct {
	From       string
	To         string
	Date       time.Time
	Passengers int
}

// ScheduleSummary is one search result row.
type ScheduleSummary struct {
	ScheduleID      int64     `json:"scheduleId"`
	BusID           int64     `json:"busId"`
	BusName         string    `json:"name"`
	BusType         string    `json:"type"`
	SeatType        string    `json:"seatType"`
	DepartureTime   time.Time `json:"departureTime"`
	ArrivalTime     time.Time `json:"arrivalTime"`
	DurationMinutes int       `json:"durationMinutes"`
	PriceCents      int64     `json:"priceCents"`
	AvailableSeats  int       `json:"availableSeats"`
	TotalSeats      int       `json:"totalSeats"`
	FromCity        string    `json:"fromCity"`
	ToCity          string    `json:"toCity"`
}

type Booking struct {
	ID             int64         `json:"id"`
	ScheduleID     int64         `json:"scheduleId"`
	PassengerName  string        `json:"passengerName"`
	PassengerEmail string        `json:"passengerEmail"`
	PassengerPhone *string       `json:"passengerPhone,omitempty"`
	Seats          int           `json:"seats"`
	AmountCents    int64         `json:"amountCents"`
	PNR            string        `json:"pnr"`
	Status         BookingStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	CancelledAt    *time.Time    `json:"cancelledAt,omitempty"`
}

// BookingView is a booking joined with the schedule, route and bus fields
// shown to passengers.
type BookingView struct {
	Booking
	DepartureTime time.Time `json:"departureTime"`
	ArrivalTime   time.Time `json:"arrivalTime"`
	FromCity      string    `json:"fromCity"`
	ToCity        string    `json:"toCity"`
	BusName       string    `json:"busName"`
}

type NewSchedule struct {
	BusID           int64
	FromCity        string
	ToCity          string
	DepartureTime   time.Time
	ArrivalTime     time.Time
	DurationMinutes int
	PriceCents      int64
}

type NewRoute struct {
	From       City
	To         City
	DistanceKm *int
}

type ContactStatus string

const (
	ContactNew     ContactStatus = "new"
	ContactReplied ContactStatus = "replied"
)

type ContactMessage struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Message    string        `json:"message"`
	Status     ContactStatus `json:"status"`
	AdminReply *string       `json:"adminReply,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	RepliedAt  *time.Time    `json:"repliedAt,omitempty"`
}

type Feedback struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// FormatDuration renders minutes as "Xh Ym", empty for zero.
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
