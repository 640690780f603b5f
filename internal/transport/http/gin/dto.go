package httpgin

import (
	"math"
	"strconv"
	"time"

	"github.com/kirinyoku/busgo/internal/domain"
)

type CreateBookingRequest struct {
	ScheduleID     int64   `json:"scheduleId"`
	PassengerName  string  `json:"passengerName"`
	PassengerEmail string  `json:"passengerEmail"`
	PassengerPhone *string `json:"passengerPhone"`
	Seats          int     `json:"seats"`
	Amount         float64 `json:"amount"`
}

type CancelBookingRequest struct {
	Email string `json:"email" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SaveRouteRequest struct {
	FromCity    string  `json:"fromCity"`
	ToCity      string  `json:"toCity"`
	DistanceKm  *int    `json:"distanceKm"`
	FromCountry string  `json:"fromCountry"`
	FromState   *string `json:"fromState"`
}

type CreateBusRequest struct {
	BusName    string `json:"busName"`
	BusType    string `json:"busType"`
	SeatType   string `json:"seatType"`
	TotalSeats int    `json:"totalSeats"`
}

type CreateScheduleRequest struct {
	BusID           int64   `json:"busId"`
	FromCity        string  `json:"fromCity"`
	ToCity          string  `json:"toCity"`
	DepartureTime   string  `json:"departureTime"`
	ArrivalTime     string  `json:"arrivalTime"`
	DurationMinutes *int    `json:"durationMinutes"`
	Price           float64 `json:"price"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type ReplyRequest struct {
	Reply string `json:"reply"`
}

type FeedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CapacityErrorResponse struct {
	Error          string `json:"error"`
	AvailableSeats int    `json:"availableSeats"`
}

type UnauthorizedResponse struct {
	Error         string `json:"error"`
	RequiresLogin bool   `json:"requiresLogin"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateBookingResponse struct {
	Message   string `json:"message"`
	PNR       string `json:"pnr"`
	BookingID int64  `json:"bookingId"`
}

type CancelBookingResponse struct {
	Message string               `json:"message"`
	PNR     string               `json:"pnr"`
	Status  domain.BookingStatus `json:"status"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type CreateBusResponse struct {
	Message string `json:"message"`
	BusID   int64  `json:"busId"`
}

type CreateScheduleResponse struct {
	Message    string `json:"message"`
	ScheduleID int64  `json:"scheduleId"`
}

type SearchResult struct {
	ID              string    `json:"id"`
	BusID           int64     `json:"busId"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	SeatType        string    `json:"seatType"`
	DepartureTime   time.Time `json:"departureTime"`
	ArrivalTime     time.Time `json:"arrivalTime"`
	Duration        string    `json:"duration"`
	DurationMinutes int       `json:"durationMinutes"`
	Price           float64   `json:"price"`
	AvailableSeats  int       `json:"availableSeats"`
	TotalSeats      int       `json:"totalSeats"`
	FromCity        string    `json:"fromCity"`
	ToCity          string    `json:"toCity"`
}

type SearchResponse struct {
	Buses []SearchResult `json:"buses"`
}

type ScheduleResponse struct {
	domain.Schedule
	Price    float64 `json:"price"`
	Duration string  `json:"duration"`
}

type BookingResponse struct {
	domain.BookingView
	Amount float64 `json:"amount"`
}

type BookingsResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}

func toSearchResults(rows []domain.ScheduleSummary) []SearchResult {
	out := make([]SearchResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, SearchResult{
			ID:              strconv.FormatInt(r.ScheduleID, 10),
			BusID:           r.BusID,
			Name:            r.BusName,
			Type:            r.BusType,
			SeatType:        r.SeatType,
			DepartureTime:   r.DepartureTime,
			ArrivalTime:     r.ArrivalTime,
			Duration:        domain.FormatDuration(r.DurationMinutes),
			DurationMinutes: r.DurationMinutes,
			Price:           fromCents(r.PriceCents),
			AvailableSeats:  r.AvailableSeats,
			TotalSeats:      r.TotalSeats,
			FromCity:        r.FromCity,
			ToCity:          r.ToCity,
		})
	}
	return out
}

func toBookingResponse(v domain.BookingView) BookingResponse {
	return BookingResponse{BookingView: v, Amount: fromCents(v.AmountCents)}
}

func toBookingsResponse(views []domain.BookingView) BookingsResponse {
	out := make([]BookingResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toBookingResponse(v))
	}
	return BookingsResponse{Bookings: out}
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
