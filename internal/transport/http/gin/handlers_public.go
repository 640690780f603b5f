package httpgin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/service"
	"github.com/kirinyoku/busgo/internal/service/booking"
)

// @Summary  List cities
// @Success  200  {object}  map[string][]domain.City
// @Router   /cities [get]
func handleListCities(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		cities, err := svcs.Query.ListCities(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, gin.H{"cities": cities}, "public, max-age=60", true)
	}
}

// @Summary  Search schedules by route and day
// @Param    from        query  string  true   "departure city"
// @Param    to          query  string  true   "arrival city"
// @Param    date        query  string  true   "YYYY-MM-DD"
// @Param    passengers  query  int     false  "seats needed, default 1"
// @Success  200  {object}  SearchResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /schedules/search [get]
func handleSearch(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		from := c.Query("from")
		to := c.Query("to")
		dateStr := strings.TrimSpace(c.Query("date"))

		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" || dateStr == "" {
			badRequest(c, "from, to and date are required")
			return
		}

		date, err := time.Parse(time.DateOnly, dateStr)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}

		passengers := 1
		if s := c.Query("passengers"); s != "" {
			passengers, err = strconv.Atoi(s)
			if err != nil || passengers < 1 {
				badRequest(c, "passengers must be a positive integer")
				return
			}
		}

		rows, err := svcs.Query.Search(c.Request.Context(), domain.SearchQuery{
			From:       from,
			To:         to,
			Date:       date,
			Passengers: passengers,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, SearchResponse{Buses: toSearchResults(rows)}, "public, max-age=15", true)
	}
}

// @Summary  Get schedule
// @Param    id  path  int  true  "Schedule ID"
// @Success  200  {object}  ScheduleResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /schedules/{id} [get]
func handleGetSchedule(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		s, err := svcs.Query.GetSchedule(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, ScheduleResponse{
			Schedule: *s,
			Price:    fromCents(s.PriceCents),
			Duration: domain.FormatDuration(s.DurationMinutes),
		}, "public, max-age=60", true)
	}
}

// @Summary  Get seat availability
// @Param    id  path  int  true  "Schedule ID"
// @Success  200  {object}  domain.Availability
// @Failure  404  {object}  ErrorResponse
// @Router   /schedules/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		a, err := svcs.Query.Availability(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, a, "public, max-age=5", true)
	}
}

// @Summary  Create booking (idempotent)
// @Param    Idempotency-Key  header  string  false  "replay key"
// @Param    req  body  CreateBookingRequest  true  "payload"
// @Success  201  {object}  CreateBookingResponse
// @Failure  400  {object}  CapacityErrorResponse  "validation, unknown schedule or not enough seats"
// @Failure  409  {object}  ErrorResponse  "idempotency key in progress"
// @Failure  422  {object}  ErrorResponse  "idempotency key reused with another request"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Failure  500  {object}  ErrorResponse
// @Router   /bookings [post]
func handleCreateBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}

		b, err := svcs.Booking.Create(c.Request.Context(), booking.CreateInput{
			ScheduleID:     req.ScheduleID,
			PassengerName:  req.PassengerName,
			PassengerEmail: req.PassengerEmail,
			PassengerPhone: req.PassengerPhone,
			Seats:          req.Seats,
			AmountCents:    toCents(req.Amount),
		}, c.ClientIP())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateBookingResponse{
			Message:   "Booking confirmed",
			PNR:       b.PNR,
			BookingID: b.ID,
		})
	}
}

// @Summary  List bookings of a passenger
// @Param    email  query  string  true  "passenger email"
// @Success  200  {object}  BookingsResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /bookings [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.Query("email"))
		if email == "" {
			badRequest(c, "email is required")
			return
		}
		views, err := svcs.Booking.ListByEmail(c.Request.Context(), email)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingsResponse(views))
	}
}

// @Summary  Get booking by PNR
// @Param    pnr  path  string  true  "booking reference"
// @Success  200  {object}  BookingResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /bookings/{pnr} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svcs.Booking.GetByPNR(c.Request.Context(), c.Param("pnr"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(*v))
	}
}

// @Summary  Cancel a booking
// @Param    pnr  path  string  true  "booking reference"
// @Param    req  body  CancelBookingRequest  true  "email used for the booking"
// @Success  200  {object}  CancelBookingResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "already cancelled"
// @Router   /bookings/{pnr}/cancel [post]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CancelBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "email is required")
			return
		}
		b, err := svcs.Booking.Cancel(c.Request.Context(), c.Param("pnr"), req.Email)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CancelBookingResponse{
			Message: "Booking cancelled",
			PNR:     b.PNR,
			Status:  b.Status,
		})
	}
}

// @Summary  Send a contact message
// @Param    req  body  ContactRequest  true  "payload"
// @Success  201  {object}  CreatedResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /contact [post]
func handleCreateContact(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ContactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		m, err := svcs.Messages.CreateContact(c.Request.Context(), req.Name, req.Email, req.Message)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreatedResponse{Message: "Message sent successfully", ID: m.ID})
	}
}

// @Summary  Submit feedback
// @Param    req  body  FeedbackRequest  true  "payload"
// @Success  201  {object}  CreatedResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /feedback [post]
func handleCreateFeedback(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		f, err := svcs.Messages.CreateFeedback(c.Request.Context(), req.Name, req.Email, req.Rating, req.Comment)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreatedResponse{Message: "Feedback submitted successfully", ID: f.ID})
	}
}
