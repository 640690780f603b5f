package httpgin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/busgo/internal/auth"
	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/service"
	"github.com/kirinyoku/busgo/internal/service/admin"
)

// @Summary  Admin login
// @Param    req  body  LoginRequest  true  "credentials"
// @Success  200  {object}  LoginResponse
// @Failure  401  {object}  UnauthorizedResponse
// @Router   /admin/login [post]
func handleLogin(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "username and password are required")
			return
		}
		token, exp, err := a.Login(req.Username, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp})
	}
}

// @Summary  Create or update a route
// @Security BearerAuth
// @Param    req  body  SaveRouteRequest  true  "payload"
// @Success  201  {object}  MessageResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /admin/routes [post]
func handleSaveRoute(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveRouteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		if _, err := svcs.Admin.SaveRoute(c.Request.Context(), admin.SaveRouteInput{
			FromCity:   req.FromCity,
			ToCity:     req.ToCity,
			Country:    req.FromCountry,
			State:      req.FromState,
			DistanceKm: req.DistanceKm,
		}); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, MessageResponse{Message: "Route saved successfully"})
	}
}

// @Summary  Create a bus
// @Security BearerAuth
// @Param    req  body  CreateBusRequest  true  "payload"
// @Success  201  {object}  CreateBusResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /admin/buses [post]
func handleCreateBus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		b, err := svcs.Admin.CreateBus(c.Request.Context(), domain.Bus{
			Name:       req.BusName,
			Type:       req.BusType,
			SeatType:   req.SeatType,
			TotalSeats: req.TotalSeats,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateBusResponse{Message: "Bus created successfully", BusID: b.ID})
	}
}

// @Summary  Create a schedule
// @Security BearerAuth
// @Param    req  body  CreateScheduleRequest  true  "payload, times in RFC3339"
// @Success  201  {object}  CreateScheduleResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /admin/schedules [post]
func handleCreateSchedule(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateScheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		dep, err := parseRFC3339(strings.TrimSpace(req.DepartureTime))
		if err != nil {
			badRequest(c, "invalid departureTime (RFC3339)")
			return
		}
		arr, err := parseRFC3339(strings.TrimSpace(req.ArrivalTime))
		if err != nil {
			badRequest(c, "invalid arrivalTime (RFC3339)")
			return
		}

		in := admin.CreateScheduleInput{
			BusID:         req.BusID,
			FromCity:      req.FromCity,
			ToCity:        req.ToCity,
			DepartureTime: dep,
			ArrivalTime:   arr,
			PriceCents:    toCents(req.Price),
		}
		if req.DurationMinutes != nil {
			in.DurationMinutes = *req.DurationMinutes
		}

		id, err := svcs.Admin.CreateSchedule(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateScheduleResponse{Message: "Schedule created successfully", ScheduleID: id})
	}
}

// @Summary  List cities
// @Security BearerAuth
// @Success  200  {object}  map[string][]domain.City
// @Router   /admin/cities [get]
func handleAdminListCities(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		cities, err := svcs.Admin.ListCities(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cities": cities})
	}
}

// @Summary  List routes
// @Security BearerAuth
// @Success  200  {object}  map[string][]domain.Route
// @Router   /admin/routes [get]
func handleListRoutes(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		routes, err := svcs.Admin.ListRoutes(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"routes": routes})
	}
}

// @Summary  List buses
// @Security BearerAuth
// @Success  200  {object}  map[string][]domain.Bus
// @Router   /admin/buses [get]
func handleListBuses(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		buses, err := svcs.Admin.ListBuses(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"buses": buses})
	}
}

// @Summary  List all bookings
// @Security BearerAuth
// @Param    limit   query  int  false  "page size"
// @Param    offset  query  int  false  "offset"
// @Success  200  {object}  BookingsResponse
// @Router   /admin/bookings [get]
func handleAdminListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		views, err := svcs.Admin.ListBookings(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingsResponse(views))
	}
}

// @Summary  Cancel any booking
// @Security BearerAuth
// @Param    pnr  path  string  true  "booking reference"
// @Success  200  {object}  CancelBookingResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /admin/bookings/{pnr}/cancel [post]
func handleAdminCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := svcs.Booking.AdminCancel(c.Request.Context(), c.Param("pnr"))
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

// @Summary  List contact messages
// @Security BearerAuth
// @Success  200  {object}  map[string][]domain.ContactMessage
// @Router   /admin/contact/messages [get]
func handleListContacts(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, err := svcs.Messages.ListContacts(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	}
}

// @Summary  Reply to a contact message
// @Security BearerAuth
// @Param    id   path  int  true  "message ID"
// @Param    req  body  ReplyRequest  true  "payload"
// @Success  200  {object}  MessageResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /admin/contact/messages/{id}/reply [post]
func handleReplyContact(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req ReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		if err := svcs.Messages.Reply(c.Request.Context(), id, req.Reply); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, MessageResponse{Message: "Reply saved successfully"})
	}
}

// @Summary  List feedback
// @Security BearerAuth
// @Success  200  {object}  map[string][]domain.Feedback
// @Router   /admin/feedback [get]
func handleListFeedback(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		fb, err := svcs.Messages.ListFeedback(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"feedback": fb})
	}
}
