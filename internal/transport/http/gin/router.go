package httpgin

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/busgo/internal/auth"
	"github.com/kirinyoku/busgo/internal/metrics"
	redisrepo "github.com/kirinyoku/busgo/internal/repository/redis"
	"github.com/kirinyoku/busgo/internal/service"
	"github.com/kirinyoku/busgo/internal/service/admin"
	"github.com/kirinyoku/busgo/internal/service/booking"
	"github.com/kirinyoku/busgo/internal/service/messages"
	"github.com/kirinyoku/busgo/internal/service/query"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps are the collaborators of the HTTP layer besides the services. Idem
// and PubSub may be nil when Redis is disabled.
type Deps struct {
	Auth        *auth.Authenticator
	Idem        *redisrepo.IdempotencyStore
	PubSub      *redisrepo.SchedulesPubSub
	CORSOrigins []string
	Ready       func() error
}

func NewRouter(
	svcs *service.Services,
	deps Deps,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		metrics.GinMiddleware(),
		CORS(deps.CORSOrigins),
	)
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", handleHealth(deps.Ready))

	// Public API
	r.GET("/cities", handleListCities(svcs))
	r.GET("/schedules/search", handleSearch(svcs))
	r.GET("/buses/search", handleSearch(svcs))
	r.GET("/schedules/:id", handleGetSchedule(svcs))
	r.GET("/schedules/:id/availability", handleGetAvailability(svcs))
	r.GET("/schedules/:id/availability/stream", handleAvailabilityStream(svcs, deps.PubSub, logger))

	r.POST("/bookings", Idempotency(deps.Idem, logger), handleCreateBooking(svcs))
	r.GET("/bookings", handleListBookings(svcs))
	r.GET("/bookings/:pnr", handleGetBooking(svcs))
	r.POST("/bookings/:pnr/cancel", handleCancelBooking(svcs))

	r.POST("/contact", handleCreateContact(svcs))
	r.POST("/feedback", handleCreateFeedback(svcs))

	// Admin API
	r.POST("/admin/login", handleLogin(deps.Auth))

	adm := r.Group("/admin", RequireAdmin(deps.Auth))
	{
		adm.POST("/routes", handleSaveRoute(svcs))
		adm.POST("/buses", handleCreateBus(svcs))
		adm.POST("/schedules", handleCreateSchedule(svcs))

		adm.GET("/cities", handleAdminListCities(svcs))
		adm.GET("/routes", handleListRoutes(svcs))
		adm.GET("/buses", handleListBuses(svcs))
		adm.GET("/bookings", handleAdminListBookings(svcs))
		adm.POST("/bookings/:pnr/cancel", handleAdminCancelBooking(svcs))

		adm.GET("/contact/messages", handleListContacts(svcs))
		adm.POST("/contact/messages/:id/reply", handleReplyContact(svcs))
		adm.GET("/feedback", handleListFeedback(svcs))
	}

	return r
}

// @Summary  Liveness and storage readiness
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  map[string]string
// @Router   /healthz [get]
func handleHealth(ready func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil {
			if err := ready(); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// detail returns the part of err's message starting at sentinel, dropping
// the op prefixes added on the way up.
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return sentinel.Error()
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var (
		capErr  booking.CapacityExceededError
		rateErr booking.RateLimitedError
		valErr  booking.ValidationError
	)

	switch {
	// booking service
	case errors.As(err, &capErr):
		c.JSON(http.StatusBadRequest, CapacityErrorResponse{
			Error:          capErr.Error(),
			AvailableSeats: capErr.Available,
		})
	case errors.As(err, &rateErr):
		secs := int(math.Ceil(rateErr.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many booking attempts, try again later"})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: valErr.Error()})
	case errors.Is(err, booking.ErrAmountMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: booking.ErrAmountMismatch.Error()})
	case errors.Is(err, booking.ErrScheduleNotFound):
		// The schedule id comes from the request body, so it is bad input.
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "schedule not found"})
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	case errors.Is(err, booking.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "booking already cancelled"})

	// query service
	case errors.Is(err, query.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "schedule not found"})
	case errors.Is(err, query.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: detail(err, query.ErrInvalidQuery)})

	// admin service
	case errors.Is(err, admin.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: detail(err, admin.ErrInvalidInput)})
	case errors.Is(err, admin.ErrSameCity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: admin.ErrSameCity.Error()})
	case errors.Is(err, admin.ErrBusNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bus does not exist, create the bus first"})

	// messages service
	case errors.Is(err, messages.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: detail(err, messages.ErrInvalidInput)})
	case errors.Is(err, messages.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})

	// auth
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, UnauthorizedResponse{Error: "invalid username or password", RequiresLogin: true})
	case errors.Is(err, auth.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "admin login is not configured"})

	// reference collision, storage and everything else
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
