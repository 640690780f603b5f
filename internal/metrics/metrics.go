package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Booking outcomes for BookingsTotal.
const (
	ResultCreated          = "created"
	ResultCapacityExceeded = "capacity_exceeded"
	ResultInvalid          = "invalid"
	ResultRateLimited      = "rate_limited"
	ResultCollision        = "collision"
	ResultError            = "error"
)

var (
	BookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "busgo_bookings_total",
			Help: "Booking attempts by result",
		},
		[]string{"result"},
	)

	CancellationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "busgo_booking_cancellations_total",
			Help: "Bookings moved from Confirmed to Cancelled",
		},
	)

	PNRRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "busgo_pnr_retries_total",
			Help: "Booking inserts retried because the generated PNR was taken",
		},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "busgo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(BookingsTotal)
	prometheus.MustRegister(CancellationsTotal)
	prometheus.MustRegister(PNRRetriesTotal)
	prometheus.MustRegister(HTTPRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware observes every request under its route template, so
// /bookings/:pnr is one series no matter the PNR.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
