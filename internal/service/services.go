package service

import (
	"log/slog"

	redisrepo "github.com/kirinyoku/busgo/internal/repository/redis"
	"github.com/kirinyoku/busgo/internal/service/admin"
	"github.com/kirinyoku/busgo/internal/service/booking"
	"github.com/kirinyoku/busgo/internal/service/messages"
	"github.com/kirinyoku/busgo/internal/service/ports"
	"github.com/kirinyoku/busgo/internal/service/query"
)

// Repos is the set of repositories of the selected storage backend.
type Repos struct {
	Bookings  ports.BookingRepo
	Schedules ports.ScheduleRepo
	Admin     ports.AdminRepo
	Messages  ports.MessageRepo
}

type Services struct {
	Booking  *booking.Service
	Query    *query.Service
	Admin    *admin.Service
	Messages *messages.Service
}

type Config struct {
	Booking booking.Config
	Query   query.Config
}

// NewServices wires every service to one backend. The Redis components may
// be nil.
func NewServices(
	repos Repos,
	cache *redisrepo.Cache,
	pubsub *redisrepo.SchedulesPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	log *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Booking: booking.New(
			repos.Bookings,
			repos.Schedules,
			cache,
			pubsub,
			limiter,
			log,
			cfg.Booking,
		),
		Query:    query.New(repos.Schedules, repos.Admin, cache, cfg.Query),
		Admin:    admin.New(repos.Admin, repos.Bookings, log),
		Messages: messages.New(repos.Messages, log),
	}
}
