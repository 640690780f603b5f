package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
	"github.com/kirinyoku/busgo/internal/service/ports"
)

const (
	defaultBusType    = "AC"
	defaultSeatType   = "Seater"
	defaultTotalSeats = 40
	minDurationMins   = 60
	maxBookingsPage   = 500
)

type Service struct {
	admin    ports.AdminRepo
	bookings ports.BookingRepo
	log      *slog.Logger
}

func New(admin ports.AdminRepo, bookings ports.BookingRepo, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		admin:    admin,
		bookings: bookings,
		log:      log.With(slog.String("component", "admin")),
	}
}

type SaveRouteInput struct {
	FromCity   string
	ToCity     string
	Country    string
	State      *string
	DistanceKm *int
}

// SaveRoute creates the route and any missing city, or updates the distance
// of an existing route.
//
// Returns:
//   - *domain.Route: the saved route.
//   - error: admin.ErrInvalidInput or admin.ErrSameCity for bad input.
func (s *Service) SaveRoute(ctx context.Context, in SaveRouteInput) (*domain.Route, error) {
	const op = "service.admin.SaveRoute"

	from := strings.TrimSpace(in.FromCity)
	to := strings.TrimSpace(in.ToCity)

	if from == "" || to == "" {
		return nil, fmt.Errorf("%s:%w: fromCity and toCity are required", op, ErrInvalidInput)
	}

	if strings.EqualFold(from, to) {
		return nil, fmt.Errorf("%s:%w", op, ErrSameCity)
	}

	if in.DistanceKm != nil && *in.DistanceKm <= 0 {
		return nil, fmt.Errorf("%s:%w: distanceKm must be positive", op, ErrInvalidInput)
	}

	country := strings.TrimSpace(in.Country)

	rt, err := s.admin.SaveRoute(ctx, domain.NewRoute{
		From:       domain.City{Name: from, Country: country, State: in.State},
		To:         domain.City{Name: to, Country: country, State: in.State},
		DistanceKm: in.DistanceKm,
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.log.InfoContext(ctx, "route saved",
		slog.Int64("route_id", rt.ID),
		slog.String("from", rt.FromCity),
		slog.String("to", rt.ToCity),
	)

	return rt, nil
}

// CreateBus registers a bus, filling the AC/Seater/40 defaults.
func (s *Service) CreateBus(ctx context.Context, b domain.Bus) (*domain.Bus, error) {
	const op = "service.admin.CreateBus"

	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return nil, fmt.Errorf("%s:%w: busName is required", op, ErrInvalidInput)
	}

	if b.Type == "" {
		b.Type = defaultBusType
	}

	if b.SeatType == "" {
		b.SeatType = defaultSeatType
	}

	if b.TotalSeats == 0 {
		b.TotalSeats = defaultTotalSeats
	}

	if b.TotalSeats < 0 {
		return nil, fmt.Errorf("%s:%w: totalSeats must be positive", op, ErrInvalidInput)
	}

	id, err := s.admin.CreateBus(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	b.ID = id
	return &b, nil
}

type CreateScheduleInput struct {
	BusID           int64
	FromCity        string
	ToCity          string
	DepartureTime   time.Time
	ArrivalTime     time.Time
	DurationMinutes int
	PriceCents      int64
}

// CreateSchedule puts a bus on a route. Cities and the route are created
// when missing. A zero DurationMinutes is derived from the times, never
// below an hour.
//
// Returns:
//   - int64: the created schedule ID.
//   - error: admin.ErrBusNotFound if the bus does not exist.
//   - error: admin.ErrInvalidInput or admin.ErrSameCity for bad input.
func (s *Service) CreateSchedule(ctx context.Context, in CreateScheduleInput) (int64, error) {
	const op = "service.admin.CreateSchedule"

	in.FromCity = strings.TrimSpace(in.FromCity)
	in.ToCity = strings.TrimSpace(in.ToCity)

	switch {
	case in.BusID <= 0:
		return 0, fmt.Errorf("%s:%w: busId is required", op, ErrInvalidInput)
	case in.FromCity == "" || in.ToCity == "":
		return 0, fmt.Errorf("%s:%w: fromCity and toCity are required", op, ErrInvalidInput)
	case strings.EqualFold(in.FromCity, in.ToCity):
		return 0, fmt.Errorf("%s:%w", op, ErrSameCity)
	case in.DepartureTime.IsZero() || in.ArrivalTime.IsZero():
		return 0, fmt.Errorf("%s:%w: departure and arrival are required", op, ErrInvalidInput)
	case !in.ArrivalTime.After(in.DepartureTime):
		return 0, fmt.Errorf("%s:%w: arrival must be after departure", op, ErrInvalidInput)
	case in.PriceCents <= 0:
		return 0, fmt.Errorf("%s:%w: price must be positive", op, ErrInvalidInput)
	case in.DurationMinutes < 0:
		return 0, fmt.Errorf("%s:%w: durationMinutes must be positive", op, ErrInvalidInput)
	}

	if in.DurationMinutes == 0 {
		in.DurationMinutes = max(minDurationMins, int(in.ArrivalTime.Sub(in.DepartureTime).Minutes()))
	}

	id, err := s.admin.CreateSchedule(ctx, domain.NewSchedule{
		BusID:           in.BusID,
		FromCity:        in.FromCity,
		ToCity:          in.ToCity,
		DepartureTime:   in.DepartureTime.UTC(),
		ArrivalTime:     in.ArrivalTime.UTC(),
		DurationMinutes: in.DurationMinutes,
		PriceCents:      in.PriceCents,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%s:%w", op, ErrBusNotFound)
		}

		return 0, fmt.Errorf("%s:%w", op, err)
	}

	s.log.InfoContext(ctx, "schedule created",
		slog.Int64("schedule_id", id),
		slog.Int64("bus_id", in.BusID),
	)

	return id, nil
}

func (s *Service) ListCities(ctx context.Context) ([]domain.City, error) {
	const op = "service.admin.ListCities"

	out, err := s.admin.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	const op = "service.admin.ListRoutes"

	out, err := s.admin.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) ListBuses(ctx context.Context) ([]domain.Bus, error) {
	const op = "service.admin.ListBuses"

	out, err := s.admin.ListBuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ListBookings pages through all bookings, newest first.
func (s *Service) ListBookings(ctx context.Context, limit, offset int) ([]domain.BookingView, error) {
	const op = "service.admin.ListBookings"

	if limit <= 0 {
		limit = 100
	}

	if limit > maxBookingsPage {
		limit = maxBookingsPage
	}

	if offset < 0 {
		offset = 0
	}

	out, err := s.bookings.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
