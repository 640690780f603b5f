package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
	redisrepo "github.com/kirinyoku/busgo/internal/repository/redis"
	"github.com/kirinyoku/busgo/internal/service/ports"
)

type Config struct {
	AvailabilityTTL time.Duration
}

type Service struct {
	schedules ports.ScheduleRepo
	cities    ports.AdminRepo
	cache     *redisrepo.Cache
	cfg       Config
}

// New builds the read service. cache may be nil.
func New(schedules ports.ScheduleRepo, cities ports.AdminRepo, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	return &Service{
		schedules: schedules,
		cities:    cities,
		cache:     cache,
		cfg:       cfg,
	}
}

// Search lists schedules between two cities on one UTC day with at least
// q.Passengers seats left, earliest departure first.
//
// Parameters:
//   - ctx: request-scoped context.
//   - q: city names, day and passenger count (0 means 1).
//
// Returns:
//   - []domain.ScheduleSummary: matching schedules, never nil.
//   - error: query.ErrInvalidQuery if a city is missing or passengers < 0.
func (s *Service) Search(ctx context.Context, q domain.SearchQuery) ([]domain.ScheduleSummary, error) {
	const op = "service.query.Search"

	q.From = strings.TrimSpace(q.From)
	q.To = strings.TrimSpace(q.To)

	if q.From == "" || q.To == "" {
		return nil, fmt.Errorf("%s:%w: from and to are required", op, ErrInvalidQuery)
	}

	if q.Date.IsZero() {
		return nil, fmt.Errorf("%s:%w: date is required", op, ErrInvalidQuery)
	}

	if q.Passengers == 0 {
		q.Passengers = 1
	}

	if q.Passengers < 0 {
		return nil, fmt.Errorf("%s:%w: passengers must be positive", op, ErrInvalidQuery)
	}

	out, err := s.schedules.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Availability returns the seat counts of a schedule, read through the
// cache. Booking writes invalidate the entry after commit; a load racing
// with an invalidation is served but not cached.
//
// Returns:
//   - *domain.Availability: capacity, booked and available seats.
//   - error: query.ErrScheduleNotFound if the schedule is not found.
func (s *Service) Availability(ctx context.Context, scheduleID int64) (*domain.Availability, error) {
	const op = "service.query.Availability"

	a, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.ScheduleEntry(scheduleID),
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.Availability, error) {
			a, err := s.schedules.Availability(ctx, scheduleID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Availability{}, ErrScheduleNotFound
				}

				return domain.Availability{}, err
			}

			return *a, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &a, nil
}

// FreshAvailability skips the cache.
func (s *Service) FreshAvailability(ctx context.Context, scheduleID int64) (*domain.Availability, error) {
	const op = "service.query.FreshAvailability"

	a, err := s.schedules.Availability(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrScheduleNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return a, nil
}

func (s *Service) GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error) {
	const op = "service.query.GetSchedule"

	sch, err := s.schedules.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrScheduleNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return sch, nil
}

func (s *Service) ListCities(ctx context.Context) ([]domain.City, error) {
	const op = "service.query.ListCities"

	out, err := s.cities.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
