package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/metrics"
	"github.com/kirinyoku/busgo/internal/repository"
	"github.com/kirinyoku/busgo/internal/service/ports"
)

const defaultMaxPNRAttempts = 5

type Config struct {
	MaxPNRAttempts int
	VerifyAmount   bool
}

type Invalidator interface {
	InvalidateSchedule(ctx context.Context, scheduleID int64) error
}

type Publisher interface {
	PublishScheduleChanged(ctx context.Context, scheduleID int64) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type Service struct {
	bookings  ports.BookingRepo
	schedules ports.ScheduleRepo
	cache     Invalidator
	pubsub    Publisher
	limiter   RateLimiter
	newPNR    func() (string, error)
	log       *slog.Logger
	cfg       Config
}

type Option func(*Service)

// WithPNRGenerator replaces NewPNR.
func WithPNRGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newPNR = gen }
}

// New builds the booking service. cache, pubsub and limiter may be nil.
func New(
	bookings ports.BookingRepo,
	schedules ports.ScheduleRepo,
	cache Invalidator,
	pubsub Publisher,
	limiter RateLimiter,
	log *slog.Logger,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.MaxPNRAttempts <= 0 {
		cfg.MaxPNRAttempts = defaultMaxPNRAttempts
	}

	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		bookings:  bookings,
		schedules: schedules,
		cache:     cache,
		pubsub:    pubsub,
		limiter:   limiter,
		newPNR:    NewPNR,
		log:       log.With(slog.String("component", "booking")),
		cfg:       cfg,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateInput struct {
	ScheduleID     int64
	PassengerName  string
	PassengerEmail string
	PassengerPhone *string
	Seats          int
	AmountCents    int64
}

// Create books in.Seats seats on a schedule and returns the Confirmed
// booking with its PNR.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: passenger, schedule and seat count.
//   - rlKey: rate-limit key of the caller, empty to skip limiting.
//
// Returns:
//   - *domain.Booking: the created booking.
//   - error: ValidationError or ErrAmountMismatch for bad input.
//   - error: RateLimitedError when the caller is over its limit.
//   - error: CapacityExceededError when too few seats are left.
//   - error: ErrScheduleNotFound, ErrReferenceCollision or ErrStorageUnavailable.
func (s *Service) Create(ctx context.Context, in CreateInput, rlKey string) (*domain.Booking, error) {
	const op = "service.booking.Create"

	in, err := normalize(in)
	if err != nil {
		metrics.BookingsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if s.limiter != nil && rlKey != "" {
		ok, retry, err := s.limiter.Allow(ctx, rlKey)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "rate limiter unavailable", slog.String("error", err.Error()))
		case !ok:
			metrics.BookingsTotal.WithLabelValues(metrics.ResultRateLimited).Inc()
			return nil, fmt.Errorf("%s:%w", op, RateLimitedError{RetryAfter: retry})
		}
	}

	if s.cfg.VerifyAmount {
		sch, err := s.schedules.Get(ctx, in.ScheduleID)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, s.storageErr(err, ErrScheduleNotFound))
		}

		if want := int64(in.Seats) * sch.PriceCents; in.AmountCents != want {
			metrics.BookingsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
			return nil, fmt.Errorf("%s:%w", op, ErrAmountMismatch)
		}
	}

	for attempt := 1; attempt <= s.cfg.MaxPNRAttempts; attempt++ {
		pnr, err := s.newPNR()
		if err != nil {
			metrics.BookingsTotal.WithLabelValues(metrics.ResultError).Inc()
			return nil, fmt.Errorf("%s:%w:%w", op, ErrStorageUnavailable, err)
		}

		b := &domain.Booking{
			ScheduleID:     in.ScheduleID,
			PassengerName:  in.PassengerName,
			PassengerEmail: in.PassengerEmail,
			PassengerPhone: in.PassengerPhone,
			Seats:          in.Seats,
			AmountCents:    in.AmountCents,
			PNR:            pnr,
		}

		err = s.bookings.Insert(ctx, b)
		switch {
		case err == nil:
			metrics.BookingsTotal.WithLabelValues(metrics.ResultCreated).Inc()
			s.log.InfoContext(ctx, "booking created",
				slog.Int64("schedule_id", b.ScheduleID),
				slog.String("pnr", b.PNR),
				slog.Int("seats", b.Seats),
			)
			s.afterChange(ctx, b.ScheduleID)
			return b, nil

		case errors.Is(err, repository.ErrConflict):
			metrics.PNRRetriesTotal.Inc()
			s.log.DebugContext(ctx, "pnr taken, retrying",
				slog.Int("attempt", attempt),
			)
			continue

		case errors.Is(err, repository.ErrCapacityExceeded):
			metrics.BookingsTotal.WithLabelValues(metrics.ResultCapacityExceeded).Inc()
			capErr := CapacityExceededError{Requested: in.Seats}
			if a, aerr := s.schedules.Availability(ctx, in.ScheduleID); aerr == nil {
				capErr.Available = a.Available
			}
			s.log.InfoContext(ctx, "booking rejected",
				slog.Int64("schedule_id", in.ScheduleID),
				slog.Int("requested", in.Seats),
				slog.Int("available", capErr.Available),
			)
			return nil, fmt.Errorf("%s:%w", op, capErr)

		default:
			metrics.BookingsTotal.WithLabelValues(metrics.ResultError).Inc()
			return nil, fmt.Errorf("%s:%w", op, s.storageErr(err, ErrScheduleNotFound))
		}
	}

	metrics.BookingsTotal.WithLabelValues(metrics.ResultCollision).Inc()
	s.log.ErrorContext(ctx, "pnr attempts exhausted",
		slog.Int64("schedule_id", in.ScheduleID),
		slog.Int("attempts", s.cfg.MaxPNRAttempts),
	)

	return nil, fmt.Errorf("%s:%w", op, ErrReferenceCollision)
}

// Cancel cancels a booking for the passenger who made it.
//
// Returns:
//   - error: ErrBookingNotFound if the PNR is unknown or email does not match.
//   - error: ErrAlreadyCancelled if the booking was cancelled before.
func (s *Service) Cancel(ctx context.Context, pnr, email string) (*domain.Booking, error) {
	const op = "service.booking.Cancel"

	pnr = normalizePNR(pnr)
	email = strings.TrimSpace(email)

	if pnr == "" {
		return nil, fmt.Errorf("%s:%w", op, ValidationError{Field: "pnr", Reason: "is required"})
	}

	if email == "" {
		return nil, fmt.Errorf("%s:%w", op, ValidationError{Field: "email", Reason: "is required"})
	}

	v, err := s.bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, s.storageErr(err, ErrBookingNotFound))
	}

	if !strings.EqualFold(v.PassengerEmail, email) {
		return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
	}

	b, err := s.cancel(ctx, pnr)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

// AdminCancel cancels any booking by PNR.
func (s *Service) AdminCancel(ctx context.Context, pnr string) (*domain.Booking, error) {
	const op = "service.booking.AdminCancel"

	pnr = normalizePNR(pnr)
	if pnr == "" {
		return nil, fmt.Errorf("%s:%w", op, ValidationError{Field: "pnr", Reason: "is required"})
	}

	b, err := s.cancel(ctx, pnr)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

func (s *Service) cancel(ctx context.Context, pnr string) (*domain.Booking, error) {
	b, err := s.bookings.Cancel(ctx, pnr)
	if err != nil {
		return nil, s.storageErr(err, ErrBookingNotFound)
	}

	metrics.CancellationsTotal.Inc()
	s.log.InfoContext(ctx, "booking cancelled",
		slog.Int64("schedule_id", b.ScheduleID),
		slog.String("pnr", b.PNR),
		slog.Int("seats", b.Seats),
	)
	s.afterChange(ctx, b.ScheduleID)

	return b, nil
}

// ListByEmail returns every booking of a passenger, newest first.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]domain.BookingView, error) {
	const op = "service.booking.ListByEmail"

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%s:%w", op, ValidationError{Field: "email", Reason: "is required"})
	}

	out, err := s.bookings.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, s.storageErr(err, nil))
	}

	return out, nil
}

func (s *Service) GetByPNR(ctx context.Context, pnr string) (*domain.BookingView, error) {
	const op = "service.booking.GetByPNR"

	v, err := s.bookings.GetByPNR(ctx, normalizePNR(pnr))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, s.storageErr(err, ErrBookingNotFound))
	}

	return v, nil
}

// storageErr maps repository errors onto the service taxonomy, with
// notFound standing for repository.ErrNotFound. Anything unrecognised is a
// storage fault.
func (s *Service) storageErr(err, notFound error) error {
	switch {
	case notFound != nil && errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return ErrAlreadyCancelled
	}

	s.log.Error("storage failure", slog.String("error", err.Error()))

	return fmt.Errorf("%w:%w", ErrStorageUnavailable, err)
}

// afterChange runs once a booking write has committed. Failures only cost
// freshness, so they are logged and dropped.
func (s *Service) afterChange(ctx context.Context, scheduleID int64) {
	ctx = context.WithoutCancel(ctx)

	if s.cache != nil {
		if err := s.cache.InvalidateSchedule(ctx, scheduleID); err != nil {
			s.log.WarnContext(ctx, "invalidate availability cache",
				slog.Int64("schedule_id", scheduleID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.pubsub != nil {
		if err := s.pubsub.PublishScheduleChanged(ctx, scheduleID); err != nil {
			s.log.WarnContext(ctx, "publish schedule changed",
				slog.Int64("schedule_id", scheduleID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func normalize(in CreateInput) (CreateInput, error) {
	in.PassengerName = strings.TrimSpace(in.PassengerName)
	in.PassengerEmail = strings.TrimSpace(in.PassengerEmail)

	if in.PassengerPhone != nil {
		phone := strings.TrimSpace(*in.PassengerPhone)
		if phone == "" {
			in.PassengerPhone = nil
		} else {
			in.PassengerPhone = &phone
		}
	}

	switch {
	case in.ScheduleID <= 0:
		return in, ValidationError{Field: "scheduleId", Reason: "is required"}
	case in.PassengerName == "":
		return in, ValidationError{Field: "passengerName", Reason: "is required"}
	case in.PassengerEmail == "":
		return in, ValidationError{Field: "passengerEmail", Reason: "is required"}
	case !strings.Contains(in.PassengerEmail, "@"):
		return in, ValidationError{Field: "passengerEmail", Reason: "is not an email address"}
	case in.Seats < 1:
		return in, ValidationError{Field: "seats", Reason: "must be at least 1"}
	case in.AmountCents <= 0:
		return in, ValidationError{Field: "amount", Reason: "must be positive"}
	}

	return in, nil
}

func normalizePNR(pnr string) string {
	return strings.ToUpper(strings.TrimSpace(pnr))
}
