package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
)

const bookingViewSelect = `
	SELECT bk.id, bk.schedule_id, bk.passenger_name, bk.passenger_email,
	       bk.passenger_phone, bk.seats, bk.amount_cents, bk.pnr, bk.status,
	       bk.created_at, bk.cancelled_at,
	       s.departure_time, s.arrival_time, cf.name, ct.name, b.bus_name
	FROM bookings bk
	JOIN schedules s ON s.id = bk.schedule_id
	JOIN routes r ON r.id = s.route_id
	JOIN cities cf ON cf.id = r.from_city_id
	JOIN cities ct ON ct.id = r.to_city_id
	JOIN buses b ON b.id = s.bus_id`

type BookingRepo struct {
	store *Store
}

func (r *BookingRepo) handle() DB {
	return r.store.pool
}

// Insert books seats on a schedule.
//
// The schedule row is locked FOR UPDATE inside a SERIALIZABLE transaction,
// so concurrent inserts and cancels on the same schedule run one at a time
// between the availability check and the insert.
//
// Returns:
//   - error: repository.ErrNotFound if the schedule does not exist.
//   - error: repository.ErrCapacityExceeded if fewer than b.Seats remain.
//   - error: repository.ErrConflict if the PNR is already taken.
func (r *BookingRepo) Insert(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Insert"

	err := r.store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		return r.insertCore(ctx, tx, b)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Cancel marks a Confirmed booking as Cancelled, releasing its seats.
//
// Returns:
//   - *domain.Booking: the booking after cancellation.
//   - error: repository.ErrNotFound if no booking has the PNR.
//   - error: repository.ErrAlreadyCancelled if it was cancelled before.
func (r *BookingRepo) Cancel(ctx context.Context, pnr string) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Cancel"

	var out *domain.Booking

	fn := func(ctx context.Context, tx DB) error {
		b, err := r.cancelCore(ctx, tx, pnr)
		if err != nil {
			return err
		}
		out = b
		return nil
	}

	if err := r.store.RunTx(ctx, nil, fn); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *BookingRepo) GetByPNR(ctx context.Context, pnr string) (*domain.BookingView, error) {
	const op = "postgres.BookingRepo.GetByPNR"

	row := r.handle().QueryRow(ctx, bookingViewSelect+` WHERE bk.pnr = $1`, pnr)

	v, err := scanBookingView(row)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return v, nil
}

// ListByEmail returns every booking of a passenger, newest first.
func (r *BookingRepo) ListByEmail(ctx context.Context, email string) ([]domain.BookingView, error) {
	const op = "postgres.BookingRepo.ListByEmail"

	rows, err := r.handle().Query(ctx,
		bookingViewSelect+`
		 WHERE lower(bk.passenger_email) = lower($1)
		 ORDER BY bk.created_at DESC, bk.id DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	out, err := collectBookingViews(rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *BookingRepo) List(ctx context.Context, limit, offset int) ([]domain.BookingView, error) {
	const op = "postgres.BookingRepo.List"

	rows, err := r.handle().Query(ctx,
		bookingViewSelect+`
		 ORDER BY bk.created_at DESC, bk.id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	out, err := collectBookingViews(rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *BookingRepo) insertCore(ctx context.Context, db DB, b *domain.Booking) error {
	const op = "postgres.BookingRepo.insertCore"

	if err := lockSchedule(ctx, db, b.ScheduleID); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	avail, err := availabilityCore(ctx, db, b.ScheduleID)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if b.Seats > avail.Available {
		return fmt.Errorf("%s:%w", op, repository.ErrCapacityExceeded)
	}

	b.Status = domain.BookingConfirmed

	if err := db.QueryRow(ctx,
		`INSERT INTO bookings
		    (schedule_id, passenger_name, passenger_email, passenger_phone,
		     seats, amount_cents, pnr, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		b.ScheduleID, b.PassengerName, b.PassengerEmail, b.PassengerPhone,
		b.Seats, b.AmountCents, b.PNR, string(b.Status),
	).Scan(&b.ID, &b.CreatedAt); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *BookingRepo) cancelCore(ctx context.Context, db DB, pnr string) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.cancelCore"

	var scheduleID int64
	if err := db.QueryRow(ctx,
		`SELECT schedule_id FROM bookings WHERE pnr = $1`,
		pnr,
	).Scan(&scheduleID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if err := lockSchedule(ctx, db, scheduleID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	row := db.QueryRow(ctx,
		`UPDATE bookings
		    SET status = $2, cancelled_at = now()
		  WHERE pnr = $1 AND status = $3
		 RETURNING id, schedule_id, passenger_name, passenger_email,
		           passenger_phone, seats, amount_cents, pnr, status,
		           created_at, cancelled_at`,
		pnr, string(domain.BookingCancelled), string(domain.BookingConfirmed),
	)

	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrAlreadyCancelled)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return b, nil
}

func lockSchedule(ctx context.Context, db DB, scheduleID int64) error {
	var id int64
	return db.QueryRow(ctx,
		`SELECT id FROM schedules WHERE id = $1 FOR UPDATE`,
		scheduleID,
	).Scan(&id)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var status string

	if err := row.Scan(
		&b.ID,
		&b.ScheduleID,
		&b.PassengerName,
		&b.PassengerEmail,
		&b.PassengerPhone,
		&b.Seats,
		&b.AmountCents,
		&b.PNR,
		&status,
		&b.CreatedAt,
		&b.CancelledAt,
	); err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatus(status)
	return &b, nil
}

func scanBookingView(row pgx.Row) (*domain.BookingView, error) {
	var v domain.BookingView
	var status string

	if err := row.Scan(
		&v.ID,
		&v.ScheduleID,
		&v.PassengerName,
		&v.PassengerEmail,
		&v.PassengerPhone,
		&v.Seats,
		&v.AmountCents,
		&v.PNR,
		&status,
		&v.CreatedAt,
		&v.CancelledAt,
		&v.DepartureTime,
		&v.ArrivalTime,
		&v.FromCity,
		&v.ToCity,
		&v.BusName,
	); err != nil {
		return nil, err
	}

	v.Status = domain.BookingStatus(status)
	return &v, nil
}

func collectBookingViews(rows pgx.Rows) ([]domain.BookingView, error) {
	defer rows.Close()

	out := []domain.BookingView{}
	for rows.Next() {
		v, err := scanBookingView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}

	return out, rows.Err()
}
