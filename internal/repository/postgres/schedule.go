package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kirinyoku/busgo/internal/domain"
)

// bookedSeatsLateral is the one definition of "seats taken" on schedule s:
// the sum of seats over its Confirmed bookings.
const bookedSeatsLateral = `
	CROSS JOIN LATERAL (
		SELECT COALESCE(SUM(bk.seats), 0)::int AS booked
		FROM bookings bk
		WHERE bk.schedule_id = s.id AND bk.status = 'Confirmed'
	) agg`

type ScheduleRepo struct {
	store *Store
}

func (r *ScheduleRepo) handle() DB {
	return r.store.pool
}

// Get retrieves a schedule with the capacity of its bus.
//
// Returns:
//   - *domain.Schedule: the schedule when found.
//   - error: repository.ErrNotFound if the schedule is not found.
func (r *ScheduleRepo) Get(ctx context.Context, id int64) (*domain.Schedule, error) {
	const op = "postgres.ScheduleRepo.Get"

	var s domain.Schedule
	err := r.handle().QueryRow(ctx,
		`SELECT s.id, s.bus_id, s.route_id, s.departure_time, s.arrival_time,
		        s.duration_minutes, s.price_cents, b.total_seats
		 FROM schedules s
		 JOIN buses b ON b.id = s.bus_id
		 WHERE s.id = $1`,
		id,
	).Scan(
		&s.ID,
		&s.BusID,
		&s.RouteID,
		&s.DepartureTime,
		&s.ArrivalTime,
		&s.DurationMinutes,
		&s.PriceCents,
		&s.Capacity,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &s, nil
}

// Availability computes capacity minus confirmed seats for a schedule.
//
// Returns:
//   - *domain.Availability: the seat counts when found.
//   - error: repository.ErrNotFound if the schedule is not found.
func (r *ScheduleRepo) Availability(ctx context.Context, scheduleID int64) (*domain.Availability, error) {
	const op = "postgres.ScheduleRepo.Availability"

	a, err := availabilityCore(ctx, r.handle(), scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return a, nil
}

// Search lists schedules departing on q.Date between the two cities with at
// least q.Passengers seats left, earliest departure first.
func (r *ScheduleRepo) Search(ctx context.Context, q domain.SearchQuery) ([]domain.ScheduleSummary, error) {
	const op = "postgres.ScheduleRepo.Search"

	y, m, d := q.Date.UTC().Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.handle().Query(ctx,
		`SELECT s.id, b.id, b.bus_name, b.bus_type, b.seat_type,
		        s.departure_time, s.arrival_time, s.duration_minutes,
		        s.price_cents, b.total_seats - agg.booked, b.total_seats,
		        cf.name, ct.name
		 FROM schedules s
		 JOIN buses b ON b.id = s.bus_id
		 JOIN routes r ON r.id = s.route_id
		 JOIN cities cf ON cf.id = r.from_city_id
		 JOIN cities ct ON ct.id = r.to_city_id`+bookedSeatsLateral+`
		 WHERE lower(cf.name) = lower($1)
		   AND lower(ct.name) = lower($2)
		   AND s.departure_time >= $3
		   AND s.departure_time < $4
		   AND b.total_seats - agg.booked >= $5
		 ORDER BY s.departure_time ASC, s.id ASC`,
		q.From, q.To, dayStart, dayEnd, q.Passengers,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := []domain.ScheduleSummary{}
	for rows.Next() {
		var ss domain.ScheduleSummary
		if err := rows.Scan(
			&ss.ScheduleID,
			&ss.BusID,
			&ss.BusName,
			&ss.BusType,
			&ss.SeatType,
			&ss.DepartureTime,
			&ss.ArrivalTime,
			&ss.DurationMinutes,
			&ss.PriceCents,
			&ss.AvailableSeats,
			&ss.TotalSeats,
			&ss.FromCity,
			&ss.ToCity,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func availabilityCore(ctx context.Context, db DB, scheduleID int64) (*domain.Availability, error) {
	var capacity, booked int

	err := db.QueryRow(ctx,
		`SELECT b.total_seats, agg.booked
		 FROM schedules s
		 JOIN buses b ON b.id = s.bus_id`+bookedSeatsLateral+`
		 WHERE s.id = $1`,
		scheduleID,
	).Scan(&capacity, &booked)
	if err != nil {
		return nil, err
	}

	a := domain.NewAvailability(scheduleID, capacity, booked)
	return &a, nil
}
