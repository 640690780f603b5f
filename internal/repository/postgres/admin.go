package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/busgo/internal/domain"
)

type AdminRepo struct {
	store *Store
}

func (r *AdminRepo) handle() DB {
	return r.store.pool
}

func (r *AdminRepo) inTx(ctx context.Context, fn func(ctx context.Context, tx DB) error) error {
	return r.store.RunTx(ctx, nil, fn)
}

// SaveRoute creates both cities when missing and inserts the route, or
// updates its distance when the pair already exists.
func (r *AdminRepo) SaveRoute(ctx context.Context, in domain.NewRoute) (*domain.Route, error) {
	const op = "postgres.AdminRepo.SaveRoute"

	var out domain.Route

	err := r.inTx(ctx, func(ctx context.Context, tx DB) error {
		fromID, err := ensureCity(ctx, tx, in.From)
		if err != nil {
			return err
		}

		toID, err := ensureCity(ctx, tx, in.To)
		if err != nil {
			return err
		}

		out = domain.Route{
			FromCityID: fromID,
			ToCityID:   toID,
			FromCity:   in.From.Name,
			ToCity:     in.To.Name,
			DistanceKm: in.DistanceKm,
		}

		return tx.QueryRow(ctx,
			`INSERT INTO routes (from_city_id, to_city_id, distance_km)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (from_city_id, to_city_id)
			 DO UPDATE SET distance_km = EXCLUDED.distance_km
			 RETURNING id`,
			fromID, toID, in.DistanceKm,
		).Scan(&out.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &out, nil
}

func (r *AdminRepo) CreateBus(ctx context.Context, b domain.Bus) (int64, error) {
	const op = "postgres.AdminRepo.CreateBus"

	var id int64
	if err := r.handle().QueryRow(ctx,
		`INSERT INTO buses (bus_name, bus_type, seat_type, total_seats)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		b.Name, b.Type, b.SeatType, b.TotalSeats,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *AdminRepo) GetBus(ctx context.Context, id int64) (*domain.Bus, error) {
	const op = "postgres.AdminRepo.GetBus"

	var b domain.Bus
	if err := r.handle().QueryRow(ctx,
		`SELECT id, bus_name, bus_type, seat_type, total_seats
		 FROM buses WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.Type, &b.SeatType, &b.TotalSeats); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// CreateSchedule inserts a schedule for an existing bus, creating the
// cities and the route on the way.
//
// Returns:
//   - int64: the created schedule ID.
//   - error: repository.ErrNotFound if the bus does not exist.
func (r *AdminRepo) CreateSchedule(ctx context.Context, in domain.NewSchedule) (int64, error) {
	const op = "postgres.AdminRepo.CreateSchedule"

	var id int64

	err := r.inTx(ctx, func(ctx context.Context, tx DB) error {
		var busID int64
		if err := tx.QueryRow(ctx,
			`SELECT id FROM buses WHERE id = $1`,
			in.BusID,
		).Scan(&busID); err != nil {
			return err
		}

		fromID, err := ensureCity(ctx, tx, domain.City{Name: in.FromCity})
		if err != nil {
			return err
		}

		toID, err := ensureCity(ctx, tx, domain.City{Name: in.ToCity})
		if err != nil {
			return err
		}

		routeID, err := ensureRoute(ctx, tx, fromID, toID)
		if err != nil {
			return err
		}

		return tx.QueryRow(ctx,
			`INSERT INTO schedules
			    (bus_id, route_id, departure_time, arrival_time, duration_minutes, price_cents)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			busID, routeID, in.DepartureTime, in.ArrivalTime, in.DurationMinutes, in.PriceCents,
		).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *AdminRepo) ListCities(ctx context.Context) ([]domain.City, error) {
	const op = "postgres.AdminRepo.ListCities"

	rows, err := r.handle().Query(ctx,
		`SELECT id, name, country, state FROM cities ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := []domain.City{}
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.State); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *AdminRepo) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	const op = "postgres.AdminRepo.ListRoutes"

	rows, err := r.handle().Query(ctx,
		`SELECT r.id, r.from_city_id, r.to_city_id, cf.name, ct.name, r.distance_km
		 FROM routes r
		 JOIN cities cf ON cf.id = r.from_city_id
		 JOIN cities ct ON ct.id = r.to_city_id
		 ORDER BY cf.name, ct.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := []domain.Route{}
	for rows.Next() {
		var rt domain.Route
		if err := rows.Scan(
			&rt.ID,
			&rt.FromCityID,
			&rt.ToCityID,
			&rt.FromCity,
			&rt.ToCity,
			&rt.DistanceKm,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *AdminRepo) ListBuses(ctx context.Context) ([]domain.Bus, error) {
	const op = "postgres.AdminRepo.ListBuses"

	rows, err := r.handle().Query(ctx,
		`SELECT id, bus_name, bus_type, seat_type, total_seats FROM buses ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := []domain.Bus{}
	for rows.Next() {
		var b domain.Bus
		if err := rows.Scan(&b.ID, &b.Name, &b.Type, &b.SeatType, &b.TotalSeats); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func ensureCity(ctx context.Context, db DB, c domain.City) (int64, error) {
	country := c.Country
	if country == "" {
		country = "Pakistan"
	}

	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO cities (name, country, state)
		 VALUES ($1, $2, $3)
		 ON CONFLICT ((lower(name))) DO NOTHING
		 RETURNING id`,
		c.Name, country, c.State,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	err = db.QueryRow(ctx,
		`SELECT id FROM cities WHERE lower(name) = lower($1)`,
		c.Name,
	).Scan(&id)

	return id, err
}

func ensureRoute(ctx context.Context, db DB, fromID, toID int64) (int64, error) {
	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO routes (from_city_id, to_city_id)
		 VALUES ($1, $2)
		 ON CONFLICT (from_city_id, to_city_id) DO NOTHING
		 RETURNING id`,
		fromID, toID,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	err = db.QueryRow(ctx,
		`SELECT id FROM routes WHERE from_city_id = $1 AND to_city_id = $2`,
		fromID, toID,
	).Scan(&id)

	return id, err
}
