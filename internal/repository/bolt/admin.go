package bolt

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
	bbolt "go.etcd.io/bbolt"
)

type routeRecord struct {
	ID         int64 `json:"id"`
	FromCityID int64 `json:"fromCityId"`
	ToCityID   int64 `json:"toCityId"`
	DistanceKm *int  `json:"distanceKm,omitempty"`
}

type AdminRepo struct {
	store *Store
}

func (r *AdminRepo) SaveRoute(ctx context.Context, in domain.NewRoute) (*domain.Route, error) {
	const op = "bolt.AdminRepo.SaveRoute"

	var out domain.Route

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		from, err := ensureCity(tx, in.From)
		if err != nil {
			return err
		}

		to, err := ensureCity(tx, in.To)
		if err != nil {
			return err
		}

		rt, err := ensureRoute(tx, from.ID, to.ID)
		if err != nil {
			return err
		}

		rt.DistanceKm = in.DistanceKm
		if err := putJSON(tx.Bucket(bucketRoutes), itob(rt.ID), rt); err != nil {
			return err
		}

		out = domain.Route{
			ID:         rt.ID,
			FromCityID: from.ID,
			ToCityID:   to.ID,
			FromCity:   from.Name,
			ToCity:     to.Name,
			DistanceKm: rt.DistanceKm,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &out, nil
}

func (r *AdminRepo) CreateBus(ctx context.Context, b domain.Bus) (int64, error) {
	const op = "bolt.AdminRepo.CreateBus"

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		buses := tx.Bucket(bucketBuses)

		id, err := nextID(buses)
		if err != nil {
			return err
		}

		b.ID = id
		return putJSON(buses, itob(id), b)
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return b.ID, nil
}

func (r *AdminRepo) GetBus(ctx context.Context, id int64) (*domain.Bus, error) {
	const op = "bolt.AdminRepo.GetBus"

	var b domain.Bus
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		ok, err := getJSON(tx.Bucket(bucketBuses), itob(id), &b)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &b, nil
}

// CreateSchedule inserts a schedule for an existing bus, creating the
// cities and the route on the way.
//
// Returns:
//   - error: repository.ErrNotFound if the bus does not exist.
func (r *AdminRepo) CreateSchedule(ctx context.Context, in domain.NewSchedule) (int64, error) {
	const op = "bolt.AdminRepo.CreateSchedule"

	var id int64

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketBuses).Get(itob(in.BusID)) == nil {
			return repository.ErrNotFound
		}

		from, err := ensureCity(tx, domain.City{Name: in.FromCity})
		if err != nil {
			return err
		}

		to, err := ensureCity(tx, domain.City{Name: in.ToCity})
		if err != nil {
			return err
		}

		rt, err := ensureRoute(tx, from.ID, to.ID)
		if err != nil {
			return err
		}

		schedules := tx.Bucket(bucketSchedules)

		id, err = nextID(schedules)
		if err != nil {
			return err
		}

		return putJSON(schedules, itob(id), scheduleRecord{
			ID:              id,
			BusID:           in.BusID,
			RouteID:         rt.ID,
			DepartureTime:   in.DepartureTime.UTC(),
			ArrivalTime:     in.ArrivalTime.UTC(),
			DurationMinutes: in.DurationMinutes,
			PriceCents:      in.PriceCents,
		})
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return id, nil
}

func (r *AdminRepo) ListCities(ctx context.Context) ([]domain.City, error) {
	const op = "bolt.AdminRepo.ListCities"

	out := []domain.City{}
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCities).ForEach(func(_, v []byte) error {
			var c domain.City
			if err := decode(v, &c); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (r *AdminRepo) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	const op = "bolt.AdminRepo.ListRoutes"

	out := []domain.Route{}
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRoutes).ForEach(func(_, v []byte) error {
			var rec routeRecord
			if err := decode(v, &rec); err != nil {
				return err
			}

			from, to, err := routeCityNames(tx, rec.ID)
			if err != nil {
				return err
			}

			out = append(out, domain.Route{
				ID:         rec.ID,
				FromCityID: rec.FromCityID,
				ToCityID:   rec.ToCityID,
				FromCity:   from,
				ToCity:     to,
				DistanceKm: rec.DistanceKm,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FromCity != out[j].FromCity {
			return out[i].FromCity < out[j].FromCity
		}
		return out[i].ToCity < out[j].ToCity
	})

	return out, nil
}

func (r *AdminRepo) ListBuses(ctx context.Context) ([]domain.Bus, error) {
	const op = "bolt.AdminRepo.ListBuses"

	out := []domain.Bus{}
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBuses).ForEach(func(_, v []byte) error {
			var b domain.Bus
			if err := decode(v, &b); err != nil {
				return err
			}
			out = append(out, b)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ensureCity returns the city with c.Name, matched case-insensitively,
// inserting it first when absent.
func ensureCity(tx *bbolt.Tx, c domain.City) (*domain.City, error) {
	names := tx.Bucket(bucketCityNames)
	cities := tx.Bucket(bucketCities)
	key := []byte(strings.ToLower(c.Name))

	if id := names.Get(key); id != nil {
		var existing domain.City
		ok, err := getJSON(cities, id, &existing)
		if err != nil {
			return nil, err
		}
		if ok {
			return &existing, nil
		}
	}

	if c.Country == "" {
		c.Country = "Pakistan"
	}

	id, err := nextID(cities)
	if err != nil {
		return nil, err
	}
	c.ID = id

	if err := putJSON(cities, itob(id), c); err != nil {
		return nil, err
	}
	if err := names.Put(key, itob(id)); err != nil {
		return nil, err
	}

	return &c, nil
}

func ensureRoute(tx *bbolt.Tx, fromID, toID int64) (*routeRecord, error) {
	pairs := tx.Bucket(bucketRoutePairs)
	routes := tx.Bucket(bucketRoutes)
	key := pairKey(fromID, toID)

	if id := pairs.Get(key); id != nil {
		var rt routeRecord
		ok, err := getJSON(routes, id, &rt)
		if err != nil {
			return nil, err
		}
		if ok {
			return &rt, nil
		}
	}

	id, err := nextID(routes)
	if err != nil {
		return nil, err
	}

	rt := routeRecord{ID: id, FromCityID: fromID, ToCityID: toID}
	if err := putJSON(routes, itob(id), rt); err != nil {
		return nil, err
	}
	if err := pairs.Put(key, itob(id)); err != nil {
		return nil, err
	}

	return &rt, nil
}
