package bolt

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
	bbolt "go.etcd.io/bbolt"
)

type scheduleRecord struct {
	ID              int64     `json:"id"`
	BusID           int64     `json:"busId"`
	RouteID         int64     `json:"routeId"`
	DepartureTime   time.Time `json:"departureTime"`
	ArrivalTime     time.Time `json:"arrivalTime"`
	DurationMinutes int       `json:"durationMinutes"`
	PriceCents      int64     `json:"priceCents"`
}

type ScheduleRepo struct {
	store *Store
}

func (r *ScheduleRepo) Get(ctx context.Context, id int64) (*domain.Schedule, error) {
	const op = "bolt.ScheduleRepo.Get"

	var out *domain.Schedule
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		s, err := loadSchedule(tx, id)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *ScheduleRepo) Availability(ctx context.Context, scheduleID int64) (*domain.Availability, error) {
	const op = "bolt.ScheduleRepo.Availability"

	var out *domain.Availability
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		a, err := availability(tx, scheduleID)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Search scans every schedule. The embedded backend is meant for small
// data sets.
func (r *ScheduleRepo) Search(ctx context.Context, q domain.SearchQuery) ([]domain.ScheduleSummary, error) {
	const op = "bolt.ScheduleRepo.Search"

	y, m, d := q.Date.UTC().Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	out := []domain.ScheduleSummary{}

	err := r.store.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSchedules).ForEach(func(_, v []byte) error {
			var rec scheduleRecord
			if err := decode(v, &rec); err != nil {
				return err
			}

			dep := rec.DepartureTime.UTC()
			if dep.Before(dayStart) || !dep.Before(dayEnd) {
				return nil
			}

			from, to, err := routeCityNames(tx, rec.RouteID)
			if err != nil {
				return err
			}
			if !strings.EqualFold(from, q.From) || !strings.EqualFold(to, q.To) {
				return nil
			}

			var bus domain.Bus
			ok, err := getJSON(tx.Bucket(bucketBuses), itob(rec.BusID), &bus)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			booked, err := bookedSeats(tx, rec.ID)
			if err != nil {
				return err
			}

			available := bus.TotalSeats - booked
			if available < q.Passengers {
				return nil
			}

			out = append(out, domain.ScheduleSummary{
				ScheduleID:      rec.ID,
				BusID:           bus.ID,
				BusName:         bus.Name,
				BusType:         bus.Type,
				SeatType:        bus.SeatType,
				DepartureTime:   rec.DepartureTime,
				ArrivalTime:     rec.ArrivalTime,
				DurationMinutes: rec.DurationMinutes,
				PriceCents:      rec.PriceCents,
				AvailableSeats:  available,
				TotalSeats:      bus.TotalSeats,
				FromCity:        from,
				ToCity:          to,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DepartureTime.Equal(out[j].DepartureTime) {
			return out[i].DepartureTime.Before(out[j].DepartureTime)
		}
		return out[i].ScheduleID < out[j].ScheduleID
	})

	return out, nil
}

func loadSchedule(tx *bbolt.Tx, id int64) (*domain.Schedule, error) {
	var rec scheduleRecord
	ok, err := getJSON(tx.Bucket(bucketSchedules), itob(id), &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	var bus domain.Bus
	ok, err = getJSON(tx.Bucket(bucketBuses), itob(rec.BusID), &bus)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &domain.Schedule{
		ID:              rec.ID,
		BusID:           rec.BusID,
		RouteID:         rec.RouteID,
		DepartureTime:   rec.DepartureTime,
		ArrivalTime:     rec.ArrivalTime,
		DurationMinutes: rec.DurationMinutes,
		PriceCents:      rec.PriceCents,
		Capacity:        bus.TotalSeats,
	}, nil
}

func availability(tx *bbolt.Tx, scheduleID int64) (*domain.Availability, error) {
	s, err := loadSchedule(tx, scheduleID)
	if err != nil {
		return nil, err
	}

	booked, err := bookedSeats(tx, scheduleID)
	if err != nil {
		return nil, err
	}

	a := domain.NewAvailability(scheduleID, s.Capacity, booked)
	return &a, nil
}

// bookedSeats sums the seats of the Confirmed bookings on a schedule. Both
// the booking insert and every read of availability go through it.
func bookedSeats(tx *bbolt.Tx, scheduleID int64) (int, error) {
	bookings := tx.Bucket(bucketBookings)
	prefix := itob(scheduleID)

	total := 0
	c := tx.Bucket(bucketScheduleBookings).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		var b domain.Booking
		ok, err := getJSON(bookings, k[8:], &b)
		if err != nil {
			return 0, err
		}
		if ok && b.Status == domain.BookingConfirmed {
			total += b.Seats
		}
	}

	return total, nil
}

func routeCityNames(tx *bbolt.Tx, routeID int64) (string, string, error) {
	var rt routeRecord
	ok, err := getJSON(tx.Bucket(bucketRoutes), itob(routeID), &rt)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", repository.ErrNotFound
	}

	from, err := cityName(tx, rt.FromCityID)
	if err != nil {
		return "", "", err
	}

	to, err := cityName(tx, rt.ToCityID)
	if err != nil {
		return "", "", err
	}

	return from, to, nil
}

func cityName(tx *bbolt.Tx, id int64) (string, error) {
	var c domain.City
	ok, err := getJSON(tx.Bucket(bucketCities), itob(id), &c)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", repository.ErrNotFound
	}
	return c.Name, nil
}
