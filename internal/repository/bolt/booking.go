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

type BookingRepo struct {
	store *Store
}

// Insert books seats on a schedule inside one write transaction.
//
// Returns:
//   - error: repository.ErrNotFound if the schedule does not exist.
//   - error: repository.ErrCapacityExceeded if fewer than b.Seats remain.
//   - error: repository.ErrConflict if the PNR is already taken.
func (r *BookingRepo) Insert(ctx context.Context, b *domain.Booking) error {
	const op = "bolt.BookingRepo.Insert"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		pnrs := tx.Bucket(bucketPNRs)
		if pnrs.Get([]byte(b.PNR)) != nil {
			return repository.ErrConflict
		}

		avail, err := availability(tx, b.ScheduleID)
		if err != nil {
			return err
		}

		if b.Seats > avail.Available {
			return repository.ErrCapacityExceeded
		}

		bookings := tx.Bucket(bucketBookings)

		id, err := nextID(bookings)
		if err != nil {
			return err
		}

		rec := *b
		rec.ID = id
		rec.Status = domain.BookingConfirmed
		rec.CreatedAt = r.store.now()
		rec.CancelledAt = nil

		if err := putJSON(bookings, itob(id), rec); err != nil {
			return err
		}
		if err := pnrs.Put([]byte(rec.PNR), itob(id)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketScheduleBookings).Put(pairKey(rec.ScheduleID, id), nil); err != nil {
			return err
		}

		*b = rec
		return nil
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
	const op = "bolt.BookingRepo.Cancel"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var out domain.Booking

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketPNRs).Get([]byte(pnr))
		if id == nil {
			return repository.ErrNotFound
		}

		bookings := tx.Bucket(bucketBookings)

		ok, err := getJSON(bookings, id, &out)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}

		if out.Status != domain.BookingConfirmed {
			return repository.ErrAlreadyCancelled
		}

		now := r.store.now()
		out.Status = domain.BookingCancelled
		out.CancelledAt = &now

		return putJSON(bookings, id, out)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &out, nil
}

func (r *BookingRepo) GetByPNR(ctx context.Context, pnr string) (*domain.BookingView, error) {
	const op = "bolt.BookingRepo.GetByPNR"

	var out *domain.BookingView

	err := r.store.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketPNRs).Get([]byte(pnr))
		if id == nil {
			return repository.ErrNotFound
		}

		var b domain.Booking
		ok, err := getJSON(tx.Bucket(bucketBookings), id, &b)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}

		v, err := bookingView(tx, b)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ListByEmail returns every booking of a passenger, newest first.
func (r *BookingRepo) ListByEmail(ctx context.Context, email string) ([]domain.BookingView, error) {
	const op = "bolt.BookingRepo.ListByEmail"

	out, err := r.collect(func(b *domain.Booking) bool {
		return strings.EqualFold(b.PassengerEmail, email)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *BookingRepo) List(ctx context.Context, limit, offset int) ([]domain.BookingView, error) {
	const op = "bolt.BookingRepo.List"

	out, err := r.collect(func(*domain.Booking) bool { return true })
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if offset >= len(out) {
		return []domain.BookingView{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}

	return out, nil
}

func (r *BookingRepo) collect(keep func(*domain.Booking) bool) ([]domain.BookingView, error) {
	out := []domain.BookingView{}

	err := r.store.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBookings).ForEach(func(_, v []byte) error {
			var b domain.Booking
			if err := decode(v, &b); err != nil {
				return err
			}
			if !keep(&b) {
				return nil
			}

			view, err := bookingView(tx, b)
			if err != nil {
				return err
			}
			out = append(out, *view)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func bookingView(tx *bbolt.Tx, b domain.Booking) (*domain.BookingView, error) {
	var rec scheduleRecord
	ok, err := getJSON(tx.Bucket(bucketSchedules), itob(b.ScheduleID), &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	from, to, err := routeCityNames(tx, rec.RouteID)
	if err != nil {
		return nil, err
	}

	var bus domain.Bus
	if _, err := getJSON(tx.Bucket(bucketBuses), itob(rec.BusID), &bus); err != nil {
		return nil, err
	}

	return &domain.BookingView{
		Booking:       b,
		DepartureTime: rec.DepartureTime,
		ArrivalTime:   rec.ArrivalTime,
		FromCity:      from,
		ToCity:        to,
		BusName:       bus.Name,
	}, nil
}
