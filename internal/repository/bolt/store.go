// Package bolt implements the repository ports on top of a single bbolt
// file.
//
// Every write goes through db.Update, which bbolt runs one at a time. The
// availability check and the insert of a booking therefore always observe
// the same ledger, for every schedule at once.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirinyoku/busgo/internal/service/ports"
	bbolt "go.etcd.io/bbolt"
)

var (
	bucketCities           = []byte("cities")
	bucketCityNames        = []byte("city_names")
	bucketRoutes           = []byte("routes")
	bucketRoutePairs       = []byte("route_pairs")
	bucketBuses            = []byte("buses")
	bucketSchedules        = []byte("schedules")
	bucketBookings         = []byte("bookings")
	bucketPNRs             = []byte("pnrs")
	bucketScheduleBookings = []byte("schedule_bookings")
	bucketContacts         = []byte("contact_messages")
	bucketFeedback         = []byte("feedback")
)

type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the database file at path and makes sure every
// bucket exists.
func Open(path string) (*Store, error) {
	const op = "bolt.Open"

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{
			bucketCities,
			bucketCityNames,
			bucketRoutes,
			bucketRoutePairs,
			bucketBuses,
			bucketSchedules,
			bucketBookings,
			bucketPNRs,
			bucketScheduleBookings,
			bucketContacts,
			bucketFeedback,
		}

		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Ping checks that the file is still open.
func (s *Store) Ping() error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Bookings() *BookingRepo   { return &BookingRepo{store: s} }
func (s *Store) Schedules() *ScheduleRepo { return &ScheduleRepo{store: s} }
func (s *Store) Admin() *AdminRepo        { return &AdminRepo{store: s} }
func (s *Store) Messages() *MessageRepo   { return &MessageRepo{store: s} }

// itob encodes an id as 8 big-endian bytes so keys iterate in id order.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func pairKey(a, b int64) []byte {
	return append(itob(a), itob(b)...)
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// getJSON decodes the value under key into v and reports whether it was
// present.
func getJSON(b *bbolt.Bucket, key []byte, v any) (bool, error) {
	data := b.Get(key)
	if data == nil {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

func decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func nextID(b *bbolt.Bucket) (int64, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	return int64(seq), nil
}

var (
	_ ports.BookingRepo  = (*BookingRepo)(nil)
	_ ports.ScheduleRepo = (*ScheduleRepo)(nil)
	_ ports.AdminRepo    = (*AdminRepo)(nil)
	_ ports.MessageRepo  = (*MessageRepo)(nil)
)
