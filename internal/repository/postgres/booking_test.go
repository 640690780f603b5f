package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
)

var (
	sqlLockSchedule  = regexp.QuoteMeta(`SELECT id FROM schedules WHERE id = $1 FOR UPDATE`)
	sqlAvailability  = regexp.QuoteMeta(`SELECT b.total_seats, agg.booked`)
	sqlInsertBooking = regexp.QuoteMeta(`INSERT INTO bookings`)
	sqlBookingSched  = regexp.QuoteMeta(`SELECT schedule_id FROM bookings WHERE pnr = $1`)
	sqlCancelBooking = regexp.QuoteMeta(`UPDATE bookings`)

	serializableRW = pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewStore(mock), mock
}

func newBooking() *domain.Booking {
	return &domain.Booking{
		ScheduleID:     7,
		PassengerName:  "Ayesha Khan",
		PassengerEmail: "ayesha@example.com",
		Seats:          2,
		AmountCents:    600000,
		PNR:            "AB12CD34",
	}
}

func expectLockAndCount(mock pgxmock.PgxPoolIface, capacity, booked int) {
	mock.ExpectQuery(sqlLockSchedule).
		WithArgs(int64(7)).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(sqlAvailability).
		WithArgs(int64(7)).
		WillReturnRows(mock.NewRows([]string{"total_seats", "booked"}).AddRow(capacity, booked))
}

func TestBookingInsert_LocksCountsAndInserts(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectBeginTx(serializableRW)
	expectLockAndCount(mock, 40, 38)
	mock.ExpectQuery(sqlInsertBooking).
		WithArgs(int64(7), "Ayesha Khan", "ayesha@example.com", pgxmock.AnyArg(),
			2, int64(600000), "AB12CD34", "Confirmed").
		WillReturnRows(mock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), created))
	mock.ExpectCommit()

	b := newBooking()
	require.NoError(t, store.Bookings().Insert(context.Background(), b))

	assert.Equal(t, int64(11), b.ID)
	assert.Equal(t, created, b.CreatedAt)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingInsert_CapacityExceeded(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBeginTx(serializableRW)
	expectLockAndCount(mock, 40, 39)
	mock.ExpectRollback()

	err := store.Bookings().Insert(context.Background(), newBooking())
	assert.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingInsert_UnknownSchedule(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBeginTx(serializableRW)
	mock.ExpectQuery(sqlLockSchedule).
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := store.Bookings().Insert(context.Background(), newBooking())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingInsert_PNRTaken(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBeginTx(serializableRW)
	expectLockAndCount(mock, 40, 0)
	mock.ExpectQuery(sqlInsertBooking).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_pnr_key"})
	mock.ExpectRollback()

	err := store.Bookings().Insert(context.Background(), newBooking())
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingInsert_RetriesSerializationFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBeginTx(serializableRW)
	mock.ExpectQuery(sqlLockSchedule).
		WithArgs(int64(7)).
		WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()

	mock.ExpectBeginTx(serializableRW)
	expectLockAndCount(mock, 40, 0)
	mock.ExpectQuery(sqlInsertBooking).
		WillReturnRows(mock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), time.Now().UTC()))
	mock.ExpectCommit()

	b := newBooking()
	require.NoError(t, store.Bookings().Insert(context.Background(), b))
	assert.Equal(t, int64(12), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCancel(t *testing.T) {
	created := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	cancelled := created.Add(time.Hour)
	phone := "+92 300 1234567"

	bookingCols := []string{
		"id", "schedule_id", "passenger_name", "passenger_email",
		"passenger_phone", "seats", "amount_cents", "pnr", "status",
		"created_at", "cancelled_at",
	}

	t.Run("confirmed booking", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBeginTx(serializableRW)
		mock.ExpectQuery(sqlBookingSched).
			WithArgs("AB12CD34").
			WillReturnRows(mock.NewRows([]string{"schedule_id"}).AddRow(int64(7)))
		mock.ExpectQuery(sqlLockSchedule).
			WithArgs(int64(7)).
			WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(7)))
		mock.ExpectQuery(sqlCancelBooking).
			WithArgs("AB12CD34", "Cancelled", "Confirmed").
			WillReturnRows(mock.NewRows(bookingCols).AddRow(
				int64(11), int64(7), "Ayesha Khan", "ayesha@example.com",
				&phone, 2, int64(600000), "AB12CD34", "Cancelled",
				created, &cancelled,
			))
		mock.ExpectCommit()

		b, err := store.Bookings().Cancel(context.Background(), "AB12CD34")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, b.Status)
		assert.Equal(t, int64(7), b.ScheduleID)
		require.NotNil(t, b.CancelledAt)
		assert.Equal(t, cancelled, *b.CancelledAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already cancelled", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBeginTx(serializableRW)
		mock.ExpectQuery(sqlBookingSched).
			WithArgs("AB12CD34").
			WillReturnRows(mock.NewRows([]string{"schedule_id"}).AddRow(int64(7)))
		mock.ExpectQuery(sqlLockSchedule).
			WithArgs(int64(7)).
			WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(7)))
		mock.ExpectQuery(sqlCancelBooking).
			WithArgs("AB12CD34", "Cancelled", "Confirmed").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := store.Bookings().Cancel(context.Background(), "AB12CD34")
		assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown pnr", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBeginTx(serializableRW)
		mock.ExpectQuery(sqlBookingSched).
			WithArgs("NOPE0000").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := store.Bookings().Cancel(context.Background(), "NOPE0000")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
