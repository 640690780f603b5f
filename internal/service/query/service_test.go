package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirinyoku/busgo/internal/domain"
	boltrepo "github.com/kirinyoku/busgo/internal/repository/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *boltrepo.Store, int64) {
	t.Helper()
	ctx := context.Background()

	store, err := boltrepo.Open(filepath.Join(t.TempDir(), "busgo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	busID, err := store.Admin().CreateBus(ctx, domain.Bus{Name: "Skyways", Type: "AC", SeatType: "Sleeper", TotalSeats: 4})
	require.NoError(t, err)

	dep := time.Date(2026, 5, 2, 22, 0, 0, 0, time.UTC)
	id, err := store.Admin().CreateSchedule(ctx, domain.NewSchedule{
		BusID:           busID,
		FromCity:        "Peshawar",
		ToCity:          "Lahore",
		DepartureTime:   dep,
		ArrivalTime:     dep.Add(8 * time.Hour),
		DurationMinutes: 480,
		PriceCents:      300000,
	})
	require.NoError(t, err)

	return New(store.Schedules(), store.Admin(), nil, Config{}), store, id
}

func TestSearch_DefaultsPassengersAndMatchesAvailability(t *testing.T) {
	svc, store, id := setup(t)
	ctx := context.Background()

	require.NoError(t, store.Bookings().Insert(ctx, &domain.Booking{
		ScheduleID:     id,
		PassengerName:  "Hamza",
		PassengerEmail: "hamza@example.com",
		Seats:          3,
		AmountCents:    900000,
		PNR:            "0A0B0C0D",
	}))

	got, err := svc.Search(ctx, domain.SearchQuery{
		From: " peshawar ",
		To:   "lahore",
		Date: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	a, err := svc.Availability(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, a.Available, got[0].AvailableSeats)
	assert.Equal(t, 1, a.Available)

	got, err = svc.Search(ctx, domain.SearchQuery{
		From:       "Peshawar",
		To:         "Lahore",
		Date:       time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		Passengers: 2,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_Invalid(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Search(ctx, domain.SearchQuery{To: "Lahore", Date: day})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.Search(ctx, domain.SearchQuery{From: "Peshawar", To: "Lahore"})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.Search(ctx, domain.SearchQuery{From: "Peshawar", To: "Lahore", Date: day, Passengers: -1})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestAvailability_NotFound(t *testing.T) {
	svc, _, id := setup(t)

	_, err := svc.Availability(context.Background(), id+1)
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = svc.GetSchedule(context.Background(), id+1)
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	sch, err := svc.GetSchedule(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 4, sch.Capacity)
}
