package admin

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

func newService(t *testing.T) (*Service, *boltrepo.Store) {
	t.Helper()

	store, err := boltrepo.Open(filepath.Join(t.TempDir(), "busgo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store.Admin(), store.Bookings(), nil), store
}

func TestCreateBus_Defaults(t *testing.T) {
	svc, _ := newService(t)

	b, err := svc.CreateBus(context.Background(), domain.Bus{Name: " Road Master "})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, "Road Master", b.Name)
	assert.Equal(t, "AC", b.Type)
	assert.Equal(t, "Seater", b.SeatType)
	assert.Equal(t, 40, b.TotalSeats)

	_, err = svc.CreateBus(context.Background(), domain.Bus{Name: "X", TotalSeats: -2})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateBus(context.Background(), domain.Bus{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSaveRoute_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SaveRoute(ctx, SaveRouteInput{FromCity: "Quetta", ToCity: "quetta"})
	assert.ErrorIs(t, err, ErrSameCity)

	_, err = svc.SaveRoute(ctx, SaveRouteInput{FromCity: "Quetta"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	zero := 0
	_, err = svc.SaveRoute(ctx, SaveRouteInput{FromCity: "Quetta", ToCity: "Sukkur", DistanceKm: &zero})
	assert.ErrorIs(t, err, ErrInvalidInput)

	rt, err := svc.SaveRoute(ctx, SaveRouteInput{FromCity: "Quetta", ToCity: "Sukkur"})
	require.NoError(t, err)
	assert.Equal(t, "Quetta", rt.FromCity)
}

func TestCreateSchedule(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	bus, err := svc.CreateBus(ctx, domain.Bus{Name: "Bilal Travels", TotalSeats: 30})
	require.NoError(t, err)

	dep := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)

	id, err := svc.CreateSchedule(ctx, CreateScheduleInput{
		BusID:         bus.ID,
		FromCity:      "Multan",
		ToCity:        "Faisalabad",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(40 * time.Minute),
		PriceCents:    90000,
	})
	require.NoError(t, err)

	sch, err := store.Schedules().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 60, sch.DurationMinutes)
	assert.Equal(t, 30, sch.Capacity)

	id, err = svc.CreateSchedule(ctx, CreateScheduleInput{
		BusID:         bus.ID,
		FromCity:      "multan",
		ToCity:        "faisalabad",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(210 * time.Minute),
		PriceCents:    90000,
	})
	require.NoError(t, err)

	sch, err = store.Schedules().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 210, sch.DurationMinutes)

	routes, err := svc.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 1)

	_, err = svc.CreateSchedule(ctx, CreateScheduleInput{
		BusID:         bus.ID + 10,
		FromCity:      "Multan",
		ToCity:        "Faisalabad",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(time.Hour),
		PriceCents:    90000,
	})
	assert.ErrorIs(t, err, ErrBusNotFound)

	_, err = svc.CreateSchedule(ctx, CreateScheduleInput{
		BusID:         bus.ID,
		FromCity:      "Multan",
		ToCity:        "Faisalabad",
		DepartureTime: dep,
		ArrivalTime:   dep,
		PriceCents:    90000,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListBookings_Paging(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	bus, err := svc.CreateBus(ctx, domain.Bus{Name: "Niazi Express"})
	require.NoError(t, err)

	dep := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	id, err := svc.CreateSchedule(ctx, CreateScheduleInput{
		BusID:         bus.ID,
		FromCity:      "Lahore",
		ToCity:        "Sialkot",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(2 * time.Hour),
		PriceCents:    50000,
	})
	require.NoError(t, err)

	for _, pnr := range []string{"00000001", "00000002", "00000003"} {
		require.NoError(t, store.Bookings().Insert(ctx, &domain.Booking{
			ScheduleID:     id,
			PassengerName:  "Usman",
			PassengerEmail: "usman@example.com",
			Seats:          1,
			AmountCents:    50000,
			PNR:            pnr,
		}))
	}

	page, err := svc.ListBookings(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = svc.ListBookings(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "00000001", page[0].PNR)
}
