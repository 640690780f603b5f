package bolt

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "busgo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func seedSchedule(t *testing.T, s *Store, seats int, dep time.Time) int64 {
	t.Helper()
	ctx := context.Background()

	busID, err := s.Admin().CreateBus(ctx, domain.Bus{
		Name:       "Daewoo Express",
		Type:       "AC",
		SeatType:   "Seater",
		TotalSeats: seats,
	})
	require.NoError(t, err)

	id, err := s.Admin().CreateSchedule(ctx, domain.NewSchedule{
		BusID:           busID,
		FromCity:        "Lahore",
		ToCity:          "Islamabad",
		DepartureTime:   dep,
		ArrivalTime:     dep.Add(5 * time.Hour),
		DurationMinutes: 300,
		PriceCents:      250000,
	})
	require.NoError(t, err)

	return id
}

func newBooking(scheduleID int64, pnr string, seats int) *domain.Booking {
	return &domain.Booking{
		ScheduleID:     scheduleID,
		PassengerName:  "Ali Khan",
		PassengerEmail: "ali@example.com",
		Seats:          seats,
		AmountCents:    int64(seats) * 250000,
		PNR:            pnr,
	}
}

func TestBookingRepo_InsertAndAvailability(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedSchedule(t, s, 40, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	b := newBooking(id, "A1B2C3D4", 3)
	require.NoError(t, s.Bookings().Insert(ctx, b))

	assert.NotZero(t, b.ID)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.False(t, b.CreatedAt.IsZero())

	a, err := s.Schedules().Availability(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Availability{ScheduleID: id, Capacity: 40, Booked: 3, Available: 37}, *a)
}

func TestBookingRepo_InsertCapacityExceeded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedSchedule(t, s, 2, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, s.Bookings().Insert(ctx, newBooking(id, "00000001", 2)))

	b := newBooking(id, "00000002", 1)
	err := s.Bookings().Insert(ctx, b)
	require.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.Zero(t, b.ID)

	_, err = s.Bookings().GetByPNR(ctx, "00000002")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepo_InsertUnknownSchedule(t *testing.T) {
	s := newTestStore(t)

	err := s.Bookings().Insert(context.Background(), newBooking(99, "00000001", 1))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepo_InsertDuplicatePNR(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedSchedule(t, s, 40, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, s.Bookings().Insert(ctx, newBooking(id, "DEADBEEF", 1)))

	err := s.Bookings().Insert(ctx, newBooking(id, "DEADBEEF", 1))
	require.ErrorIs(t, err, repository.ErrConflict)

	a, err := s.Schedules().Availability(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Booked)
}

func TestBookingRepo_CancelReleasesSeats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedSchedule(t, s, 10, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, s.Bookings().Insert(ctx, newBooking(id, "CAFEBABE", 10)))

	b, err := s.Bookings().Cancel(ctx, "CAFEBABE")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, b.Status)
	require.NotNil(t, b.CancelledAt)

	a, err := s.Schedules().Availability(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, a.Available)

	_, err = s.Bookings().Cancel(ctx, "CAFEBABE")
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)

	_, err = s.Bookings().Cancel(ctx, "FFFFFFFF")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepo_ConcurrentInsertsNeverOversell(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const capacity, workers = 10, 40
	id := seedSchedule(t, s, capacity, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Bookings().Insert(ctx, newBooking(id, fmt.Sprintf("%08X", i), 1))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, repository.ErrCapacityExceeded)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, capacity, success)

	a, err := s.Schedules().Availability(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, capacity, a.Booked)
	assert.Zero(t, a.Available)
}

func TestBookingRepo_ListByEmailNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedSchedule(t, s, 40, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	require.NoError(t, s.Bookings().Insert(ctx, newBooking(id, "00000001", 1)))
	require.NoError(t, s.Bookings().Insert(ctx, newBooking(id, "00000002", 2)))

	other := newBooking(id, "00000003", 1)
	other.PassengerEmail = "sara@example.com"
	require.NoError(t, s.Bookings().Insert(ctx, other))

	got, err := s.Bookings().ListByEmail(ctx, "ALI@example.com")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "00000002", got[0].PNR)
	assert.Equal(t, "00000001", got[1].PNR)
	assert.Equal(t, "Lahore", got[0].FromCity)
	assert.Equal(t, "Islamabad", got[0].ToCity)
	assert.Equal(t, "Daewoo Express", got[0].BusName)

	none, err := s.Bookings().ListByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	page, err := s.Bookings().List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "00000002", page[0].PNR)
}

func TestScheduleRepo_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	late := seedSchedule(t, s, 40, day.Add(18*time.Hour))
	early := seedSchedule(t, s, 2, day.Add(6*time.Hour))
	seedSchedule(t, s, 40, day.Add(30*time.Hour))

	got, err := s.Schedules().Search(ctx, domain.SearchQuery{
		From:       "lahore",
		To:         "ISLAMABAD",
		Date:       day,
		Passengers: 1,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, early, got[0].ScheduleID)
	assert.Equal(t, late, got[1].ScheduleID)
	assert.Equal(t, 2, got[0].AvailableSeats)

	got, err = s.Schedules().Search(ctx, domain.SearchQuery{
		From:       "Lahore",
		To:         "Islamabad",
		Date:       day,
		Passengers: 3,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, late, got[0].ScheduleID)

	got, err = s.Schedules().Search(ctx, domain.SearchQuery{
		From:       "Islamabad",
		To:         "Lahore",
		Date:       day,
		Passengers: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAdminRepo_SaveRouteReusesCities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	km := 380
	r1, err := s.Admin().SaveRoute(ctx, domain.NewRoute{
		From: domain.City{Name: "Lahore"},
		To:   domain.City{Name: "Islamabad"},
	})
	require.NoError(t, err)

	r2, err := s.Admin().SaveRoute(ctx, domain.NewRoute{
		From:       domain.City{Name: "lahore"},
		To:         domain.City{Name: "Islamabad"},
		DistanceKm: &km,
	})
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ID)

	cities, err := s.Admin().ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "Islamabad", cities[0].Name)
	assert.Equal(t, "Pakistan", cities[0].Country)

	routes, err := s.Admin().ListRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.NotNil(t, routes[0].DistanceKm)
	assert.Equal(t, 380, *routes[0].DistanceKm)
}

func TestAdminRepo_CreateScheduleUnknownBus(t *testing.T) {
	s := newTestStore(t)

	dep := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	_, err := s.Admin().CreateSchedule(context.Background(), domain.NewSchedule{
		BusID:         7,
		FromCity:      "Lahore",
		ToCity:        "Multan",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(time.Hour),
		PriceCents:    100,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMessageRepo_ContactReply(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := &domain.ContactMessage{Name: "Sara", Email: "sara@example.com", Message: "Refund?"}
	require.NoError(t, s.Messages().CreateContact(ctx, m))
	assert.Equal(t, domain.ContactNew, m.Status)

	require.NoError(t, s.Messages().ReplyContact(ctx, m.ID, "Processed."))

	list, err := s.Messages().ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ContactReplied, list[0].Status)
	require.NotNil(t, list[0].AdminReply)
	assert.Equal(t, "Processed.", *list[0].AdminReply)

	assert.ErrorIs(t, s.Messages().ReplyContact(ctx, 42, "x"), repository.ErrNotFound)
}
