package ports

import (
	"context"

	"github.com/kirinyoku/busgo/internal/domain"
)

// BookingRepo is the booking ledger. Insert and Cancel serialize with every
// other Insert and Cancel on the same schedule.
type BookingRepo interface {
	// Insert records b as Confirmed when the schedule still has b.Seats free.
	// It fills b.ID and b.CreatedAt and returns repository.ErrCapacityExceeded,
	// repository.ErrNotFound for an unknown schedule or repository.ErrConflict
	// when the PNR is taken.
	Insert(ctx context.Context, b *domain.Booking) error
	Cancel(ctx context.Context, pnr string) (*domain.Booking, error)
	GetByPNR(ctx context.Context, pnr string) (*domain.BookingView, error)
	ListByEmail(ctx context.Context, email string) ([]domain.BookingView, error)
	List(ctx context.Context, limit, offset int) ([]domain.BookingView, error)
}
