package ports

import (
	"context"

	"github.com/kirinyoku/busgo/internal/domain"
)

type AdminRepo interface {
	SaveRoute(ctx context.Context, r domain.NewRoute) (*domain.Route, error)
	CreateBus(ctx context.Context, b domain.Bus) (int64, error)
	GetBus(ctx context.Context, id int64) (*domain.Bus, error)
	// CreateSchedule ensures both cities and the route exist, then inserts
	// the schedule, all in one transaction.
	CreateSchedule(ctx context.Context, s domain.NewSchedule) (int64, error)
	ListCities(ctx context.Context) ([]domain.City, error)
	ListRoutes(ctx context.Context) ([]domain.Route, error)
	ListBuses(ctx context.Context) ([]domain.Bus, error)
}
