package ports

import (
	"context"

	"github.com/kirinyoku/busgo/internal/domain"
)

type ScheduleRepo interface {
	Get(ctx context.Context, id int64) (*domain.Schedule, error)
	Availability(ctx context.Context, scheduleID int64) (*domain.Availability, error)
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.ScheduleSummary, error)
}
