package ports

import (
	"context"

	"github.com/kirinyoku/busgo/internal/domain"
)

type MessageRepo interface {
	CreateContact(ctx context.Context, m *domain.ContactMessage) error
	ListContacts(ctx context.Context) ([]domain.ContactMessage, error)
	ReplyContact(ctx context.Context, id int64, reply string) error
	CreateFeedback(ctx context.Context, f *domain.Feedback) error
	ListFeedback(ctx context.Context) ([]domain.Feedback, error)
}
