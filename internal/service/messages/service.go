// Package messages handles contact messages and feedback from the public
// site and their admin review.
package messages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
	"github.com/kirinyoku/busgo/internal/service/ports"
)

type Service struct {
	repo ports.MessageRepo
	log  *slog.Logger
}

func New(repo ports.MessageRepo, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "messages")),
	}
}

func (s *Service) CreateContact(ctx context.Context, name, email, message string) (*domain.ContactMessage, error) {
	const op = "service.messages.CreateContact"

	m := &domain.ContactMessage{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: strings.TrimSpace(message),
	}

	if m.Name == "" || m.Email == "" || m.Message == "" {
		return nil, fmt.Errorf("%s:%w: name, email and message are required", op, ErrInvalidInput)
	}

	if err := s.repo.CreateContact(ctx, m); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.log.InfoContext(ctx, "contact message received", slog.Int64("message_id", m.ID))

	return m, nil
}

func (s *Service) ListContacts(ctx context.Context) ([]domain.ContactMessage, error) {
	const op = "service.messages.ListContacts"

	out, err := s.repo.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Reply stores the admin answer to a contact message.
//
// Returns:
//   - error: messages.ErrMessageNotFound if no message has the ID.
func (s *Service) Reply(ctx context.Context, id int64, reply string) error {
	const op = "service.messages.Reply"

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return fmt.Errorf("%s:%w: reply is required", op, ErrInvalidInput)
	}

	if err := s.repo.ReplyContact(ctx, id, reply); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrMessageNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) CreateFeedback(ctx context.Context, name, email string, rating int, comment string) (*domain.Feedback, error) {
	const op = "service.messages.CreateFeedback"

	f := &domain.Feedback{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Rating:  rating,
		Comment: strings.TrimSpace(comment),
	}

	if f.Name == "" || f.Email == "" {
		return nil, fmt.Errorf("%s:%w: name and email are required", op, ErrInvalidInput)
	}

	if f.Rating < 1 || f.Rating > 5 {
		return nil, fmt.Errorf("%s:%w: rating must be between 1 and 5", op, ErrInvalidInput)
	}

	if err := s.repo.CreateFeedback(ctx, f); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return f, nil
}

func (s *Service) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	const op = "service.messages.ListFeedback"

	out, err := s.repo.ListFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
