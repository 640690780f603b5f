package postgres

import (
	"context"
	"fmt"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
)

type MessageRepo struct {
	store *Store
}

func (r *MessageRepo) handle() DB {
	return r.store.pool
}

func (r *MessageRepo) CreateContact(ctx context.Context, m *domain.ContactMessage) error {
	const op = "postgres.MessageRepo.CreateContact"

	var status string
	if err := r.handle().QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, message)
		 VALUES ($1, $2, $3)
		 RETURNING id, status, created_at`,
		m.Name, m.Email, m.Message,
	).Scan(&m.ID, &status, &m.CreatedAt); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	m.Status = domain.ContactStatus(status)
	return nil
}

// ListContacts returns all contact messages, newest first.
func (r *MessageRepo) ListContacts(ctx context.Context) ([]domain.ContactMessage, error) {
	const op = "postgres.MessageRepo.ListContacts"

	rows, err := r.handle().Query(ctx,
		`SELECT id, name, email, message, status, admin_reply, created_at, replied_at
		 FROM contact_messages
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := []domain.ContactMessage{}
	for rows.Next() {
		var m domain.ContactMessage
		var status string
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Email,
			&m.Message,
			&status,
			&m.AdminReply,
			&m.CreatedAt,
			&m.RepliedAt,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		m.Status = domain.ContactStatus(status)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ReplyContact stores the admin reply and marks the message replied.
//
// Returns:
//   - error: repository.ErrNotFound if the message does not exist.
func (r *MessageRepo) ReplyContact(ctx context.Context, id int64, reply string) error {
	const op = "postgres.MessageRepo.ReplyContact"

	tag, err := r.handle().Exec(ctx,
		`UPDATE contact_messages
		    SET admin_reply = $2, status = $3, replied_at = now()
		  WHERE id = $1`,
		id, reply, string(domain.ContactReplied),
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *MessageRepo) CreateFeedback(ctx context.Context, f *domain.Feedback) error {
	const op = "postgres.MessageRepo.CreateFeedback"

	if err := r.handle().QueryRow(ctx,
		`INSERT INTO feedback (name, email, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		f.Name, f.Email, f.Rating, f.Comment,
	).Scan(&f.ID, &f.CreatedAt); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *MessageRepo) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	const op = "postgres.MessageRepo.ListFeedback"

	rows, err := r.handle().Query(ctx,
		`SELECT id, name, email, rating, comment, created_at
		 FROM feedback
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := []domain.Feedback{}
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
