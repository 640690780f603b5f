package bolt

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirinyoku/busgo/internal/domain"
	"github.com/kirinyoku/busgo/internal/repository"
	bbolt "go.etcd.io/bbolt"
)

type MessageRepo struct {
	store *Store
}

func (r *MessageRepo) CreateContact(ctx context.Context, m *domain.ContactMessage) error {
	const op = "bolt.MessageRepo.CreateContact"

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketContacts)

		id, err := nextID(b)
		if err != nil {
			return err
		}

		rec := *m
		rec.ID = id
		rec.Status = domain.ContactNew
		rec.CreatedAt = r.store.now()

		if err := putJSON(b, itob(id), rec); err != nil {
			return err
		}

		*m = rec
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// ListContacts returns all contact messages, newest first.
func (r *MessageRepo) ListContacts(ctx context.Context) ([]domain.ContactMessage, error) {
	const op = "bolt.MessageRepo.ListContacts"

	out := []domain.ContactMessage{}
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketContacts).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var m domain.ContactMessage
			if err := decode(v, &m); err != nil {
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *MessageRepo) ReplyContact(ctx context.Context, id int64, reply string) error {
	const op = "bolt.MessageRepo.ReplyContact"

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketContacts)

		var m domain.ContactMessage
		ok, err := getJSON(b, itob(id), &m)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}

		now := r.store.now()
		m.AdminReply = &reply
		m.Status = domain.ContactReplied
		m.RepliedAt = &now

		return putJSON(b, itob(id), m)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (r *MessageRepo) CreateFeedback(ctx context.Context, f *domain.Feedback) error {
	const op = "bolt.MessageRepo.CreateFeedback"

	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFeedback)

		id, err := nextID(b)
		if err != nil {
			return err
		}

		f.ID = id
		f.CreatedAt = r.store.now()

		return putJSON(b, itob(id), f)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (r *MessageRepo) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	const op = "bolt.MessageRepo.ListFeedback"

	out := []domain.Feedback{}
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFeedback).ForEach(func(_, v []byte) error {
			var f domain.Feedback
			if err := decode(v, &f); err != nil {
				return err
			}
			out = append(out, f)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out, nil
}
