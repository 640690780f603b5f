package repository

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = errors.New("not enough seats available")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
)
