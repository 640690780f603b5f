package messages

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrMessageNotFound = errors.New("contact message not found")
)
