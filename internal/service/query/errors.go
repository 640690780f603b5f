package query

import (
	"errors"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrInvalidQuery     = errors.New("invalid search query")
)
