package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation         = errors.New("invalid booking request")
	ErrAmountMismatch     = errors.New("amount does not match seats times price")
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrReferenceCollision = errors.New("could not allocate a unique booking reference")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CapacityExceededError is the expected outcome of asking for more seats
// than the schedule has left. Available is read after the failed insert and
// is only informative.
type CapacityExceededError struct {
	Requested int
	Available int
}

func (e CapacityExceededError) Error() string {
	return "not enough seats available"
}

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}
