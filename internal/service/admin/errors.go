package admin

import (
	"errors"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrSameCity     = errors.New("route must connect two different cities")
	ErrBusNotFound  = errors.New("bus not found")
)
