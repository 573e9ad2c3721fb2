package service

import (
	"errors"
	"fmt"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrDuplicate         = repository.ErrDuplicate
	ErrInsufficientStock = repository.ErrOutOfStock

	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("invalid credentials")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrUnavailable       = errors.New("feature not configured")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
