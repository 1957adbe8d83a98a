package domain

import (
	"errors"
	"fmt"
)

// Caller facing errors. Store details never leave the service layer.
var (
	ErrPlaceOrder = errors.New("an error occurred while creating the order")
	ErrReadOrders = errors.New("an error occurred while fetching orders")
)

var (
	ErrUnknownProduct    = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoOrderID         = errors.New("store did not return an order id")
)

// ValidationError reports a request that was rejected before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
