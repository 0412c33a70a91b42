package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Errors returned by the services. Handlers map them to HTTP statuses with
// errors.Is, so typed errors below unwrap to one of these.
var (
	ErrValidation           = errors.New("validation failed")
	ErrItemNotFound         = errors.New("menu item not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrTransactionConflict  = errors.New("too many concurrent updates, please retry")
	ErrNotificationDelivery = errors.New("notification delivery failed")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrStatusChanged        = errors.New("order status changed, please retry")
	ErrOrderNotTerminal     = errors.New("only delivered or cancelled orders can be cleared")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotificationHandled  = errors.New("notification already handled")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type ItemNotFoundError struct {
	ItemID uuid.UUID
	Name   string
}

func (e *ItemNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%q is no longer on the menu", e.Name)
	}
	return fmt.Sprintf("menu item %s not found", e.ItemID)
}

func (e *ItemNotFoundError) Unwrap() error { return ErrItemNotFound }

type InsufficientStockError struct {
	ItemID    uuid.UUID
	Name      string
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
