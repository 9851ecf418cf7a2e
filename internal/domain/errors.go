package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidOrder         = errors.New("invalid order")
	ErrForbidden            = errors.New("forbidden")
	ErrIllegalTransition    = errors.New("illegal order status transition")
	ErrInvalidStatus        = errors.New("unknown order status")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrInvalidAmount        = errors.New("amount must be zero or greater")
	ErrInvalidShipping      = errors.New("shipping name, address, city and zip are required")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrConflict             = errors.New("concurrent update conflict, retry the request")
	ErrCheckoutInProgress   = errors.New("checkout with this idempotency key is in progress")
)

// InsufficientStockError names the item whose reservation failed.
type InsufficientStockError struct {
	ItemID    string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s (requested %d)", e.ItemID, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
