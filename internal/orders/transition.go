package orders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/store"
)

// effect is a side effect attached to a status change.
type effect int

const (
	effectCompletePayment effect = iota + 1
	effectRestock
	effectReserve
)

// effectsFor is the single (from, to) table every status write goes through.
func effectsFor(from, to domain.OrderStatus) []effect {
	if from == to {
		return nil
	}

	var effects []effect
	switch {
	case to == domain.OrderStatusCancelled:
		effects = append(effects, effectRestock)
	case from == domain.OrderStatusCancelled:
		effects = append(effects, effectReserve)
	}
	if to == domain.OrderStatusDelivered {
		effects = append(effects, effectCompletePayment)
	}
	return effects
}

// Result describes what Transition changed.
type Result struct {
	From      domain.OrderStatus
	To        domain.OrderStatus
	Restocked int
	Reserved  int
}

func (r Result) Changed() bool {
	return r.From != r.To
}

// Transition moves order to status `to` inside tx and applies the table's
// side effects. The caller must have loaded order with GetForUpdate in the
// same transaction. order is updated in place.
func Transition(ctx context.Context, tx store.Tx, order *domain.Order, to domain.OrderStatus) (Result, error) {
	if !to.Valid() {
		return Result{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, to)
	}

	res := Result{From: order.Status, To: to}
	if !res.Changed() {
		return res, nil
	}

	for _, e := range effectsFor(order.Status, to) {
		switch e {
		case effectRestock:
			for _, line := range sortedLines(order.Lines) {
				if err := tx.Inventory().Release(ctx, line.ItemID, line.Quantity); err != nil {
					return Result{}, fmt.Errorf("restock %s: %w", line.ItemID, err)
				}
				res.Restocked += line.Quantity
			}
		case effectReserve:
			reserved, err := ReserveLines(ctx, tx, order.Lines)
			if err != nil {
				return Result{}, err
			}
			res.Reserved = reserved
		case effectCompletePayment:
			if order.PaymentID == "" {
				continue
			}
			if err := tx.Payments().UpdateStatus(ctx, order.PaymentID, domain.PaymentStatusCompleted); err != nil {
				return Result{}, fmt.Errorf("complete payment %s: %w", order.PaymentID, err)
			}
		}
	}

	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	if err := tx.Orders().UpdateStatus(ctx, order); err != nil {
		return Result{}, fmt.Errorf("update order status: %w", err)
	}

	return res, nil
}

// ReserveLines takes stock for every line in item id order. Restocks use
// the same order so concurrent transactions lock item rows consistently. A shortfall is reported as
// *domain.InsufficientStockError and the caller must roll back.
func ReserveLines(ctx context.Context, tx store.Tx, lines []domain.OrderLine) (int, error) {
	units := 0
	for _, line := range sortedLines(lines) {
		if err := reserve(ctx, tx, line); err != nil {
			return 0, err
		}
		units += line.Quantity
	}
	return units, nil
}

func reserve(ctx context.Context, tx store.Tx, line domain.OrderLine) error {
	err := tx.Inventory().Reserve(ctx, line.ItemID, line.Quantity)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrNotFound) {
		return &domain.InsufficientStockError{ItemID: line.ItemID, Requested: line.Quantity}
	}
	return fmt.Errorf("reserve %s: %w", line.ItemID, err)
}

func sortedLines(lines []domain.OrderLine) []domain.OrderLine {
	out := slices.Clone(lines)
	slices.SortFunc(out, func(a, b domain.OrderLine) int {
		return strings.Compare(a.ItemID, b.ItemID)
	})
	return out
}
