// Package payment records payment attempts and derives the resulting order
// and payment state.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/store"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type Processor struct {
	store       store.Store
	publisher   messaging.Publisher
	instruments *telemetry.Instruments
	logger      *slog.Logger
}

func NewProcessor(st store.Store, publisher messaging.Publisher, instruments *telemetry.Instruments, logger *slog.Logger) *Processor {
	return &Processor{
		store:       st,
		publisher:   publisher,
		instruments: instruments,
		logger:      logger,
	}
}

// Attempt is one payment outcome reported by the caller.
type Attempt struct {
	Amount    decimal.Decimal
	Method    domain.PaymentMethod
	Succeeded bool
}

type Outcome struct {
	Payment *domain.Payment `json:"payment"`
	Order   *domain.Order   `json:"order"`
}

// ProcessPayment records attempt against the customer's order and moves the
// order when the outcome calls for it. DELIVERED and RETURN_DELIVERED orders
// never move.
func (p *Processor) ProcessPayment(ctx context.Context, customerID, orderID string, attempt Attempt) (*Outcome, error) {
	if !attempt.Method.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPaymentMethod, attempt.Method)
	}
	if attempt.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	var (
		out *Outcome
		res orders.Result
	)
	err := p.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		order, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if order == nil || !order.OwnedBy(customerID) {
			return domain.ErrInvalidOrder
		}

		status, target := Derive(attempt.Method, attempt.Succeeded, order.Status)
		res = orders.Result{From: order.Status, To: order.Status}
		if applies(order.Status) {
			res, err = orders.Transition(ctx, tx, order, target)
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		payment := &domain.Payment{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			Amount:    attempt.Amount,
			Method:    attempt.Method,
			Status:    status,
			CreatedAt: now,
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		order.PaymentID = payment.ID
		order.UpdatedAt = now
		if err := tx.Orders().SetPayment(ctx, order); err != nil {
			return fmt.Errorf("link payment: %w", err)
		}

		out = &Outcome{Payment: payment, Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.instruments.PaymentRecorded(ctx, string(attempt.Method), string(out.Payment.Status))
	events := []domain.OrderEvent{domain.NewPaymentRecordedEvent(out.Order, out.Payment)}
	if res.Changed() {
		p.instruments.Transitioned(ctx, string(res.From), string(res.To))
		if res.Restocked > 0 {
			p.instruments.Restocked(ctx, res.Restocked)
		}
		events = append(events, domain.NewOrderStatusChangedEvent(out.Order, res.From))
	}

	p.logger.Info("payment recorded",
		"order_id", out.Order.ID,
		"payment_id", out.Payment.ID,
		"method", attempt.Method,
		"payment_status", out.Payment.Status,
		"order_status", out.Order.Status,
	)
	messaging.Emit(ctx, p.publisher, p.logger, events...)

	return out, nil
}

// Derive returns the payment status and the order status the outcome asks
// for. Whether the order actually moves is decided separately.
func Derive(method domain.PaymentMethod, succeeded bool, current domain.OrderStatus) (domain.PaymentStatus, domain.OrderStatus) {
	if method == domain.PaymentMethodCOD {
		if current == domain.OrderStatusDelivered {
			return domain.PaymentStatusCompleted, domain.OrderStatusPending
		}
		return domain.PaymentStatusPending, domain.OrderStatusPending
	}

	if succeeded {
		return domain.PaymentStatusCompleted, domain.OrderStatusPending
	}
	return domain.PaymentStatusFailed, domain.OrderStatusCancelled
}

// applies reports whether a payment may move an order. Only settled orders
// are protected; from anywhere else the derived target goes through the
// transition table.
func applies(current domain.OrderStatus) bool {
	return !current.Settled()
}
