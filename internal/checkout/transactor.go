// Package checkout turns a customer's cart into an order with reserved stock.
package checkout

import (
	"context"
	"errors"
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

type Transactor struct {
	store       store.Store
	keys        Keys
	publisher   messaging.Publisher
	instruments *telemetry.Instruments
	logger      *slog.Logger
}

// NewTransactor builds a Transactor. keys and publisher may be nil, which
// disables idempotency keys and events respectively.
func NewTransactor(st store.Store, keys Keys, publisher messaging.Publisher, instruments *telemetry.Instruments, logger *slog.Logger) *Transactor {
	return &Transactor{
		store:       st,
		keys:        keys,
		publisher:   publisher,
		instruments: instruments,
		logger:      logger,
	}
}

// PlaceOrder reserves stock for every cart line, records a PENDING order at
// current prices and empties the cart, all in one transaction. On any error
// nothing is reserved and the cart is untouched.
func (t *Transactor) PlaceOrder(ctx context.Context, customerID string, shipping domain.ShippingDetails) (*domain.Order, error) {
	if err := shipping.Validate(); err != nil {
		t.instruments.CheckoutFailed(ctx, "invalid_shipping")
		return nil, err
	}

	var order *domain.Order
	err := t.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = t.placeOrder(ctx, tx, customerID, shipping)
		return err
	})
	if err != nil {
		t.instruments.CheckoutFailed(ctx, failureReason(err))
		return nil, err
	}

	t.instruments.OrderPlaced(ctx)
	t.logger.Info("order placed",
		"order_id", order.ID,
		"customer_id", customerID,
		"lines", len(order.Lines),
		"total", order.Total.StringFixed(2),
	)
	messaging.Emit(ctx, t.publisher, t.logger, domain.NewOrderPlacedEvent(order))

	return order, nil
}

// PlaceOrderOnce is PlaceOrder guarded by an idempotency key. Repeating a
// completed key returns the original order without touching the cart.
// Recording the key is best effort once the order committed, see complete.
func (t *Transactor) PlaceOrderOnce(ctx context.Context, customerID, key string, shipping domain.ShippingDetails) (*domain.Order, bool, error) {
	if key == "" || t.keys == nil {
		order, err := t.PlaceOrder(ctx, customerID, shipping)
		return order, true, err
	}

	existingID, started, err := t.keys.Begin(ctx, customerID, key)
	if err != nil {
		return nil, false, err
	}
	if !started {
		order, err := t.loadOwn(ctx, customerID, existingID)
		return order, false, err
	}

	order, err := t.PlaceOrder(ctx, customerID, shipping)
	if err != nil {
		if abandonErr := t.keys.Abandon(context.WithoutCancel(ctx), customerID, key); abandonErr != nil {
			t.logger.Warn("failed to release idempotency key", "customer_id", customerID, "error", abandonErr)
		}
		return nil, false, err
	}

	t.complete(context.WithoutCancel(ctx), customerID, key, order.ID)
	return order, true, nil
}

// complete records the finished key, retrying once. If both attempts fail
// the order stands but the key stays pending; once pendingTTL expires a
// retry with the same key places a second order.
func (t *Transactor) complete(ctx context.Context, customerID, key, orderID string) {
	err := t.keys.Complete(ctx, customerID, key, orderID)
	if err == nil {
		return
	}
	t.logger.Warn("failed to record idempotency key, retrying", "order_id", orderID, "error", err)

	if err := t.keys.Complete(ctx, customerID, key, orderID); err != nil {
		t.logger.Error("idempotency key left pending, a retry after expiry will place a new order",
			"order_id", orderID,
			"customer_id", customerID,
			"error", err,
		)
	}
}

func (t *Transactor) placeOrder(ctx context.Context, tx store.Tx, customerID string, shipping domain.ShippingDetails) (*domain.Order, error) {
	cartLines, err := tx.Carts().ListForUpdate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	if len(cartLines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	lines := make([]domain.OrderLine, 0, len(cartLines))
	lineIDs := make([]string, 0, len(cartLines))
	total := decimal.Zero
	for _, cl := range cartLines {
		lineIDs = append(lineIDs, cl.ID)
		item, err := tx.Catalog().GetItem(ctx, cl.ItemID)
		if err != nil {
			return nil, fmt.Errorf("load item %s: %w", cl.ItemID, err)
		}
		if item == nil {
			return nil, &domain.InsufficientStockError{ItemID: cl.ItemID, Requested: cl.Quantity}
		}

		line := domain.OrderLine{ItemID: item.ID, Quantity: cl.Quantity, UnitPrice: item.Price}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}

	if _, err := orders.ReserveLines(ctx, tx, lines); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Lines:      lines,
		Total:      total,
		Status:     domain.OrderStatusPending,
		Shipping:   shipping,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.Orders().Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Only the locked lines were ordered; a line added meanwhile stays.
	if _, err := tx.Carts().DeleteLines(ctx, customerID, lineIDs); err != nil {
		return nil, fmt.Errorf("clear ordered cart lines: %w", err)
	}

	return order, nil
}

func (t *Transactor) loadOwn(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := t.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil || !order.OwnedBy(customerID) {
			return fmt.Errorf("idempotent order %s: %w", orderID, domain.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
