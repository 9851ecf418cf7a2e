// Package cart manages a customer's mutable shopping cart.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/store"
)

type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Summary is a cart listing priced at current catalog prices.
type Summary struct {
	Lines    []domain.CartLine `json:"lines"`
	Units    int               `json:"units"`
	Subtotal decimal.Decimal   `json:"subtotal"`
}

func (s *Service) List(ctx context.Context, customerID string) (*Summary, error) {
	var lines []domain.CartLine
	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		lines, err = tx.Carts().List(ctx, customerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	summary := &Summary{Lines: lines, Subtotal: decimal.Zero}
	for _, line := range lines {
		summary.Units += line.Quantity
		summary.Subtotal = summary.Subtotal.Add(line.Subtotal())
	}
	return summary, nil
}

// Add puts one unit of itemID in the cart. Unknown or out of stock items
// are ignored and nil is returned with no line.
func (s *Service) Add(ctx context.Context, customerID, itemID string) (*domain.CartLine, error) {
	var added *domain.CartLine
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		item, err := tx.Catalog().GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("load item: %w", err)
		}
		if item == nil || item.Available <= 0 {
			return nil
		}

		line := &domain.CartLine{
			ID:         uuid.New().String(),
			CustomerID: customerID,
			ItemID:     itemID,
			CreatedAt:  time.Now().UTC(),
			Item:       *item,
		}
		if err := tx.Carts().AddUnit(ctx, line); err != nil {
			return fmt.Errorf("add cart unit: %w", err)
		}
		added = line
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added == nil {
		s.logger.Info("item not added to cart", "customer_id", customerID, "item_id", itemID)
	}
	return added, nil
}

// SetQuantity stores max(1, min(quantity, stock)) on the line.
func (s *Service) SetQuantity(ctx context.Context, customerID, lineID string, quantity int) (*domain.CartLine, error) {
	var line *domain.CartLine
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		line, err = tx.Carts().Get(ctx, customerID, lineID)
		if err != nil {
			return fmt.Errorf("load cart line: %w", err)
		}
		if line == nil {
			return domain.ErrNotFound
		}

		line.Quantity = Clamp(quantity, line.Item.Available)
		if err := tx.Carts().SetQuantity(ctx, line.ID, line.Quantity); err != nil {
			return fmt.Errorf("set cart quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *Service) Remove(ctx context.Context, customerID, lineID string) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Carts().Delete(ctx, customerID, lineID)
	})
}

func (s *Service) Clear(ctx context.Context, customerID string) (int, error) {
	var removed int
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		removed, err = tx.Carts().Clear(ctx, customerID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return removed, nil
}

// Clamp bounds a requested quantity to [1, stock]. With no stock left the
// line keeps a single unit; checkout will reject it.
func Clamp(requested, stock int) int {
	return max(1, min(requested, stock))
}
