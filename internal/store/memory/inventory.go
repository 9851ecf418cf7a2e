package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type catalog struct{ st *state }

func (c catalog) GetItem(_ context.Context, itemID string) (*domain.Item, error) {
	item, ok := c.st.items[itemID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

type inventory struct{ st *state }

func (i inventory) Reserve(_ context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	item, ok := i.st.items[itemID]
	if !ok || item.Available < quantity {
		return domain.ErrInsufficientStock
	}
	item.Available -= quantity
	i.st.items[itemID] = item
	return nil
}

func (i inventory) Release(_ context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	item, ok := i.st.items[itemID]
	if !ok {
		return fmt.Errorf("release item %s: %w", itemID, domain.ErrNotFound)
	}
	item.Available += quantity
	i.st.items[itemID] = item
	return nil
}

func (i inventory) GetStock(_ context.Context, itemID string) (*domain.StockLevel, error) {
	item, ok := i.st.items[itemID]
	if !ok {
		return nil, nil
	}
	return &domain.StockLevel{ItemID: item.ID, Available: item.Available}, nil
}

func (i inventory) ListAll(_ context.Context) ([]domain.StockLevel, error) {
	levels := make([]domain.StockLevel, 0, len(i.st.items))
	for _, item := range i.st.items {
		levels = append(levels, domain.StockLevel{ItemID: item.ID, Available: item.Available})
	}
	sort.Slice(levels, func(a, b int) bool { return levels[a].ItemID < levels[b].ItemID })
	return levels, nil
}
