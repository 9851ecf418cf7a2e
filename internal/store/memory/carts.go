package memory

import (
	"context"
	"slices"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type carts struct{ st *state }

func (c carts) List(_ context.Context, customerID string) ([]domain.CartLine, error) {
	lines := []domain.CartLine{}
	for i := len(c.st.lines) - 1; i >= 0; i-- {
		line := c.st.lines[i]
		if line.CustomerID != customerID {
			continue
		}
		if resolved, ok := c.resolve(line); ok {
			lines = append(lines, resolved)
		}
	}
	return lines, nil
}

func (c carts) ListForUpdate(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	return c.List(ctx, customerID)
}

func (c carts) Get(_ context.Context, customerID, lineID string) (*domain.CartLine, error) {
	return c.find(func(l domain.CartLine) bool {
		return l.ID == lineID && l.CustomerID == customerID
	}), nil
}

func (c carts) AddUnit(_ context.Context, line *domain.CartLine) error {
	for i, existing := range c.st.lines {
		if existing.CustomerID == line.CustomerID && existing.ItemID == line.ItemID {
			c.st.lines[i].Quantity++
			line.ID = existing.ID
			line.Quantity = c.st.lines[i].Quantity
			line.CreatedAt = existing.CreatedAt
			return nil
		}
	}

	line.Quantity = 1
	stored := *line
	stored.Item = domain.Item{}
	c.st.lines = append(c.st.lines, stored)
	return nil
}

func (c carts) SetQuantity(_ context.Context, lineID string, quantity int) error {
	for i := range c.st.lines {
		if c.st.lines[i].ID == lineID {
			c.st.lines[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrNotFound
}

func (c carts) Delete(_ context.Context, customerID, lineID string) error {
	for i, line := range c.st.lines {
		if line.ID == lineID && line.CustomerID == customerID {
			c.st.lines = append(c.st.lines[:i], c.st.lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (c carts) DeleteLines(_ context.Context, customerID string, lineIDs []string) (int, error) {
	return c.remove(func(l domain.CartLine) bool {
		return l.CustomerID == customerID && slices.Contains(lineIDs, l.ID)
	}), nil
}

func (c carts) Clear(_ context.Context, customerID string) (int, error) {
	return c.remove(func(l domain.CartLine) bool {
		return l.CustomerID == customerID
	}), nil
}

func (c carts) remove(match func(domain.CartLine) bool) int {
	kept := c.st.lines[:0]
	removed := 0
	for _, line := range c.st.lines {
		if match(line) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	c.st.lines = kept
	return removed
}

func (c carts) find(match func(domain.CartLine) bool) *domain.CartLine {
	for _, line := range c.st.lines {
		if !match(line) {
			continue
		}
		if resolved, ok := c.resolve(line); ok {
			return &resolved
		}
	}
	return nil
}

func (c carts) resolve(line domain.CartLine) (domain.CartLine, bool) {
	item, ok := c.st.items[line.ItemID]
	if !ok {
		return domain.CartLine{}, false
	}
	line.Item = item
	return line, true
}
