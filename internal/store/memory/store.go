// Package memory is an in-process store.Store. A transaction works on a
// private copy of the data set that replaces the shared one on commit, so an
// error leaves no partial writes behind. Transactions are serialized.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	state *state
}

func NewStore(items ...domain.Item) *Store {
	st := newState()
	for _, item := range items {
		st.items[item.ID] = item
	}
	return &Store{state: st}
}

// PutItem inserts or replaces a catalog item.
func (s *Store) PutItem(item domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.items[item.ID] = item
}

func (s *Store) InTx(ctx context.Context, fn store.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &repositories{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) View(ctx context.Context, fn store.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &repositories{st: s.state.clone()})
}

type state struct {
	items    map[string]domain.Item
	lines    []domain.CartLine
	orders   map[string]domain.Order
	orderIDs []string
	payments map[string]domain.Payment
}

func newState() *state {
	return &state{
		items:    make(map[string]domain.Item),
		orders:   make(map[string]domain.Order),
		payments: make(map[string]domain.Payment),
	}
}

func (s *state) clone() *state {
	out := &state{
		items:    make(map[string]domain.Item, len(s.items)),
		lines:    slices.Clone(s.lines),
		orders:   make(map[string]domain.Order, len(s.orders)),
		orderIDs: slices.Clone(s.orderIDs),
		payments: make(map[string]domain.Payment, len(s.payments)),
	}
	for id, item := range s.items {
		out.items[id] = item
	}
	for id, order := range s.orders {
		out.orders[id] = cloneOrder(order)
	}
	for id, payment := range s.payments {
		out.payments[id] = payment
	}
	return out
}

func cloneOrder(o domain.Order) domain.Order {
	o.Lines = slices.Clone(o.Lines)
	return o
}

type repositories struct {
	st *state
}

func (r *repositories) Catalog() store.Catalog     { return catalog{r.st} }
func (r *repositories) Inventory() store.Inventory { return inventory{r.st} }
func (r *repositories) Carts() store.Carts         { return carts{r.st} }
func (r *repositories) Orders() store.Orders       { return orders{r.st} }
func (r *repositories) Payments() store.Payments   { return payments{r.st} }
