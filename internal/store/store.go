// Package store defines the persistence ports of the checkout core.
//
// Every operation that mutates more than one aggregate runs inside a single
// Tx obtained from Store.InTx. Repositories returned by a Tx share its
// transaction, so a returned error rolls back all of their writes.
package store

import (
	"context"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, tx Tx) error

type Store interface {
	// InTx runs fn in a read-write transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn TxFunc) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn TxFunc) error
}

type Tx interface {
	Catalog() Catalog
	Inventory() Inventory
	Carts() Carts
	Orders() Orders
	Payments() Payments
}

// Lookup methods return (nil, nil) when the record does not exist.

type Catalog interface {
	GetItem(ctx context.Context, itemID string) (*domain.Item, error)
}

type Inventory interface {
	// Reserve decrements available stock or returns domain.ErrInsufficientStock
	// leaving it unchanged.
	Reserve(ctx context.Context, itemID string, quantity int) error
	Release(ctx context.Context, itemID string, quantity int) error
	GetStock(ctx context.Context, itemID string) (*domain.StockLevel, error)
	ListAll(ctx context.Context) ([]domain.StockLevel, error)
}

type Carts interface {
	// List returns the customer's lines, most recent first, with Item resolved.
	List(ctx context.Context, customerID string) ([]domain.CartLine, error)
	// ListForUpdate is List with the lines locked until the transaction ends.
	ListForUpdate(ctx context.Context, customerID string) ([]domain.CartLine, error)
	Get(ctx context.Context, customerID, lineID string) (*domain.CartLine, error)
	// AddUnit inserts line with quantity 1, or adds one unit to the
	// customer's existing line for the same item. line is updated with the
	// stored id, quantity and creation time.
	AddUnit(ctx context.Context, line *domain.CartLine) error
	SetQuantity(ctx context.Context, lineID string, quantity int) error
	Delete(ctx context.Context, customerID, lineID string) error
	// DeleteLines removes only the given lines of the customer.
	DeleteLines(ctx context.Context, customerID string, lineIDs []string) (int, error)
	Clear(ctx context.Context, customerID string) (int, error)
}

type Orders interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetForUpdate is GetByID with the order row locked until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Order, error)
	// List returns orders newest first. An empty customerID lists every order.
	List(ctx context.Context, customerID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
	SetPayment(ctx context.Context, order *domain.Order) error
}

type Payments interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
}
