package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/store"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
	codeUniqueViolation      pq.ErrorCode = "23505"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, nil, fn)
}

func (s *Store) View(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn store.TxFunc) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &repositories{q: tx}); err != nil {
		return mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

// mapError turns lock conflicts into domain.ErrConflict so callers can retry.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
	}
	return err
}

type repositories struct {
	q Querier
}

func (r *repositories) Catalog() store.Catalog     { return NewCatalogRepository(r.q) }
func (r *repositories) Inventory() store.Inventory { return NewInventoryRepository(r.q) }
func (r *repositories) Carts() store.Carts         { return NewCartRepository(r.q) }
func (r *repositories) Orders() store.Orders       { return NewOrderRepository(r.q) }
func (r *repositories) Payments() store.Payments   { return NewPaymentRepository(r.q) }
