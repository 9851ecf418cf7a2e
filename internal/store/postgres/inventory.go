package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type InventoryRepository struct {
	db Querier
}

func NewInventoryRepository(db Querier) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) ListAll(ctx context.Context) ([]domain.StockLevel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, available
		FROM items
		ORDER BY item_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.StockLevel{}
	for rows.Next() {
		var stock domain.StockLevel
		if err := rows.Scan(&stock.ItemID, &stock.Available); err != nil {
			return nil, err
		}
		items = append(items, stock)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *InventoryRepository) GetStock(ctx context.Context, itemID string) (*domain.StockLevel, error) {
	stock := &domain.StockLevel{}

	err := r.db.QueryRowContext(ctx, `
		SELECT item_id, available
		FROM items
		WHERE item_id = $1
	`, itemID).Scan(&stock.ItemID, &stock.Available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return stock, nil
}

// Reserve is a conditional decrement; a concurrent reservation that would
// overcommit the row matches zero rows instead of going negative.
func (r *InventoryRepository) Reserve(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE items
		SET available = available - $2, updated_at = NOW()
		WHERE item_id = $1 AND available >= $2
	`, itemID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrInsufficientStock
	}

	return nil
}

func (r *InventoryRepository) Release(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE items
		SET available = available + $2, updated_at = NOW()
		WHERE item_id = $1
	`, itemID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("release item %s: %w", itemID, domain.ErrNotFound)
	}

	return nil
}
