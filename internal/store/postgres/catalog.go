package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type CatalogRepository struct {
	db Querier
}

func NewCatalogRepository(db Querier) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetItem(ctx context.Context, itemID string) (*domain.Item, error) {
	item := &domain.Item{}

	err := r.db.QueryRowContext(ctx, `
		SELECT item_id, title, price, available
		FROM items
		WHERE item_id = $1
	`, itemID).Scan(&item.ID, &item.Title, &item.Price, &item.Available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return item, nil
}
