package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type CartRepository struct {
	db Querier
}

func NewCartRepository(db Querier) *CartRepository {
	return &CartRepository{db: db}
}

const cartLineColumns = `
	c.id, c.customer_id, c.item_id, c.quantity, c.created_at,
	i.item_id, i.title, i.price, i.available
`

func (r *CartRepository) List(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	return r.list(ctx, `
		SELECT `+cartLineColumns+`
		FROM cart_lines c
		JOIN items i ON i.item_id = c.item_id
		WHERE c.customer_id = $1
		ORDER BY c.seq DESC
	`, customerID)
}

func (r *CartRepository) ListForUpdate(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	return r.list(ctx, `
		SELECT `+cartLineColumns+`
		FROM cart_lines c
		JOIN items i ON i.item_id = c.item_id
		WHERE c.customer_id = $1
		ORDER BY c.seq DESC
		FOR UPDATE OF c
	`, customerID)
}

func (r *CartRepository) list(ctx context.Context, query, customerID string) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	lines := []domain.CartLine{}
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *CartRepository) Get(ctx context.Context, customerID, lineID string) (*domain.CartLine, error) {
	if !validID(lineID) {
		return nil, nil
	}

	line, err := scanCartLine(r.db.QueryRowContext(ctx, `
		SELECT `+cartLineColumns+`
		FROM cart_lines c
		JOIN items i ON i.item_id = c.item_id
		WHERE c.id = $1 AND c.customer_id = $2
	`, lineID, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return line, err
}

// AddUnit is a single upsert so concurrent adds of one item each count and
// a racing first add increments instead of violating the unique key.
func (r *CartRepository) AddUnit(ctx context.Context, line *domain.CartLine) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO cart_lines (id, customer_id, item_id, quantity, created_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (customer_id, item_id)
		DO UPDATE SET quantity = cart_lines.quantity + 1
		RETURNING id, quantity, created_at
	`, line.ID, line.CustomerID, line.ItemID, line.CreatedAt).Scan(&line.ID, &line.Quantity, &line.CreatedAt)
}

func (r *CartRepository) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	if !validID(lineID) {
		return domain.ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_lines SET quantity = $2
		WHERE id = $1
	`, lineID, quantity)
	if err != nil {
		return err
	}
	return expectRows(result)
}

func (r *CartRepository) Delete(ctx context.Context, customerID, lineID string) error {
	if !validID(lineID) {
		return domain.ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE id = $1 AND customer_id = $2
	`, lineID, customerID)
	if err != nil {
		return err
	}
	return expectRows(result)
}

// DeleteLines removes the listed lines only. Checkout uses it so a line
// committed after its lock was taken stays in the cart.
func (r *CartRepository) DeleteLines(ctx context.Context, customerID string, lineIDs []string) (int, error) {
	if len(lineIDs) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE customer_id = $1 AND id = ANY($2::uuid[])
	`, customerID, pq.Array(lineIDs))
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rowsAffected), nil
}

func (r *CartRepository) Clear(ctx context.Context, customerID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE customer_id = $1
	`, customerID)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rowsAffected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCartLine(row rowScanner) (*domain.CartLine, error) {
	var line domain.CartLine
	err := row.Scan(
		&line.ID, &line.CustomerID, &line.ItemID, &line.Quantity, &line.CreatedAt,
		&line.Item.ID, &line.Item.Title, &line.Item.Price, &line.Item.Available,
	)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// validID reports whether id can be compared against a UUID column.
// Anything else cannot match a row and would fail the cast.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func expectRows(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
