package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type OrderRepository struct {
	db Querier
}

func NewOrderRepository(db Querier) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
	id, customer_id, status, total,
	shipping_name, shipping_address, shipping_city, shipping_state, shipping_zip, shipping_phone,
	payment_id, created_at, updated_at
`

// Create inserts the order and its lines. Callers run it inside a
// transaction; it opens none of its own.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, status, total,
			shipping_name, shipping_address, shipping_city, shipping_state, shipping_zip, shipping_phone,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, order.ID, order.CustomerID, order.Status, order.Total,
		order.Shipping.Name, order.Shipping.Address, order.Shipping.City,
		order.Shipping.State, order.Shipping.Zip, order.Shipping.Phone,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return err
	}

	for i, line := range order.Lines {
		lineID := uuid.New().String()
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, position, item_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, lineID, order.ID, i, line.ItemID, line.Quantity, line.UnitPrice)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) get(ctx context.Context, query, id string) (*domain.Order, error) {
	if !validID(id) {
		return nil, nil
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, quantity, unit_price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	order.Lines = []domain.OrderLine{}
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ItemID, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE id = $3
	`, order.Status, order.UpdatedAt, order.ID)
	if err != nil {
		return err
	}
	return expectRows(result)
}

func (r *OrderRepository) SetPayment(ctx context.Context, order *domain.Order) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_id = $1, updated_at = $2
		WHERE id = $3
	`, order.PaymentID, order.UpdatedAt, order.ID)
	if err != nil {
		return err
	}
	return expectRows(result)
}

// List loads orders and then all of their lines with a single ANY($1) query.
func (r *OrderRepository) List(ctx context.Context, customerID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE $1 = '' OR customer_id = $1
		ORDER BY created_at DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		order.Lines = []domain.OrderLine{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	lineRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, item_id, quantity, unit_price
		FROM order_lines
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = lineRows.Close() }()

	for lineRows.Next() {
		var orderID string
		var line domain.OrderLine
		if err := lineRows.Scan(&orderID, &line.ItemID, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Lines = append(order.Lines, line)
	}

	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var paymentID sql.NullString
	err := row.Scan(
		&order.ID, &order.CustomerID, &order.Status, &order.Total,
		&order.Shipping.Name, &order.Shipping.Address, &order.Shipping.City,
		&order.Shipping.State, &order.Shipping.Zip, &order.Shipping.Phone,
		&paymentID, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.PaymentID = paymentID.String
	return &order, nil
}
