package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type orders struct{ st *state }

func (o orders) Create(_ context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if _, exists := o.st.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	o.st.orders[order.ID] = cloneOrder(*order)
	o.st.orderIDs = append(o.st.orderIDs, order.ID)
	return nil
}

func (o orders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := o.st.orders[id]
	if !ok {
		return nil, nil
	}
	order = cloneOrder(order)
	return &order, nil
}

func (o orders) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return o.GetByID(ctx, id)
}

func (o orders) List(_ context.Context, customerID string) ([]domain.Order, error) {
	list := []domain.Order{}
	for i := len(o.st.orderIDs) - 1; i >= 0; i-- {
		order := o.st.orders[o.st.orderIDs[i]]
		if customerID != "" && order.CustomerID != customerID {
			continue
		}
		list = append(list, cloneOrder(order))
	}
	return list, nil
}

func (o orders) UpdateStatus(_ context.Context, order *domain.Order) error {
	stored, ok := o.st.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status = order.Status
	stored.UpdatedAt = order.UpdatedAt
	o.st.orders[order.ID] = stored
	return nil
}

func (o orders) SetPayment(_ context.Context, order *domain.Order) error {
	stored, ok := o.st.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.PaymentID = order.PaymentID
	stored.UpdatedAt = order.UpdatedAt
	o.st.orders[order.ID] = stored
	return nil
}
