package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type payments struct{ st *state }

func (p payments) Create(_ context.Context, payment *domain.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if _, ok := p.st.orders[payment.OrderID]; !ok {
		return domain.ErrNotFound
	}
	p.st.payments[payment.ID] = *payment
	return nil
}

func (p payments) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	payment, ok := p.st.payments[id]
	if !ok {
		return nil, nil
	}
	return &payment, nil
}

func (p payments) UpdateStatus(_ context.Context, id string, status domain.PaymentStatus) error {
	payment, ok := p.st.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	payment.Status = status
	p.st.payments[id] = payment
	return nil
}

func (p payments) ListByOrder(_ context.Context, orderID string) ([]domain.Payment, error) {
	list := []domain.Payment{}
	for _, payment := range p.st.payments {
		if payment.OrderID == orderID {
			list = append(list, payment)
		}
	}
	sortPaymentsNewestFirst(list)
	return list, nil
}

func sortPaymentsNewestFirst(list []domain.Payment) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
