package orders

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/identity"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/store"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// Service drives orders through their lifecycle.
type Service struct {
	store       store.Store
	publisher   messaging.Publisher
	instruments *telemetry.Instruments
	logger      *slog.Logger
}

func NewService(st store.Store, publisher messaging.Publisher, instruments *telemetry.Instruments, logger *slog.Logger) *Service {
	return &Service{
		store:       st,
		publisher:   publisher,
		instruments: instruments,
		logger:      logger,
	}
}

// Detail is an order with its latest payment and every attempt, newest
// first. Only Payment is authoritative.
type Detail struct {
	domain.Order
	Payment  *domain.Payment  `json:"payment,omitempty"`
	Payments []domain.Payment `json:"payments"`
}

var (
	cancellable = []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusShipped}
	returnable  = []domain.OrderStatus{domain.OrderStatusDelivered}
)

// SetStatus is the administrative override. Any known status can be set;
// side effects still follow the transition table.
func (s *Service) SetStatus(ctx context.Context, p identity.Principal, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	var (
		order *domain.Order
		res   Result
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if order == nil {
			return domain.ErrNotFound
		}

		res, err = Transition(ctx, tx, order, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order, res)
	return order, nil
}

// Cancel cancels a PENDING or SHIPPED order and restocks its lines. From
// any other status the order is returned unchanged.
func (s *Service) Cancel(ctx context.Context, p identity.Principal, orderID string) (*domain.Order, error) {
	return s.customerTransition(ctx, p, orderID, cancellable, domain.OrderStatusCancelled)
}

// RequestReturn moves a DELIVERED order to RETURN_REQUESTED. From any other
// status the order is returned unchanged.
func (s *Service) RequestReturn(ctx context.Context, p identity.Principal, orderID string) (*domain.Order, error) {
	return s.customerTransition(ctx, p, orderID, returnable, domain.OrderStatusReturnRequested)
}

func (s *Service) customerTransition(ctx context.Context, p identity.Principal, orderID string, from []domain.OrderStatus, to domain.OrderStatus) (*domain.Order, error) {
	var (
		order   *domain.Order
		res     Result
		illegal error
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !order.OwnedBy(p.CustomerID) {
			return domain.ErrForbidden
		}

		if !slices.Contains(from, order.Status) {
			illegal = fmt.Errorf("%w: %s to %s", domain.ErrIllegalTransition, order.Status, to)
			return nil
		}

		res, err = Transition(ctx, tx, order, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	if illegal != nil {
		s.logger.Info("order transition ignored",
			"order_id", order.ID,
			"customer_id", p.CustomerID,
			"error", illegal,
		)
		return order, nil
	}

	s.afterTransition(ctx, order, res)
	return order, nil
}

func (s *Service) afterTransition(ctx context.Context, order *domain.Order, res Result) {
	if !res.Changed() {
		return
	}

	s.instruments.Transitioned(ctx, string(res.From), string(res.To))
	if res.Restocked > 0 {
		s.instruments.Restocked(ctx, res.Restocked)
	}

	s.logger.Info("order status changed",
		"order_id", order.ID,
		"from", res.From,
		"to", res.To,
		"restocked", res.Restocked,
		"reserved", res.Reserved,
	)
	messaging.Emit(ctx, s.publisher, s.logger, domain.NewOrderStatusChangedEvent(order, res.From))
}

// Get returns the order with its payments. Customers may only read
// their own orders.
func (s *Service) Get(ctx context.Context, p identity.Principal, orderID string) (*Detail, error) {
	var detail *Detail
	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		order, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !p.IsAdmin() && !order.OwnedBy(p.CustomerID) {
			return domain.ErrForbidden
		}

		detail = &Detail{Order: *order}
		detail.Payments, err = tx.Payments().ListByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		if detail.Payments == nil {
			detail.Payments = []domain.Payment{}
		}
		if order.PaymentID == "" {
			return nil
		}
		detail.Payment, err = tx.Payments().GetByID(ctx, order.PaymentID)
		if err != nil {
			return fmt.Errorf("load payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns every order for admins and the caller's own otherwise,
// newest first.
func (s *Service) List(ctx context.Context, p identity.Principal) ([]domain.Order, error) {
	customerID := p.CustomerID
	if p.IsAdmin() {
		customerID = ""
	}

	var list []domain.Order
	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		list, err = tx.Orders().List(ctx, customerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}
