package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusReturnRequested OrderStatus = "RETURN_REQUESTED"
	OrderStatusReturnShipped   OrderStatus = "RETURN_SHIPPED"
	OrderStatusReturnDelivered OrderStatus = "RETURN_DELIVERED"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturnRequested,
	OrderStatusReturnShipped,
	OrderStatusReturnDelivered,
}

// OrderStatuses returns every known status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

func (s OrderStatus) Valid() bool {
	for _, known := range orderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Settled reports whether fulfilment has finished: delivered with no
// return open, or returned. Payments never move a settled order.
func (s OrderStatus) Settled() bool {
	return s == OrderStatusDelivered || s == OrderStatusReturnDelivered
}

type ShippingDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Phone   string `json:"phone"`
}

func (s ShippingDetails) Validate() error {
	if s.Name == "" || s.Address == "" || s.City == "" || s.Zip == "" {
		return ErrInvalidShipping
	}
	return nil
}

type OrderLine struct {
	ItemID    string          `json:"item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Lines      []OrderLine     `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	Status     OrderStatus     `json:"status"`
	Shipping   ShippingDetails `json:"shipping"`
	PaymentID  string          `json:"payment_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// LinesTotal sums the line subtotals. At creation it equals Total.
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (o *Order) OwnedBy(customerID string) bool {
	return o.CustomerID == customerID
}
