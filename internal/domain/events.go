package domain

import "time"

type EventType string

const (
	EventOrderPlaced        EventType = "order.placed"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventPaymentRecorded    EventType = "payment.recorded"
)

type OrderEvent struct {
	Type           EventType     `json:"type"`
	OrderID        string        `json:"order_id"`
	CustomerID     string        `json:"customer_id"`
	Status         OrderStatus   `json:"status"`
	PreviousStatus OrderStatus   `json:"previous_status,omitempty"`
	PaymentID      string        `json:"payment_id,omitempty"`
	PaymentStatus  PaymentStatus `json:"payment_status,omitempty"`
	Lines          []OrderLine   `json:"lines,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

func NewOrderPlacedEvent(o *Order) OrderEvent {
	return OrderEvent{
		Type:       EventOrderPlaced,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Status:     o.Status,
		Lines:      o.Lines,
		Timestamp:  o.CreatedAt,
	}
}

func NewOrderStatusChangedEvent(o *Order, previous OrderStatus) OrderEvent {
	return OrderEvent{
		Type:           EventOrderStatusChanged,
		OrderID:        o.ID,
		CustomerID:     o.CustomerID,
		Status:         o.Status,
		PreviousStatus: previous,
		Lines:          o.Lines,
		Timestamp:      o.UpdatedAt,
	}
}

func NewPaymentRecordedEvent(o *Order, p *Payment) OrderEvent {
	return OrderEvent{
		Type:          EventPaymentRecorded,
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentID:     p.ID,
		PaymentStatus: p.Status,
		Timestamp:     p.CreatedAt,
	}
}
