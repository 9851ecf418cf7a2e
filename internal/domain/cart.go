package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one item in a customer's cart. Item is resolved from the
// catalog when the line is listed and reflects current price and stock.
type CartLine struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	ItemID     string    `json:"item_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	Item       Item      `json:"item"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
