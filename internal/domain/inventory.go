package domain

import "github.com/shopspring/decimal"

// Item is the catalog view the core relies on: current price and stock.
type Item struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Available int             `json:"available"`
}

type StockLevel struct {
	ItemID    string `json:"item_id"`
	Available int    `json:"available"`
}
