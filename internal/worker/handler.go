// Package worker reacts to order events published by the storefront.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/store"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// StockMonitor flags items whose stock fell to the threshold after an
// order took units from them.
type StockMonitor struct {
	store       store.Store
	threshold   int
	instruments *telemetry.Instruments
	logger      *slog.Logger
}

func NewStockMonitor(st store.Store, threshold int, instruments *telemetry.Instruments, logger *slog.Logger) *StockMonitor {
	return &StockMonitor{
		store:       st,
		threshold:   threshold,
		instruments: instruments,
		logger:      logger,
	}
}

// Handle implements messaging.EventHandler. Only events that take stock
// are inspected: placements and revivals of cancelled orders.
func (m *StockMonitor) Handle(ctx context.Context, event domain.OrderEvent) error {
	if !takesStock(event) {
		return nil
	}

	m.logger.Info("checking stock after order event", "event_type", event.Type, "order_id", event.OrderID)

	var low []domain.StockLevel
	err := m.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, line := range event.Lines {
			level, err := tx.Inventory().GetStock(ctx, line.ItemID)
			if err != nil {
				return fmt.Errorf("get stock for %s: %w", line.ItemID, err)
			}
			if level != nil && level.Available <= m.threshold {
				low = append(low, *level)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, level := range low {
		m.instruments.LowStock(ctx, level.ItemID)
		m.logger.Warn("low stock",
			"item_id", level.ItemID,
			"available", level.Available,
			"threshold", m.threshold,
			"order_id", event.OrderID,
		)
	}

	return nil
}

func takesStock(event domain.OrderEvent) bool {
	switch event.Type {
	case domain.EventOrderPlaced:
		return true
	case domain.EventOrderStatusChanged:
		return event.PreviousStatus == domain.OrderStatusCancelled && event.Status != domain.OrderStatusCancelled
	}
	return false
}
