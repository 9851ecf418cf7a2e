package worker

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/store/memory"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func newMonitor(t *testing.T, buf *bytes.Buffer) *StockMonitor {
	t.Helper()

	st := memory.NewStore(
		domain.Item{ID: "BOOK-001", Price: decimal.NewFromInt(10), Available: 2},
		domain.Item{ID: "BOOK-002", Price: decimal.NewFromInt(10), Available: 50},
	)
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return NewStockMonitor(st, 3, telemetry.NopInstruments(), logger)
}

func TestStockMonitorFlagsLowStock(t *testing.T) {
	var buf bytes.Buffer
	m := newMonitor(t, &buf)

	err := m.Handle(context.Background(), domain.OrderEvent{
		Type:    domain.EventOrderPlaced,
		OrderID: "order-1",
		Lines: []domain.OrderLine{
			{ItemID: "BOOK-001", Quantity: 1},
			{ItemID: "BOOK-002", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "item_id=BOOK-001") {
		t.Errorf("expected BOOK-001 flagged, log was:\n%s", out)
	}
	if strings.Contains(out, "item_id=BOOK-002") {
		t.Errorf("BOOK-002 has plenty of stock, log was:\n%s", out)
	}
}

func TestStockMonitorIgnoresEventsThatReturnStock(t *testing.T) {
	tests := []struct {
		name  string
		event domain.OrderEvent
	}{
		{
			name: "cancel",
			event: domain.OrderEvent{
				Type:           domain.EventOrderStatusChanged,
				Status:         domain.OrderStatusCancelled,
				PreviousStatus: domain.OrderStatusPending,
			},
		},
		{
			name:  "payment",
			event: domain.OrderEvent{Type: domain.EventPaymentRecorded},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			m := newMonitor(t, &buf)

			tt.event.Lines = []domain.OrderLine{{ItemID: "BOOK-001", Quantity: 1}}
			if err := m.Handle(context.Background(), tt.event); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Contains(buf.String(), "low stock") {
				t.Errorf("expected no low stock warning, log was:\n%s", buf.String())
			}
		})
	}
}

func TestStockMonitorChecksRevivedOrders(t *testing.T) {
	var buf bytes.Buffer
	m := newMonitor(t, &buf)

	err := m.Handle(context.Background(), domain.OrderEvent{
		Type:           domain.EventOrderStatusChanged,
		Status:         domain.OrderStatusPending,
		PreviousStatus: domain.OrderStatusCancelled,
		Lines:          []domain.OrderLine{{ItemID: "BOOK-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "low stock") {
		t.Errorf("expected low stock warning, log was:\n%s", buf.String())
	}
}
