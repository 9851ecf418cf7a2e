package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/joao-fontenele/storefront"

// Instruments are the business counters exported next to the otelsql and
// otelhttp metrics.
type Instruments struct {
	ordersPlaced     metric.Int64Counter
	checkoutFailures metric.Int64Counter
	transitions      metric.Int64Counter
	unitsRestocked   metric.Int64Counter
	payments         metric.Int64Counter
	lowStock         metric.Int64Counter
}

// NewInstruments registers the counters on the global MeterProvider.
func NewInstruments() (*Instruments, error) {
	return newInstruments(otel.Meter(meterName))
}

// NopInstruments records nothing. Handy in tests.
func NopInstruments() *Instruments {
	in, _ := newInstruments(noop.NewMeterProvider().Meter(meterName))
	return in
}

func newInstruments(meter metric.Meter) (*Instruments, error) {
	var in Instruments
	var err error

	if in.ordersPlaced, err = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders created by checkout")); err != nil {
		return nil, err
	}
	if in.checkoutFailures, err = meter.Int64Counter("storefront.checkout.failures",
		metric.WithDescription("Checkouts rolled back, by reason")); err != nil {
		return nil, err
	}
	if in.transitions, err = meter.Int64Counter("storefront.orders.transitions",
		metric.WithDescription("Order status changes, by source and target status")); err != nil {
		return nil, err
	}
	if in.unitsRestocked, err = meter.Int64Counter("storefront.inventory.restocked",
		metric.WithDescription("Units returned to stock by cancellations"),
		metric.WithUnit("{unit}")); err != nil {
		return nil, err
	}
	if in.payments, err = meter.Int64Counter("storefront.payments.recorded",
		metric.WithDescription("Payment attempts, by method and resulting status")); err != nil {
		return nil, err
	}
	if in.lowStock, err = meter.Int64Counter("storefront.inventory.low_stock",
		metric.WithDescription("Low stock observations after an order was placed")); err != nil {
		return nil, err
	}

	return &in, nil
}

func (in *Instruments) OrderPlaced(ctx context.Context) {
	in.ordersPlaced.Add(ctx, 1)
}

func (in *Instruments) CheckoutFailed(ctx context.Context, reason string) {
	in.checkoutFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (in *Instruments) Transitioned(ctx context.Context, from, to string) {
	in.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (in *Instruments) Restocked(ctx context.Context, units int) {
	in.unitsRestocked.Add(ctx, int64(units))
}

func (in *Instruments) PaymentRecorded(ctx context.Context, method, status string) {
	in.payments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
}

func (in *Instruments) LowStock(ctx context.Context, itemID string) {
	in.lowStock.Add(ctx, 1, metric.WithAttributes(attribute.String("item_id", itemID)))
}
