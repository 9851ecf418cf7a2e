package messaging

import (
	"context"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Emit publishes events after a commit. Failures are logged and dropped:
// the state change already happened and callers must not see an error for
// it. A nil publisher disables events.
func Emit(ctx context.Context, pub Publisher, logger *slog.Logger, events ...domain.OrderEvent) {
	if pub == nil {
		return
	}
	for _, event := range events {
		if err := pub.Publish(ctx, event); err != nil {
			logger.Warn("failed to publish order event",
				"event_type", event.Type,
				"order_id", event.OrderID,
				"error", err,
			)
		}
	}
}
