package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// BreakerPublisher stops calling the broker after consecutive failures and
// fails fast until the breaker half-opens again.
type BreakerPublisher struct {
	next    Publisher
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerPublisher(next Publisher, logger *slog.Logger) *BreakerPublisher {
	settings := gobreaker.Settings{
		Name:        "kafka-publisher",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerPublisher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *BreakerPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Publish(ctx, event)
	})
	return err
}

// State reports the current breaker state, used by /healthz.
func (b *BreakerPublisher) State() gobreaker.State {
	return b.breaker.State()
}
