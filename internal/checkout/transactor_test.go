package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/store"
	"github.com/joao-fontenele/storefront/internal/store/memory"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

var shipTo = domain.ShippingDetails{
	Name:    "Alice Doe",
	Address: "1 Main St",
	City:    "Springfield",
	State:   "IL",
	Zip:     "62701",
	Phone:   "555-0100",
}

type countingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *countingPublisher) Publish(_ context.Context, e domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	store      *memory.Store
	transactor *Transactor
	publisher  *countingPublisher
}

func newFixture(t *testing.T, keys Keys, items ...domain.Item) *fixture {
	t.Helper()

	st := memory.NewStore(items...)
	pub := &countingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		store:      st,
		transactor: NewTransactor(st, keys, pub, telemetry.NopInstruments(), logger),
		publisher:  pub,
	}
}

func item(id, price string, stock int) domain.Item {
	return domain.Item{ID: id, Title: id, Price: decimal.RequireFromString(price), Available: stock}
}

func (f *fixture) addToCart(t *testing.T, customerID, itemID string, qty int) {
	t.Helper()

	err := f.store.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		line := &domain.CartLine{
			ID:         customerID + "-" + itemID,
			CustomerID: customerID,
			ItemID:     itemID,
			CreatedAt:  time.Now().UTC(),
		}
		if err := tx.Carts().AddUnit(ctx, line); err != nil {
			return err
		}
		return tx.Carts().SetQuantity(ctx, line.ID, qty)
	})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, itemID string) int {
	t.Helper()

	var available int
	err := f.store.View(context.Background(), func(ctx context.Context, tx store.Tx) error {
		level, err := tx.Inventory().GetStock(ctx, itemID)
		if err != nil {
			return err
		}
		available = level.Available
		return nil
	})
	require.NoError(t, err)
	return available
}

func (f *fixture) cart(t *testing.T, customerID string) []domain.CartLine {
	t.Helper()

	var lines []domain.CartLine
	err := f.store.View(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		lines, err = tx.Carts().List(ctx, customerID)
		return err
	})
	require.NoError(t, err)
	return lines
}

func TestPlaceOrderReservesAndClearsCart(t *testing.T) {
	f := newFixture(t, nil, item("X", "100", 5))
	f.addToCart(t, "alice", "X", 2)

	order, err := f.transactor.PlaceOrder(context.Background(), "alice", shipTo)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(200)), "total %s", order.Total)
	assert.True(t, order.Total.Equal(order.LinesTotal()))
	assert.Equal(t, shipTo, order.Shipping)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 2, order.Lines[0].Quantity)

	assert.Equal(t, 3, f.stock(t, "X"))
	assert.Empty(t, f.cart(t, "alice"))

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventOrderPlaced, f.publisher.events[0].Type)
}

func TestPlaceOrderInsufficientStockIsAtomic(t *testing.T) {
	f := newFixture(t, nil, item("A", "10", 5), item("Y", "20", 2))
	f.addToCart(t, "alice", "A", 1)
	f.addToCart(t, "alice", "Y", 3)

	_, err := f.transactor.PlaceOrder(context.Background(), "alice", shipTo)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Y", stockErr.ItemID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 5, f.stock(t, "A"), "reservation of A must be rolled back")
	assert.Equal(t, 2, f.stock(t, "Y"))
	assert.Len(t, f.cart(t, "alice"), 2)
	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrderUsesCurrentPrice(t *testing.T) {
	f := newFixture(t, nil, item("X", "100", 5))
	f.addToCart(t, "alice", "X", 1)
	f.store.PutItem(item("X", "120.50", 5))

	order, err := f.transactor.PlaceOrder(context.Background(), "alice", shipTo)
	require.NoError(t, err)
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("120.50")))

	f.store.PutItem(item("X", "999", 4))
	var stored *domain.Order
	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		stored, err = tx.Orders().GetByID(ctx, order.ID)
		return err
	}))
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("120.50")), "price snapshot must not follow the catalog")
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t, nil, item("X", "100", 5))

	_, err := f.transactor.PlaceOrder(context.Background(), "alice", shipTo)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	f.addToCart(t, "alice", "X", 1)
	_, err = f.transactor.PlaceOrder(context.Background(), "alice", domain.ShippingDetails{Name: "Alice"})
	assert.ErrorIs(t, err, domain.ErrInvalidShipping)
	assert.Equal(t, 5, f.stock(t, "X"))
}

func TestConcurrentCheckoutsNeverOvercommit(t *testing.T) {
	const buyers = 10
	f := newFixture(t, nil, item("LAST", "50", 3))
	for i := range buyers {
		f.addToCart(t, customer(i), "LAST", 1)
	}

	var placed, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.transactor.PlaceOrder(context.Background(), customer(i), shipTo)
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 3, placed.Load())
	assert.EqualValues(t, buyers-3, rejected.Load())
	assert.Equal(t, 0, f.stock(t, "LAST"))
}

func customer(i int) string {
	return "cust-" + string(rune('a'+i))
}

func TestPlaceOrderOnceReturnsOriginalOrder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, NewRedisKeys(client), item("X", "100", 5))
	f.addToCart(t, "alice", "X", 2)
	ctx := context.Background()

	first, created, err := f.transactor.PlaceOrderOnce(ctx, "alice", "key-1", shipTo)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.transactor.PlaceOrderOnce(ctx, "alice", "key-1", shipTo)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 3, f.stock(t, "X"))

	_, _, err = f.transactor.PlaceOrderOnce(ctx, "bob", "key-1", shipTo)
	assert.ErrorIs(t, err, domain.ErrEmptyCart, "keys are scoped per customer")
}

func TestPlaceOrderOnceReleasesKeyOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, NewRedisKeys(client), item("X", "100", 5))
	ctx := context.Background()

	_, _, err := f.transactor.PlaceOrderOnce(ctx, "alice", "key-1", shipTo)
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.False(t, mr.Exists(idempotencyKey("alice", "key-1")))

	f.addToCart(t, "alice", "X", 1)
	order, created, err := f.transactor.PlaceOrderOnce(ctx, "alice", "key-1", shipTo)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 4, f.stock(t, "X"))
	stored, err := mr.Get(idempotencyKey("alice", "key-1"))
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored)
}

// lateLineStore adds a cart line right after checkout locked the cart, the
// way a concurrent request committing between the lock and the delete would.
type lateLineStore struct {
	store.Store
	line domain.CartLine
}

func (s *lateLineStore) InTx(ctx context.Context, fn store.TxFunc) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, lateLineTx{Tx: tx, line: s.line})
	})
}

type lateLineTx struct {
	store.Tx
	line domain.CartLine
}

func (tx lateLineTx) Carts() store.Carts {
	return lateLineCarts{Carts: tx.Tx.Carts(), line: tx.line}
}

type lateLineCarts struct {
	store.Carts
	line domain.CartLine
}

func (c lateLineCarts) ListForUpdate(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	lines, err := c.Carts.ListForUpdate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	late := c.line
	if err := c.Carts.AddUnit(ctx, &late); err != nil {
		return nil, err
	}
	return lines, nil
}

func TestPlaceOrderKeepsLinesAddedAfterLock(t *testing.T) {
	f := newFixture(t, nil, item("X", "100", 5), item("Y", "30", 5))
	f.addToCart(t, "alice", "X", 1)

	late := &lateLineStore{
		Store: f.store,
		line:  domain.CartLine{ID: "late-line", CustomerID: "alice", ItemID: "Y", CreatedAt: time.Now().UTC()},
	}
	transactor := NewTransactor(late, nil, nil, telemetry.NopInstruments(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	order, err := transactor.PlaceOrder(context.Background(), "alice", shipTo)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "X", order.Lines[0].ItemID)

	remaining := f.cart(t, "alice")
	require.Len(t, remaining, 1)
	assert.Equal(t, "late-line", remaining[0].ID)
	assert.Equal(t, 5, f.stock(t, "Y"))
}

type flakyKeys struct {
	mu        sync.Mutex
	failures  int
	completes int
	recorded  string
}

func (k *flakyKeys) Begin(context.Context, string, string) (string, bool, error) {
	return "", true, nil
}

func (k *flakyKeys) Complete(_ context.Context, _, _, orderID string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.completes++
	if k.failures > 0 {
		k.failures--
		return errors.New("redis unavailable")
	}
	k.recorded = orderID
	return nil
}

func (k *flakyKeys) Abandon(context.Context, string, string) error {
	return nil
}

func TestPlaceOrderOnceRetriesKeyRecording(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		wantCalls    int
		wantRecorded bool
	}{
		{name: "first attempt succeeds", failures: 0, wantCalls: 1, wantRecorded: true},
		{name: "retry succeeds", failures: 1, wantCalls: 2, wantRecorded: true},
		{name: "both attempts fail", failures: 2, wantCalls: 2, wantRecorded: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := &flakyKeys{failures: tt.failures}
			f := newFixture(t, keys, item("X", "100", 5))
			f.addToCart(t, "alice", "X", 1)

			order, created, err := f.transactor.PlaceOrderOnce(context.Background(), "alice", "key-1", shipTo)
			require.NoError(t, err, "a committed order is returned even when the key is not recorded")
			assert.True(t, created)
			assert.Equal(t, tt.wantCalls, keys.completes)
			if tt.wantRecorded {
				assert.Equal(t, order.ID, keys.recorded)
			} else {
				assert.Empty(t, keys.recorded)
			}
		})
	}
}
