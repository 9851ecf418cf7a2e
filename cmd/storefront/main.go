package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/inventory"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/payment"
	"github.com/joao-fontenele/storefront/internal/store"
	"github.com/joao-fontenele/storefront/internal/store/memory"
	"github.com/joao-fontenele/storefront/internal/store/postgres"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const (
	serviceName    = "storefront"
	serviceVersion = "0.1.0"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	instruments, err := telemetry.NewInstruments()
	if err != nil {
		logger.Error("failed to create instruments", "error", err)
		os.Exit(1)
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var publisher messaging.Publisher
	var breaker *messaging.BreakerPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, messaging.OrdersTopic)
		defer func() { _ = producer.Close() }()
		breaker = messaging.NewBreakerPublisher(producer, logger)
		publisher = breaker
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	var keys checkout.Keys
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = redisClient.Close() }()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		keys = checkout.NewRedisKeys(redisClient)
	} else {
		logger.Warn("REDIS_ADDR not set, idempotency keys disabled")
	}

	orderService := orders.NewService(st, publisher, instruments, logger)
	h := handlers{
		stock:    inventory.NewHandler(st, logger),
		cart:     cart.NewHandler(cart.NewService(st, logger), logger),
		checkout: checkout.NewHandler(checkout.NewTransactor(st, keys, publisher, instruments, logger), logger),
		orders:   orders.NewHandler(orderService, logger),
		payments: payment.NewHandler(payment.NewProcessor(st, publisher, instruments, logger), logger),
	}

	health := func() map[string]string {
		status := map[string]string{"store": cfg.StoreDriver}
		if breaker != nil {
			status["events"] = breaker.State().String()
		}
		return status
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(h, metricsHandler, health, cfg.RequestTimeout, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func openStore(ctx context.Context, cfg *Config) (store.Store, func(), error) {
	if cfg.StoreDriver == driverMemory {
		return memory.NewStore(demoCatalog()...), func() {}, nil
	}

	db, err := telemetry.OpenPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewStore(db), func() { _ = db.Close() }, nil
}

// demoCatalog matches the rows seeded by the first migration.
func demoCatalog() []domain.Item {
	return []domain.Item{
		{ID: "BOOK-001", Title: "The Great Gatsby", Price: decimal.RequireFromString("399.99"), Available: 10},
		{ID: "BOOK-002", Title: "A Brief History of Time", Price: decimal.RequireFromString("499.00"), Available: 8},
		{ID: "BOOK-003", Title: "Clean Code", Price: decimal.RequireFromString("599.00"), Available: 5},
	}
}
