package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/store/postgres"
	"github.com/joao-fontenele/storefront/internal/telemetry"
	"github.com/joao-fontenele/storefront/internal/worker"
)

const (
	serviceName    = "stock-monitor"
	serviceVersion = "0.1.0"
	consumerGroup  = "storefront-stock-monitor"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	threshold, err := strconv.Atoi(getEnv("LOW_STOCK_THRESHOLD", "2"))
	if err != nil || threshold < 0 {
		logger.Error("LOW_STOCK_THRESHOLD must be a non-negative integer", "value", os.Getenv("LOW_STOCK_THRESHOLD"))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), serviceName, serviceVersion)
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

	metricsPort := getEnv("METRICS_PORT", "9091")
	metricsServer := &http.Server{
		Addr:              ":" + metricsPort,
		Handler:           metricsHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() { _ = metricsServer.Close() }()

	db, err := telemetry.OpenPostgres(ctx, postgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	brokers := strings.Split(kafkaBrokers, ",")
	consumer := messaging.NewConsumer(brokers, messaging.OrdersTopic, consumerGroup, logger)
	defer func() { _ = consumer.Close() }()

	monitor := worker.NewStockMonitor(postgres.NewStore(db), threshold, instruments, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting stock monitor", "brokers", brokers, "threshold", threshold)

	if err := consumer.Consume(ctx, monitor.Handle); err != nil {
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
	logger.Info("consumer stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
