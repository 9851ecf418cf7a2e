package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type Config struct {
	Port            string
	StoreDriver     string
	PostgresURL     string
	KafkaBrokers    []string
	RedisAddr       string
	OTLPEndpoint    string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		StoreDriver:     getEnv("STORE_DRIVER", driverPostgres),
		PostgresURL:     os.Getenv("POSTGRES_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RequestTimeout:  15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	switch cfg.StoreDriver {
	case driverPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("POSTGRES_URL environment variable is required for STORE_DRIVER=%s", driverPostgres)
		}
	case driverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
