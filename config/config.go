// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port         string
	MetricsPort  string
	RedisAddr    string
	DatabaseURL  string
	KafkaBrokers string
	KafkaTopic   string
	CatalogURL   string
	ReviewsURL   string
	OTLPEndpoint string
	DeliveryFee  decimal.Decimal
	ShippingFee  decimal.Decimal
	Debug        bool
}

// Load reads a .env file if one exists, then the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (*Config, error) {
	delivery, err := decimalEnv("DELIVERY_FEE", "50")
	if err != nil {
		return nil, err
	}
	shipping, err := decimalEnv("SHIPPING_FEE", "80")
	if err != nil {
		return nil, err
	}
	return &Config{
		Port:         getenv("PORT", "50210"),
		MetricsPort:  getenv("METRICS_PORT", "9464"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   getenv("KAFKA_TOPIC", "smartshop.receipts"),
		CatalogURL:   getenv("CATALOG_URL", "https://fakestoreapi.com/products"),
		ReviewsURL:   os.Getenv("REVIEWS_URL"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		DeliveryFee:  delivery,
		ShippingFee:  shipping,
		Debug:        isTrue(os.Getenv("SMARTSHOP_DEBUG")),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func decimalEnv(key, fallback string) (decimal.Decimal, error) {
	raw := getenv(key, fallback)
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s: must not be negative, got %s", key, raw)
	}
	return v, nil
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
