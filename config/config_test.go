package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "METRICS_PORT", "REDIS_ADDR", "DATABASE_URL", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"CATALOG_URL", "REVIEWS_URL", "OTEL_EXPORTER_OTLP_ENDPOINT", "DELIVERY_FEE", "SHIPPING_FEE",
	"SMARTSHOP_DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "50210", cfg.Port)
	assert.Equal(t, "9464", cfg.MetricsPort)
	assert.Equal(t, "smartshop.receipts", cfg.KafkaTopic)
	assert.Empty(t, cfg.RedisAddr)
	assert.True(t, cfg.DeliveryFee.Equal(decimal.NewFromInt(50)))
	assert.True(t, cfg.ShippingFee.Equal(decimal.NewFromInt(80)))
	assert.False(t, cfg.Debug)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "6000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DELIVERY_FEE", "12.5")
	t.Setenv("SMARTSHOP_DEBUG", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "6000", cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.True(t, cfg.DeliveryFee.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, cfg.Debug)
}

func TestFromEnv_InvalidFee(t *testing.T) {
	clearEnv(t)

	t.Setenv("SHIPPING_FEE", "eighty")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "SHIPPING_FEE")

	t.Setenv("SHIPPING_FEE", "-1")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "negative")
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("KAFKA_TOPIC")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KAFKA_TOPIC=from-file\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.KafkaTopic)
}
