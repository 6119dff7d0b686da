package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresOrderPlatformURL(t *testing.T) {
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RATE_ROUTER_ORDER_PLATFORM_URL", "https://platform.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8040", cfg.Addr)
	assert.Equal(t, 5, cfg.Rules.MarginPercent)
	assert.Equal(t, 2, cfg.Rules.SpeedAdvantageDays)
	assert.Equal(t, 22680, cfg.Rules.MaxWeightGrams)
	assert.Equal(t, 24.0, cfg.Rules.MaxDims.Length)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 3, cfg.OrderFetchRetries)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RATE_ROUTER_ORDER_PLATFORM_URL", "https://platform.example.com")
	t.Setenv("RATE_ROUTER_MARGIN_PERCENT", "8")
	t.Setenv("RATE_ROUTER_PROVIDER_TIMEOUT", "2s")
	t.Setenv("RATE_ROUTER_PROVIDER_ENDPOINTS", "fedex=https://fedex.internal, usps=https://usps.internal,broken")
	t.Setenv("RATE_ROUTER_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Rules.MarginPercent)
	assert.Equal(t, 2*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, []Endpoint{
		{Carrier: "fedex", BaseURL: "https://fedex.internal"},
		{Carrier: "usps", BaseURL: "https://usps.internal"},
	}, cfg.ProviderEndpoints)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestEndpointsKeepDeclarationOrder(t *testing.T) {
	// Tie-breaks fall to the earlier provider, so the parsed order must
	// match the env var, not map iteration.
	raw := "usps=https://usps.internal,fedex=https://fedex.internal,ups=https://ups.internal,usps=https://dup.internal"
	got := parseEndpoints(raw)
	require.Len(t, got, 3)
	assert.Equal(t, "usps", got[0].Carrier)
	assert.Equal(t, "fedex", got[1].Carrier)
	assert.Equal(t, "ups", got[2].Carrier)
	assert.Equal(t, "https://usps.internal", got[0].BaseURL)
}
