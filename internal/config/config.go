package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shipmux/rate-router/internal/models"
)

// Config is the full process configuration, loaded once at startup. Business
// rules are immutable for the life of the run; a reload only affects
// decisions made after restart.
type Config struct {
	Addr        string
	DatabaseURL string

	OrderPlatformURL  string
	OrderFetchRetries int

	// comma-separated carrier=baseURL pairs, e.g.
	// "fedex=https://fedex-rates.internal,usps=https://usps-rates.internal".
	// Declaration order is preserved: tie-breaks fall to the earlier provider.
	ProviderEndpoints []Endpoint
	ProviderTimeout   time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	ArchiveBucket string
	ArchivePrefix string

	AnalyticsJWTSecret string

	Rules models.BusinessRules
}

const (
	defaultAddr            = ":8040"
	defaultMarginPercent   = 5
	defaultSpeedDays       = 2
	defaultMaxWeightGrams  = 22680 // 50 lb
	defaultProviderTimeout = 5 * time.Second
	defaultFetchRetries    = 3
	defaultKafkaTopic      = "shipment-requests"
)

func Load() (Config, error) {
	cfg := Config{
		Addr:              getEnv("RATE_ROUTER_ADDR", defaultAddr),
		DatabaseURL:       firstNonEmpty(os.Getenv("RATE_ROUTER_DATABASE_URL"), os.Getenv("DATABASE_URL")),
		OrderPlatformURL:  os.Getenv("RATE_ROUTER_ORDER_PLATFORM_URL"),
		OrderFetchRetries: getInt("RATE_ROUTER_ORDER_FETCH_RETRIES", defaultFetchRetries),
		ProviderEndpoints: parseEndpoints(os.Getenv("RATE_ROUTER_PROVIDER_ENDPOINTS")),
		ProviderTimeout:   getDuration("RATE_ROUTER_PROVIDER_TIMEOUT", defaultProviderTimeout),
		KafkaBrokers:      splitNonEmpty(os.Getenv("RATE_ROUTER_KAFKA_BROKERS")),
		KafkaTopic:        getEnv("RATE_ROUTER_KAFKA_TOPIC", defaultKafkaTopic),
		ArchiveBucket:     os.Getenv("RATE_ROUTER_ARCHIVE_BUCKET"),
		ArchivePrefix:     os.Getenv("RATE_ROUTER_ARCHIVE_PREFIX"),

		AnalyticsJWTSecret: os.Getenv("RATE_ROUTER_ANALYTICS_JWT_SECRET"),

		Rules: models.BusinessRules{
			MarginPercent:      getInt("RATE_ROUTER_MARGIN_PERCENT", defaultMarginPercent),
			SpeedAdvantageDays: getInt("RATE_ROUTER_SPEED_ADVANTAGE_DAYS", defaultSpeedDays),
			MinSavingsCents:    int64(getInt("RATE_ROUTER_MIN_SAVINGS_CENTS", 0)),
			MaxWeightGrams:     getInt("RATE_ROUTER_MAX_WEIGHT_GRAMS", defaultMaxWeightGrams),
			MaxDims: models.Dimensions{
				Length: getFloat("RATE_ROUTER_MAX_LENGTH_IN", 24),
				Width:  getFloat("RATE_ROUTER_MAX_WIDTH_IN", 18),
				Height: getFloat("RATE_ROUTER_MAX_HEIGHT_IN", 12),
			},
		},
	}
	if cfg.OrderPlatformURL == "" {
		return Config{}, fmt.Errorf("RATE_ROUTER_ORDER_PLATFORM_URL required")
	}
	if cfg.Rules.MarginPercent < 0 {
		return Config{}, fmt.Errorf("RATE_ROUTER_MARGIN_PERCENT must not be negative")
	}
	return cfg, nil
}

// Endpoint is one third-party rate API, in declaration order.
type Endpoint struct {
	Carrier string
	BaseURL string
}

// parseEndpoints turns "fedex=url,usps=url" into an ordered endpoint list;
// malformed entries and repeated carriers are skipped rather than fatal.
func parseEndpoints(raw string) []Endpoint {
	var out []Endpoint
	seen := map[string]bool{}
	for _, pair := range splitNonEmpty(raw) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" || v == "" {
			continue
		}
		carrier := strings.TrimSpace(k)
		if seen[carrier] {
			continue
		}
		seen[carrier] = true
		out = append(out, Endpoint{Carrier: carrier, BaseURL: strings.TrimSpace(v)})
	}
	return out
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
