package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	productionAPIURL  = "https://api.levantsdairy.co.uk"
	developmentAPIURL = "http://localhost:5001"
)

type Config struct {
	// APIBaseURL is where the shop backend lives. STOREFRONT_API_URL
	// overrides everything; otherwise APP_ENV=development selects the
	// local backend and anything else the production API subdomain.
	APIBaseURL string

	HTTPTimeout     time.Duration
	CartStoragePath string

	// RedisAddr switches cart persistence from the local JSON file to
	// Redis when set.
	RedisAddr string
	SessionID string

	Currency string
}

func Load() Config {
	// .env is optional
	_ = godotenv.Load()

	return Config{
		APIBaseURL:      resolveAPIBaseURL(),
		HTTPTimeout:     parseDuration(getenv("STOREFRONT_HTTP_TIMEOUT", "10s"), 10*time.Second),
		CartStoragePath: getenv("CART_STORAGE_PATH", defaultCartPath()),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		SessionID:       getenv("STOREFRONT_SESSION_ID", "default"),
		Currency:        getenv("CURRENCY", "gbp"),
	}
}

func resolveAPIBaseURL() string {
	if v := getenv("STOREFRONT_API_URL", ""); v != "" {
		return v
	}
	if strings.EqualFold(getenv("APP_ENV", ""), "development") {
		return developmentAPIURL
	}
	return productionAPIURL
}

func defaultCartPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "cart.json"
	}
	return filepath.Join(dir, "levants-storefront", "cart.json")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
