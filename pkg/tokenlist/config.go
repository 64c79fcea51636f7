package tokenlist

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultExchangeURL     = "https://api.0x.org/swap/v0/tokens"
	DefaultLogoRegistryURL = "https://tokens.uniswap.org"
)

// Config holds the endpoints and HTTP settings for both token sources.
type Config struct {
	ExchangeURL     string        `env:"TOKENLIST_EXCHANGE_URL"      envDefault:"https://api.0x.org/swap/v0/tokens"`
	LogoRegistryURL string        `env:"TOKENLIST_LOGO_REGISTRY_URL" envDefault:"https://tokens.uniswap.org"`
	FetchTimeout    time.Duration `env:"TOKENLIST_FETCH_TIMEOUT"     envDefault:"10s"`               // per request
	UserAgent       string        `env:"TOKENLIST_USER_AGENT"        envDefault:"token-catalog/1.0"` // sent with every request
	MaxBodyBytes    int64         `env:"TOKENLIST_MAX_BODY_BYTES"    envDefault:"33554432"`          // 32MB
}

// DefaultConfig returns a Config pointing at the public endpoints.
func DefaultConfig() Config {
	return Config{
		ExchangeURL:     DefaultExchangeURL,
		LogoRegistryURL: DefaultLogoRegistryURL,
		FetchTimeout:    10 * time.Second,
		UserAgent:       "token-catalog/1.0",
		MaxBodyBytes:    32 << 20,
	}
}

// LoadConfig loads the source configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse tokenlist config: %w", err)
	}
	return cfg, nil
}
