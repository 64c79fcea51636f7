package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/token-catalog/pkg/api"
	"github.com/ava-labs/token-catalog/pkg/provider"
	"github.com/ava-labs/token-catalog/pkg/queue"
	"github.com/ava-labs/token-catalog/pkg/tokenlist"
	"github.com/ava-labs/token-catalog/pkg/utils"
)

var errInvalidConfig = errors.New("invalid config")

// Config holds all configuration for the serve command
type Config struct {
	// Application settings
	Verbose bool

	// Catalog settings
	Sources         tokenlist.Config
	Provider        provider.Config
	RefreshInterval time.Duration

	// API settings
	API api.Config

	// Announcement settings
	Kafka queue.KafkaConfig

	// Metrics settings
	MetricsHost   string
	MetricsPort   int
	Environment   string
	Region        string
	CloudProvider string
}

// MetricsAddr returns the formatted metrics address
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.MetricsHost, c.MetricsPort)
}

// BalanceConfig holds all configuration for the balance command
type BalanceConfig struct {
	Verbose  bool
	Sources  tokenlist.Config
	Provider provider.Config
	RPCURL   string
	Symbol   string
	Owner    string // checksummed
	Spender  string // checksummed, empty when no allowance is requested
	Amount   string // human readable, empty when no coverage check is requested
}

// buildConfig builds a Config from CLI context flags and the environment
func buildConfig(c *cli.Context) (*Config, error) {
	sources, err := buildSourcesConfig(c)
	if err != nil {
		return nil, err
	}
	providerCfg, err := buildProviderConfig(c)
	if err != nil {
		return nil, err
	}

	kafkaCfg, err := queue.LoadKafkaConfig()
	if err != nil {
		return nil, err
	}
	if c.IsSet("kafka-bootstrap-servers") {
		kafkaCfg.BootstrapServers = c.String("kafka-bootstrap-servers")
	}
	if c.IsSet("kafka-topic") {
		kafkaCfg.Topic = c.String("kafka-topic")
	}
	if c.IsSet("kafka-enable-logs") {
		kafkaCfg.EnableLogs = c.Bool("kafka-enable-logs")
	}
	if kafkaCfg.Enabled() && kafkaCfg.Topic == "" {
		return nil, fmt.Errorf("%w: kafka topic is required when brokers are set", errInvalidConfig)
	}

	refresh := c.Duration("refresh-interval")
	if refresh < 0 {
		return nil, fmt.Errorf("%w: refresh-interval must not be negative, got %s", errInvalidConfig, refresh)
	}

	return &Config{
		Verbose:         c.Bool("verbose"),
		Sources:         sources,
		Provider:        providerCfg,
		RefreshInterval: refresh,
		API: api.Config{
			Addr:           c.String("api-addr"),
			AllowedOrigins: c.StringSlice("cors-origins"),
		},
		Kafka:         kafkaCfg,
		MetricsHost:   c.String("metrics-host"),
		MetricsPort:   c.Int("metrics-port"),
		Environment:   c.String("environment"),
		Region:        c.String("region"),
		CloudProvider: c.String("cloud-provider"),
	}, nil
}

// buildBalanceConfig builds a BalanceConfig from CLI context flags and the environment
func buildBalanceConfig(c *cli.Context) (*BalanceConfig, error) {
	sources, err := buildSourcesConfig(c)
	if err != nil {
		return nil, err
	}
	providerCfg, err := buildProviderConfig(c)
	if err != nil {
		return nil, err
	}

	owner, err := utils.NormalizeAddress(c.String("owner"))
	if err != nil {
		return nil, fmt.Errorf("%w: owner: %w", errInvalidConfig, err)
	}
	var spender string
	if c.IsSet("spender") {
		spender, err = utils.NormalizeAddress(c.String("spender"))
		if err != nil {
			return nil, fmt.Errorf("%w: spender: %w", errInvalidConfig, err)
		}
	}

	return &BalanceConfig{
		Verbose:  c.Bool("verbose"),
		Sources:  sources,
		Provider: providerCfg,
		RPCURL:   c.String("rpc-url"),
		Symbol:   c.String("symbol"),
		Owner:    owner,
		Spender:  spender,
		Amount:   c.String("amount"),
	}, nil
}

// buildSourcesConfig starts from the TOKENLIST_* environment and applies explicit flags.
func buildSourcesConfig(c *cli.Context) (tokenlist.Config, error) {
	cfg, err := tokenlist.LoadConfig()
	if err != nil {
		return tokenlist.Config{}, err
	}
	if c.IsSet("exchange-url") {
		cfg.ExchangeURL = c.String("exchange-url")
	}
	if c.IsSet("logo-registry-url") {
		cfg.LogoRegistryURL = c.String("logo-registry-url")
	}
	if c.IsSet("fetch-timeout") {
		cfg.FetchTimeout = c.Duration("fetch-timeout")
	}

	if cfg.ExchangeURL == "" || cfg.LogoRegistryURL == "" {
		return tokenlist.Config{}, fmt.Errorf("%w: both source URLs are required", errInvalidConfig)
	}
	if cfg.FetchTimeout <= 0 {
		return tokenlist.Config{}, fmt.Errorf("%w: fetch-timeout must be positive, got %s", errInvalidConfig, cfg.FetchTimeout)
	}
	return cfg, nil
}

func buildProviderConfig(c *cli.Context) (provider.Config, error) {
	cfg := provider.Config{
		LoadTimeout:  c.Duration("load-timeout"),
		MaxRetries:   c.Int("max-retries"),
		RetryBackoff: c.Duration("retry-backoff"),
	}
	if cfg.LoadTimeout <= 0 {
		return provider.Config{}, fmt.Errorf("%w: load-timeout must be positive, got %s", errInvalidConfig, cfg.LoadTimeout)
	}
	if cfg.MaxRetries < 0 {
		return provider.Config{}, fmt.Errorf("%w: max-retries must not be negative, got %d", errInvalidConfig, cfg.MaxRetries)
	}
	if cfg.RetryBackoff < 0 {
		return provider.Config{}, fmt.Errorf("%w: retry-backoff must not be negative, got %s", errInvalidConfig, cfg.RetryBackoff)
	}
	return cfg, nil
}
