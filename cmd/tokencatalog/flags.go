package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

// sourceFlags override the TOKENLIST_* environment read by tokenlist.LoadConfig.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "exchange-url",
			Usage: "Exchange token list endpoint (default from TOKENLIST_EXCHANGE_URL)",
		},
		&cli.StringFlag{
			Name:  "logo-registry-url",
			Usage: "Logo registry endpoint (default from TOKENLIST_LOGO_REGISTRY_URL)",
		},
		&cli.DurationFlag{
			Name:  "fetch-timeout",
			Usage: "Timeout for a single source request (default from TOKENLIST_FETCH_TIMEOUT)",
		},
	}
}

func providerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "load-timeout",
			Usage:   "Upper bound for loading both sources",
			EnvVars: []string{"LOAD_TIMEOUT"},
			Value:   30 * time.Second,
		},
		&cli.IntFlag{
			Name:    "max-retries",
			Usage:   "Retries per source after a network failure",
			EnvVars: []string{"MAX_RETRIES"},
			Value:   2,
		},
		&cli.DurationFlag{
			Name:    "retry-backoff",
			Usage:   "Initial backoff between retries, doubled on each attempt",
			EnvVars: []string{"RETRY_BACKOFF"},
			Value:   500 * time.Millisecond,
		},
	}
}

// serveFlags returns all CLI flags for the serve command
func serveFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{"VERBOSE"},
		},
		&cli.StringFlag{
			Name:    "api-addr",
			Aliases: []string{"a"},
			Usage:   "Listen address of the catalog API",
			EnvVars: []string{"API_ADDR"},
			Value:   ":8080",
		},
		&cli.StringSliceFlag{
			Name:    "cors-origins",
			Usage:   "Browser origins allowed to call the API (comma-separated)",
			EnvVars: []string{"CORS_ALLOWED_ORIGINS"},
		},
		&cli.DurationFlag{
			Name:    "refresh-interval",
			Aliases: []string{"i"},
			Usage:   "Interval between background catalog refreshes (0 disables refreshing)",
			EnvVars: []string{"REFRESH_INTERVAL"},
			Value:   0,
		},
		&cli.StringFlag{
			Name:  "kafka-bootstrap-servers",
			Usage: "Kafka brokers for catalog announcements; announcements are off when empty (default from KAFKA_BOOTSTRAP_SERVERS)",
		},
		&cli.StringFlag{
			Name:  "kafka-topic",
			Usage: "Kafka topic for catalog announcements (default from KAFKA_TOPIC)",
		},
		&cli.BoolFlag{
			Name:  "kafka-enable-logs",
			Usage: "Forward librdkafka logs to the service logger (default from KAFKA_ENABLE_LOGS)",
		},
		&cli.StringFlag{
			Name:    "metrics-host",
			Usage:   "Host for Prometheus metrics server (empty for all interfaces)",
			EnvVars: []string{"METRICS_HOST"},
			Value:   "",
		},
		&cli.IntFlag{
			Name:    "metrics-port",
			Aliases: []string{"m"},
			Usage:   "Port for Prometheus metrics server",
			EnvVars: []string{"METRICS_PORT"},
			Value:   9090,
		},
		&cli.StringFlag{
			Name:    "environment",
			Aliases: []string{"E"},
			Usage:   "Deployment environment for metrics labels (e.g., 'production', 'staging')",
			EnvVars: []string{"ENVIRONMENT"},
		},
		&cli.StringFlag{
			Name:    "region",
			Aliases: []string{"R"},
			Usage:   "Cloud region for metrics labels (e.g., 'us-east-1')",
			EnvVars: []string{"REGION"},
		},
		&cli.StringFlag{
			Name:    "cloud-provider",
			Aliases: []string{"P"},
			Usage:   "Cloud provider for metrics labels (e.g., 'aws', 'oci', 'gcp')",
			EnvVars: []string{"CLOUD_PROVIDER"},
		},
	}
	flags = append(flags, sourceFlags()...)
	return append(flags, providerFlags()...)
}

// balanceFlags returns all CLI flags for the balance command
func balanceFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{"VERBOSE"},
		},
		&cli.StringFlag{
			Name:     "rpc-url",
			Aliases:  []string{"r"},
			Usage:    "The EVM JSON-RPC endpoint to query",
			EnvVars:  []string{"RPC_URL"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "symbol",
			Aliases:  []string{"s"},
			Usage:    "Token symbol as listed in the catalog (case-sensitive)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "owner",
			Aliases:  []string{"o"},
			Usage:    "Account address whose balance is queried",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "spender",
			Usage: "Also report the allowance granted by owner to this address",
		},
		&cli.StringFlag{
			Name:  "amount",
			Usage: "Report whether the balance, and the allowance when --spender is set, covers this amount",
		},
	}
	flags = append(flags, sourceFlags()...)
	return append(flags, providerFlags()...)
}
