package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/token-catalog/pkg/api"
	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/ava-labs/token-catalog/pkg/provider"
	"github.com/ava-labs/token-catalog/pkg/queue"
	"github.com/ava-labs/token-catalog/pkg/tokenlist"
	"github.com/ava-labs/token-catalog/pkg/utils"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	shutdownTimeout       = 5 * time.Second
	publisherCloseTimeout = 15 * time.Second
)

func serve(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"exchangeURL", cfg.Sources.ExchangeURL,
		"logoRegistryURL", cfg.Sources.LogoRegistryURL,
		"fetchTimeout", cfg.Sources.FetchTimeout,
		"loadTimeout", cfg.Provider.LoadTimeout,
		"maxRetries", cfg.Provider.MaxRetries,
		"retryBackoff", cfg.Provider.RetryBackoff,
		"refreshInterval", cfg.RefreshInterval,
		"apiAddr", cfg.API.Addr,
		"corsOrigins", cfg.API.AllowedOrigins,
		"announcements", cfg.Kafka.Enabled(),
		"kafkaTopic", cfg.Kafka.Topic,
		"metricsHost", cfg.MetricsHost,
		"metricsPort", cfg.MetricsPort,
		"environment", cfg.Environment,
		"region", cfg.Region,
		"cloudProvider", cfg.CloudProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Prometheus metrics with labels for multi-instance filtering
	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, metrics.Labels{
		Environment:   cfg.Environment,
		Region:        cfg.Region,
		CloudProvider: cfg.CloudProvider,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	var (
		opts         []provider.HostOption
		publisherErr <-chan error
	)
	if cfg.Kafka.Enabled() {
		if cfg.Kafka.EnsureTopic {
			if err := ensureAnnouncementTopic(ctx, cfg.Kafka, sugar); err != nil {
				return err
			}
		}

		publisher, err := queue.NewKafkaPublisher(ctx, cfg.Kafka.ConfigMap(), sugar)
		if err != nil {
			return fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), publisherCloseTimeout)
			defer cancel()
			publisher.Close(closeCtx)
		}()
		publisherErr = publisher.Errors()
		opts = append(opts, provider.WithAnnouncer(
			provider.NewQueueAnnouncer(publisher, cfg.Kafka.Topic, sugar, m),
		))
		sugar.Infow("catalog announcements enabled", "topic", cfg.Kafka.Topic)
	}

	host := provider.NewHost(ctx, newFactory(cfg.Sources, cfg.Provider, sugar, m), sugar, m, opts...)
	defer host.Close()

	metricsServer := metrics.NewServer(cfg.MetricsAddr(), registry, host.Ready)
	metricsErrCh := metricsServer.Start()
	if cfg.MetricsHost == "" {
		sugar.Infof("metrics server listening on http://0.0.0.0:%d/metrics", cfg.MetricsPort)
	} else {
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr())
	}

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(host, sugar, m), cfg.API, sugar, m)
	apiServer := api.NewServer(cfg.API.Addr, router)
	apiErrCh := apiServer.Start()
	sugar.Infow("catalog api listening", "addr", cfg.API.Addr)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return host.RunRefresher(gctx, cfg.RefreshInterval)
	})

	// Server and publisher error monitoring goroutine
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		case err := <-apiErrCh:
			if err != nil {
				return fmt.Errorf("api server error: %w", err)
			}
			return nil
		case err := <-metricsErrCh:
			if err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		case err, ok := <-publisherErr:
			if ok && err != nil {
				return fmt.Errorf("kafka publisher error: %w", err)
			}
			return nil
		}
	})

	err = g.Wait()

	sugar.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := apiServer.Shutdown(shutdownCtx); shutdownErr != nil {
		sugar.Warnw("api server shutdown error", "error", shutdownErr)
	}
	if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
		sugar.Warnw("metrics server shutdown error", "error", shutdownErr)
	}

	if errors.Is(err, context.Canceled) {
		sugar.Info("shutdown complete")
		return nil
	}
	if err != nil {
		sugar.Errorw("serve failed", "error", err)
		return err
	}
	sugar.Info("shutdown complete")
	return nil
}

// newFactory returns a provider factory sharing one HTTP client across mounts.
func newFactory(
	sources tokenlist.Config,
	cfg provider.Config,
	log *zap.SugaredLogger,
	m *metrics.Metrics,
) provider.Factory {
	client := &http.Client{}
	exchange := tokenlist.NewExchangeClient(sources, client, log, m)
	logos := tokenlist.NewLogoRegistryClient(sources, client, log, m)

	return func() *provider.Provider {
		return provider.New(exchange, logos, cfg, log, m)
	}
}

func ensureAnnouncementTopic(ctx context.Context, cfg queue.KafkaConfig, log *zap.SugaredLogger) error {
	admin, err := confluentKafka.NewAdminClient(cfg.AdminConfigMap())
	if err != nil {
		return fmt.Errorf("failed to create kafka admin client: %w", err)
	}
	defer admin.Close()

	if err := queue.EnsureTopic(ctx, admin, cfg.TopicConfig(), log); err != nil {
		return fmt.Errorf("failed to ensure kafka announcement topic exists: %w", err)
	}
	return nil
}
