package tokenlist

import (
	"context"
	"net/http"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/ava-labs/token-catalog/pkg/tokens"
	"go.uber.org/zap"
)

// The registry follows the token list standard; only the fields needed for the join
// are decoded. Entries without a logoURI are kept and skipped by the join.
type registryPayload struct {
	Tokens []registryToken `json:"tokens" validate:"required,dive"`
}

type registryToken struct {
	Address string `json:"address" validate:"required"`
	LogoURI string `json:"logoURI"`
}

// LogoRegistryClient reads the logo registry.
type LogoRegistryClient struct {
	url string
	f   *fetcher
}

func NewLogoRegistryClient(cfg Config, client *http.Client, log *zap.SugaredLogger, m *metrics.Metrics) *LogoRegistryClient {
	return &LogoRegistryClient{
		url: cfg.LogoRegistryURL,
		f:   newFetcher(cfg, client, log, m),
	}
}

// FetchLogos returns the registry entries in source order.
func (c *LogoRegistryClient) FetchLogos(ctx context.Context) ([]tokens.LogoEntry, error) {
	var payload registryPayload
	if err := c.f.getJSON(ctx, SourceLogoRegistry, c.url, &payload); err != nil {
		return nil, err
	}

	out := make([]tokens.LogoEntry, 0, len(payload.Tokens))
	for _, t := range payload.Tokens {
		out = append(out, tokens.LogoEntry{
			Address: t.Address,
			LogoURI: t.LogoURI,
		})
	}
	return out, nil
}
