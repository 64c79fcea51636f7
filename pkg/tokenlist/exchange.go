package tokenlist

import (
	"context"
	"net/http"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/ava-labs/token-catalog/pkg/tokens"
	"go.uber.org/zap"
)

type exchangePayload struct {
	Records []exchangeRecord `json:"records" validate:"required,dive"`
}

type exchangeRecord struct {
	Symbol   string `json:"symbol"   validate:"required"`
	Address  string `json:"address"  validate:"required,eth_addr"`
	Decimals *int   `json:"decimals" validate:"required,min=0,max=255"`
}

// ExchangeClient reads the exchange token list.
type ExchangeClient struct {
	url string
	f   *fetcher
}

// NewExchangeClient creates a client for cfg.ExchangeURL. A nil client uses a default
// http.Client; per-request timeouts come from cfg.FetchTimeout.
func NewExchangeClient(cfg Config, client *http.Client, log *zap.SugaredLogger, m *metrics.Metrics) *ExchangeClient {
	return &ExchangeClient{
		url: cfg.ExchangeURL,
		f:   newFetcher(cfg, client, log, m),
	}
}

// FetchListed returns the exchange records in source order.
func (c *ExchangeClient) FetchListed(ctx context.Context) ([]tokens.ListedToken, error) {
	var payload exchangePayload
	if err := c.f.getJSON(ctx, SourceExchange, c.url, &payload); err != nil {
		return nil, err
	}

	out := make([]tokens.ListedToken, 0, len(payload.Records))
	for _, r := range payload.Records {
		out = append(out, tokens.ListedToken{
			Symbol:   r.Symbol,
			Address:  r.Address,
			Decimals: uint8(*r.Decimals),
		})
	}
	return out, nil
}
