package tokenlist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/ava-labs/token-catalog/pkg/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const usdc = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

func serveJSON(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(exchangeURL, logoURL string) Config {
	cfg := DefaultConfig()
	cfg.ExchangeURL = exchangeURL
	cfg.LogoRegistryURL = logoURL
	cfg.FetchTimeout = 2 * time.Second
	return cfg
}

func TestExchangeClient_FetchListed(t *testing.T) {
	t.Parallel()

	srv := serveJSON(t, http.StatusOK, `{"records":[
		{"symbol":"USDC","address":"`+usdc+`","decimals":6},
		{"symbol":"WETH","address":"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2","decimals":18}
	]}`)

	c := NewExchangeClient(testConfig(srv.URL, ""), nil, zaptest.NewLogger(t).Sugar(), nil)
	got, err := c.FetchListed(t.Context())
	require.NoError(t, err)
	require.Equal(t, []tokens.ListedToken{
		{Symbol: "USDC", Address: usdc, Decimals: 6},
		{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
	}, got)
}

func TestExchangeClient_SendsHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, "")
	cfg.UserAgent = "catalog-test"
	c := NewExchangeClient(cfg, srv.Client(), nil, nil)

	got, err := c.FetchListed(t.Context())
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, "catalog-test", gotUA)
	require.Equal(t, "application/json", gotAccept)
}

func TestExchangeClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: ErrNetworkFailure,
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{}`,
			wantErr: ErrNetworkFailure,
		},
		{
			name:    "invalid json",
			status:  http.StatusOK,
			body:    `{"records":[`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "missing records",
			status:  http.StatusOK,
			body:    `{"tokens":[]}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "records not an array",
			status:  http.StatusOK,
			body:    `{"records":"nope"}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "missing symbol",
			status:  http.StatusOK,
			body:    `{"records":[{"address":"` + usdc + `","decimals":6}]}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "missing decimals",
			status:  http.StatusOK,
			body:    `{"records":[{"symbol":"USDC","address":"` + usdc + `"}]}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "negative decimals",
			status:  http.StatusOK,
			body:    `{"records":[{"symbol":"USDC","address":"` + usdc + `","decimals":-1}]}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "decimals out of range",
			status:  http.StatusOK,
			body:    `{"records":[{"symbol":"USDC","address":"` + usdc + `","decimals":256}]}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "address not hex",
			status:  http.StatusOK,
			body:    `{"records":[{"symbol":"USDC","address":"usdc.eth","decimals":6}]}`,
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := serveJSON(t, tt.status, tt.body)
			c := NewExchangeClient(testConfig(srv.URL, ""), nil, nil, nil)

			got, err := c.FetchListed(t.Context())
			require.Nil(t, got)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExchangeClient_StatusError(t *testing.T) {
	t.Parallel()

	srv := serveJSON(t, http.StatusBadGateway, `bad gateway`)
	c := NewExchangeClient(testConfig(srv.URL, ""), nil, nil, nil)

	_, err := c.FetchListed(t.Context())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	require.Equal(t, SourceExchange, statusErr.Source)
	require.True(t, IsRetryable(err))
}

func TestExchangeClient_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewExchangeClient(testConfig(url, ""), nil, nil, nil)
	_, err := c.FetchListed(t.Context())
	require.ErrorIs(t, err, ErrNetworkFailure)
	require.True(t, IsRetryable(err))
}

func TestExchangeClient_FetchTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL, "")
	cfg.FetchTimeout = 50 * time.Millisecond
	c := NewExchangeClient(cfg, nil, nil, nil)

	_, err := c.FetchListed(t.Context())
	require.ErrorIs(t, err, ErrNetworkFailure)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExchangeClient_BodyLimit(t *testing.T) {
	t.Parallel()

	srv := serveJSON(t, http.StatusOK, `{"records":[{"symbol":"USDC","address":"`+usdc+`","decimals":6}]}`)
	cfg := testConfig(srv.URL, "")
	cfg.MaxBodyBytes = 16
	c := NewExchangeClient(cfg, nil, nil, nil)

	_, err := c.FetchListed(t.Context())
	require.ErrorIs(t, err, ErrMalformedResponse)
	require.False(t, IsRetryable(err))
}

func TestLogoRegistryClient_FetchLogos(t *testing.T) {
	t.Parallel()

	srv := serveJSON(t, http.StatusOK, `{
		"name":"Uniswap Labs Default",
		"tokens":[
			{"chainId":1,"address":"`+usdc+`","symbol":"USDC","logoURI":"https://example.com/usdc.png"},
			{"chainId":1,"address":"0x6B175474E89094C44Da98b954EedeAC495271d0F"}
		]
	}`)

	c := NewLogoRegistryClient(testConfig("", srv.URL), nil, zaptest.NewLogger(t).Sugar(), nil)
	got, err := c.FetchLogos(t.Context())
	require.NoError(t, err)
	require.Equal(t, []tokens.LogoEntry{
		{Address: usdc, LogoURI: "https://example.com/usdc.png"},
		{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F"},
	}, got)
}

func TestLogoRegistryClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unavailable", status: http.StatusServiceUnavailable, body: ``, wantErr: ErrNetworkFailure},
		{name: "missing tokens", status: http.StatusOK, body: `{"name":"x"}`, wantErr: ErrMalformedResponse},
		{name: "missing address", status: http.StatusOK, body: `{"tokens":[{"logoURI":"https://x"}]}`, wantErr: ErrMalformedResponse},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := serveJSON(t, tt.status, tt.body)
			c := NewLogoRegistryClient(testConfig("", srv.URL), nil, nil, nil)

			_, err := c.FetchLogos(t.Context())
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetcher_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	ok := serveJSON(t, http.StatusOK, `{"tokens":[]}`)
	bad := serveJSON(t, http.StatusOK, `{`)

	_, err = NewLogoRegistryClient(testConfig("", ok.URL), nil, nil, m).FetchLogos(t.Context())
	require.NoError(t, err)
	_, err = NewLogoRegistryClient(testConfig("", bad.URL), nil, nil, m).FetchLogos(t.Context())
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if mf.GetName() != "tokencatalog_source_fetches_total" && mf.GetName() != "tokencatalog_errors_total" {
				continue
			}
			key := mf.GetName()
			for _, l := range metric.GetLabel() {
				key += "/" + l.GetValue()
			}
			counts[key] = metric.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(1), counts["tokencatalog_source_fetches_total/logo_registry/success"])
	require.Equal(t, float64(1), counts["tokencatalog_source_fetches_total/logo_registry/error"])
	require.Equal(t, float64(1), counts["tokencatalog_errors_total/malformed"])
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, IsRetryable(ErrNetworkFailure))
	require.False(t, IsRetryable(ErrMalformedResponse))
	require.False(t, IsRetryable(errors.New("other")))
	require.False(t, IsRetryable(nil))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TOKENLIST_EXCHANGE_URL", "http://exchange.local/tokens")
	t.Setenv("TOKENLIST_FETCH_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://exchange.local/tokens", cfg.ExchangeURL)
	require.Equal(t, DefaultLogoRegistryURL, cfg.LogoRegistryURL)
	require.Equal(t, 3*time.Second, cfg.FetchTimeout)
	require.Equal(t, "token-catalog/1.0", cfg.UserAgent)
	require.Equal(t, int64(32<<20), cfg.MaxBodyBytes)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("TOKENLIST_FETCH_TIMEOUT", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
}
