package tokenlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Source names used in logs, errors and metric labels.
const (
	SourceExchange     = "exchange"
	SourceLogoRegistry = "logo_registry"
)

// fetcher performs one GET against a token source and decodes the JSON body into a
// validated payload. It is shared by the exchange and logo registry clients.
type fetcher struct {
	client   *http.Client
	cfg      Config
	validate *validator.Validate
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
}

func newFetcher(cfg Config, client *http.Client, log *zap.SugaredLogger, m *metrics.Metrics) *fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &fetcher{
		client:   client,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
		metrics:  m,
	}
}

// getJSON fetches url and decodes it into out.
//
// Transport errors and non-2xx statuses are wrapped in ErrNetworkFailure; bodies that
// fail to decode or validate are wrapped in ErrMalformedResponse.
func (f *fetcher) getJSON(ctx context.Context, source, url string, out any) (err error) {
	start := time.Now()
	f.metrics.IncSourceInFlight()
	defer func() {
		f.metrics.DecSourceInFlight()
		f.metrics.RecordSourceFetch(source, err, time.Since(start).Seconds())
		switch {
		case err == nil:
		case IsRetryable(err):
			f.metrics.IncError(metrics.ErrTypeNetwork)
		default:
			f.metrics.IncError(metrics.ErrTypeMalformed)
		}
	}()

	if f.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.FetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: build request: %w", ErrNetworkFailure, source, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNetworkFailure, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %w", ErrNetworkFailure, &StatusError{
			Source:     source,
			URL:        url,
			StatusCode: resp.StatusCode,
		})
	}

	var body io.Reader = resp.Body
	if f.cfg.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.cfg.MaxBodyBytes)
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: read body: %w", ErrNetworkFailure, source, err)
		}
		return fmt.Errorf("%w: %s: decode: %w", ErrMalformedResponse, source, err)
	}

	if err := f.validate.StructCtx(ctx, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, source, err)
	}

	f.log.Debugw("fetched token source",
		"source", source,
		"url", url,
		"duration", time.Since(start),
	)
	return nil
}
