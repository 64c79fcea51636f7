package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/ava-labs/token-catalog/pkg/tokenlist"
	"github.com/ava-labs/token-catalog/pkg/tokens"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrClosed is returned when waiting on a provider that was closed before it settled.
	ErrClosed = errors.New("provider closed")
	// ErrNotReady is returned when scoping a context on a provider that is still loading.
	ErrNotReady = errors.New("catalog not ready")
)

// ExchangeSource lists the tokens tradable on the exchange.
type ExchangeSource interface {
	FetchListed(ctx context.Context) ([]tokens.ListedToken, error)
}

// LogoSource lists logo URIs by contract address.
type LogoSource interface {
	FetchLogos(ctx context.Context) ([]tokens.LogoEntry, error)
}

// State is the lifecycle state of a provider.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a consistent view of a provider at one point in time.
type Snapshot struct {
	ID      string
	State   State
	Catalog *tokens.Catalog // nil unless State is StateReady
	Err     error           // nil unless State is StateFailed
	ReadyAt time.Time
}

// Provider loads one catalog and holds it for its lifetime.
//
// A provider starts in StateLoading and moves exactly once to StateReady or StateFailed.
// Both states are terminal: a fresh load needs a fresh provider. After Close, results of
// an in-flight load are dropped.
type Provider struct {
	id       string
	exchange ExchangeSource
	logos    LogoSource
	cfg      Config
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	state   State
	catalog *tokens.Catalog
	err     error
	readyAt time.Time
	closed  bool

	done      chan struct{} // closed once the provider settles
	closedCh  chan struct{} // closed by Close
	cancel    context.CancelFunc
	startOnce sync.Once
	closeOnce sync.Once
	loadDone  chan struct{} // closed when the load goroutine returns
}

// New creates a provider in StateLoading. Call Start to begin loading.
func New(
	exchange ExchangeSource,
	logos LogoSource,
	cfg Config,
	log *zap.SugaredLogger,
	m *metrics.Metrics,
) *Provider {
	id := uuid.NewString()
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Provider{
		id:       id,
		exchange: exchange,
		logos:    logos,
		cfg:      cfg,
		log:      log.With("mountId", id),
		metrics:  m,
		state:    StateLoading,
		done:     make(chan struct{}),
		closedCh: make(chan struct{}),
		loadDone: make(chan struct{}),
	}
}

// ID returns the mount identifier used in logs and announcements.
func (p *Provider) ID() string {
	return p.id
}

// Start issues both source fetches concurrently and returns immediately.
// The load stops when ctx is cancelled or the provider is closed. Calling Start more
// than once has no effect.
func (p *Provider) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		loadCtx, cancel := context.WithCancel(ctx)
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			cancel()
			close(p.loadDone)
			return
		}
		p.cancel = cancel
		p.mu.Unlock()

		p.log.Infow("mounting token catalog provider")
		go func() {
			defer close(p.loadDone)
			defer cancel()
			p.load(loadCtx)
		}()
	})
}

// Close unmounts the provider. An in-flight load is cancelled and its result is
// discarded. Close blocks until the load goroutine has returned.
func (p *Provider) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		cancel := p.cancel
		p.mu.Unlock()

		close(p.closedCh)
		if cancel != nil {
			cancel()
			<-p.loadDone
		}
		p.log.Debugw("token catalog provider closed")
	})
}

// Done returns a channel that is closed when the provider reaches StateReady or StateFailed.
func (p *Provider) Done() <-chan struct{} {
	return p.done
}

// Snapshot returns the current state.
func (p *Provider) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		ID:      p.id,
		State:   p.state,
		Catalog: p.catalog,
		Err:     p.err,
		ReadyAt: p.readyAt,
	}
}

// Ready adapts the provider to a readiness probe.
func (p *Provider) Ready() (bool, error) {
	s := p.Snapshot()
	return s.State == StateReady, s.Err
}

// Wait blocks until the provider settles and returns its catalog or load error.
func (p *Provider) Wait(ctx context.Context) (*tokens.Catalog, error) {
	select {
	case <-p.done:
		return p.result()
	case <-p.closedCh:
		// A load that settled right before Close still counts.
		select {
		case <-p.done:
			return p.result()
		default:
		}
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Provider) result() (*tokens.Catalog, error) {
	s := p.Snapshot()
	if s.State == StateFailed {
		return nil, s.Err
	}
	return s.Catalog, nil
}

// Scope returns ctx carrying the catalog. It fails with ErrNotReady while loading and
// with the load error once failed.
func (p *Provider) Scope(ctx context.Context) (context.Context, error) {
	s := p.Snapshot()
	switch s.State {
	case StateReady:
		return WithCatalog(ctx, s.Catalog), nil
	case StateFailed:
		return ctx, s.Err
	default:
		return ctx, ErrNotReady
	}
}

func (p *Provider) load(ctx context.Context) {
	start := time.Now()
	if p.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.LoadTimeout)
		defer cancel()
	}

	catalog, err := p.fetchAll(ctx)
	p.settle(catalog, err, time.Since(start))
}

// fetchAll joins both sources. Either failure cancels the other fetch.
func (p *Provider) fetchAll(ctx context.Context) (*tokens.Catalog, error) {
	var (
		listed []tokens.ListedToken
		logos  []tokens.LogoEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listed, err = fetchWithRetry(gctx, p, tokenlist.SourceExchange, p.exchange.FetchListed)
		return err
	})
	g.Go(func() error {
		var err error
		logos, err = fetchWithRetry(gctx, p, tokenlist.SourceLogoRegistry, p.logos.FetchLogos)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return tokens.BuildCatalog(listed, logos), nil
}

// fetchWithRetry calls fetch until it succeeds, fails with a non-retryable error, or
// runs out of attempts. Backoff sleeps are cut short by ctx.
func fetchWithRetry[T any](
	ctx context.Context,
	p *Provider,
	source string,
	fetch func(context.Context) (T, error),
) (T, error) {
	var (
		zero    T
		lastErr error
	)
	backoff := p.cfg.RetryBackoff

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, fmt.Errorf("%s: %w", source, err)
		}

		out, err := fetch(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !tokenlist.IsRetryable(err) || ctx.Err() != nil {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < p.cfg.MaxRetries {
			p.log.Warnw("token source fetch failed, retrying",
				"source", source,
				"attempt", attempt+1,
				"backoff", backoff,
				"error", err,
			)
			p.metrics.IncSourceRetry(source)
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return zero, lastErr
			}
		}
	}

	return zero, fmt.Errorf("%s: giving up after %d attempts: %w", source, p.cfg.MaxRetries+1, lastErr)
}

func (p *Provider) settle(catalog *tokens.Catalog, err error, took time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Debugw("provider closed during load, dropping result", "error", err)
		return
	}
	if err != nil {
		p.state = StateFailed
		p.err = err
	} else {
		p.state = StateReady
		p.catalog = catalog
		p.readyAt = time.Now()
	}
	p.mu.Unlock()
	close(p.done)

	p.metrics.RecordLoad(err, took.Seconds())
	if err != nil {
		p.log.Errorw("token catalog load failed", "error", err, "duration", took)
		return
	}
	p.log.Infow("token catalog ready",
		"tokens", catalog.Len(),
		"placeholders", catalog.CountPlaceholders(),
		"duration", took,
	)
}
