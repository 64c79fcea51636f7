package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"go.uber.org/zap"
)

// ErrRefreshInProgress is returned by Refresh while another refresh is running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

const announceTimeout = 10 * time.Second

// Factory builds an unstarted provider.
type Factory func() *Provider

// HostOption configures a Host.
type HostOption func(*Host)

// WithAnnouncer makes the host announce every catalog that becomes current.
func WithAnnouncer(a Announcer) HostOption {
	return func(h *Host) {
		h.announcer = a
	}
}

// Host owns the mounted provider. It remounts on request and swaps in refreshed
// catalogs, keeping the previous one when a refresh fails.
type Host struct {
	ctx       context.Context
	factory   Factory
	log       *zap.SugaredLogger
	metrics   *metrics.Metrics
	announcer Announcer

	mu         sync.RWMutex
	current    *Provider
	refreshing bool
	closed     bool

	wg sync.WaitGroup
}

// NewHost mounts the first provider. ctx bounds every provider the host mounts.
func NewHost(
	ctx context.Context,
	factory Factory,
	log *zap.SugaredLogger,
	m *metrics.Metrics,
	opts ...HostOption,
) *Host {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &Host{
		ctx:     ctx,
		factory: factory,
		log:     log,
		metrics: m,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mu.Lock()
	h.current = h.mountLocked()
	h.mu.Unlock()
	return h
}

// Current returns the mounted provider.
func (h *Host) Current() *Provider {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Ready reports readiness of the mounted provider.
func (h *Host) Ready() (bool, error) {
	return h.Current().Ready()
}

// Remount closes the mounted provider and mounts a fresh one. Late responses of the
// old provider are dropped.
func (h *Host) Remount() *Provider {
	h.mu.Lock()
	if h.closed {
		defer h.mu.Unlock()
		return h.current
	}
	old := h.current
	h.current = h.mountLocked()
	next := h.current
	h.mu.Unlock()

	old.Close()
	h.metrics.IncRemount()
	h.log.Infow("remounted token catalog provider",
		"previousMountId", old.ID(),
		"mountId", next.ID(),
	)
	return next
}

// Refresh loads a replacement catalog in the background and swaps it in once ready.
// On failure the mounted provider keeps serving and the load error is returned.
func (h *Host) Refresh(ctx context.Context) (err error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	if h.refreshing {
		h.mu.Unlock()
		return ErrRefreshInProgress
	}
	h.refreshing = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.refreshing = false
		h.mu.Unlock()
		h.metrics.RecordRefresh(err)
	}()

	next := h.factory()
	next.Start(h.ctx)
	if _, err := next.Wait(ctx); err != nil {
		next.Close()
		h.log.Warnw("token catalog refresh failed, keeping current catalog",
			"mountId", next.ID(),
			"error", err,
		)
		return err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		next.Close()
		return ErrClosed
	}
	old := h.current
	h.current = next
	h.mu.Unlock()

	old.Close()
	h.log.Infow("token catalog refreshed",
		"previousMountId", old.ID(),
		"mountId", next.ID(),
	)
	h.activate(next)
	return nil
}

// RunRefresher refreshes the catalog every interval until ctx is cancelled.
// A zero interval disables refreshing. Refresh failures are logged, never returned.
func (h *Host) RunRefresher(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := h.Refresh(ctx); err != nil && ctx.Err() == nil {
				h.log.Debugw("scheduled refresh did not complete", "error", err)
			}
		}
	}
}

// Close unmounts the current provider and waits for background work.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	current := h.current
	h.mu.Unlock()

	current.Close()
	h.wg.Wait()
}

// mountLocked starts a provider and watches it until it settles or is closed.
// h.mu must be held.
func (h *Host) mountLocked() *Provider {
	p := h.factory()
	h.metrics.SetProviderState(int(StateLoading))
	p.Start(h.ctx)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		select {
		case <-p.Done():
			if h.Current() == p {
				h.activate(p)
			}
		case <-p.closedCh:
		}
	}()
	return p
}

// activate publishes metrics for the current provider and announces a ready catalog.
func (h *Host) activate(p *Provider) {
	s := p.Snapshot()
	h.metrics.SetProviderState(int(s.State))
	if s.State != StateReady {
		return
	}
	h.metrics.UpdateCatalogMetrics(s.Catalog.Len(), s.Catalog.CountPlaceholders())

	if h.announcer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), announceTimeout)
	defer cancel()
	if err := h.announcer.Announce(ctx, s); err != nil {
		h.log.Warnw("failed to announce token catalog", "mountId", s.ID, "error", err)
	}
}
