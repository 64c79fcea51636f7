package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "tokencatalog"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"

	Source   = "source"
	Provider = "provider"
	Catalog  = "catalog"
	API      = "api"
	Announce = "announce"
)

// Labels holds constant labels applied to all metrics.
// These are useful for distinguishing metrics from multiple catalog instances.
type Labels struct {
	Environment   string // Deployment environment (e.g., "production", "staging", "development")
	Region        string // Cloud region (e.g., "us-east-1", "eu-west-1")
	CloudProvider string // Cloud provider (e.g., "aws", "oci", "gcp")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Environment != "" {
		labels["environment"] = l.Environment
	}
	if l.Region != "" {
		labels["region"] = l.Region
	}
	if l.CloudProvider != "" {
		labels["cloud_provider"] = l.CloudProvider
	}
	return labels
}

type Metrics struct {
	// Source fetches
	sourceFetches         *prometheus.CounterVec   // by source, status
	sourceFetchDuration   *prometheus.HistogramVec // by source
	sourceFetchesInFlight prometheus.Gauge
	sourceRetries         *prometheus.CounterVec // by source

	// Provider lifecycle
	loads         *prometheus.CounterVec // by status
	loadDuration  prometheus.Histogram
	providerState prometheus.Gauge
	remounts      prometheus.Counter
	refreshes     *prometheus.CounterVec // by status

	// Current catalog
	catalogTokens      prometheus.Gauge
	catalogPlaceholder prometheus.Gauge

	// API
	gatedRequests *prometheus.CounterVec // by state
	httpRequests  *prometheus.CounterVec // by route, code

	// Announcements
	announcements    *prometheus.CounterVec // by status
	announceDuration prometheus.Histogram

	errors *prometheus.CounterVec // by type
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
// For metrics with constant labels, use NewWithLabels instead.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}

	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		sourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Source,
			Name:      "fetches_total",
			Help:      "Total token source fetches by source and status",
		}, []string{"source", "status"}),
		sourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Source,
			Name:      "fetch_duration_seconds",
			Help:      "Token source fetch duration in seconds, including decoding",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		sourceFetchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Source,
			Name:      "fetches_in_flight",
			Help:      "Number of token source fetches currently in progress",
		}),
		sourceRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Source,
			Name:      "retries_total",
			Help:      "Total fetch retries by source",
		}, []string{"source"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Provider,
			Name:      "loads_total",
			Help:      "Total catalog loads by outcome",
		}, []string{"status"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Provider,
			Name:      "load_duration_seconds",
			Help:      "Time from mount until the catalog is ready or failed",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		providerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Provider,
			Name:      "state",
			Help:      "State of the mounted provider (0=loading, 1=ready, 2=failed)",
		}),
		remounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Provider,
			Name:      "remounts_total",
			Help:      "Total number of provider remounts",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Provider,
			Name:      "refreshes_total",
			Help:      "Total background catalog refreshes by outcome",
		}, []string{"status"}),
		catalogTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Catalog,
			Name:      "tokens",
			Help:      "Number of tokens in the current catalog",
		}),
		catalogPlaceholder: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Catalog,
			Name:      "placeholder_logos",
			Help:      "Number of tokens in the current catalog without a registry logo",
		}),
		gatedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: API,
			Name:      "gated_requests_total",
			Help:      "Requests reaching the catalog gate by provider state",
		}, []string{"state"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: API,
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Announce,
			Name:      "published_total",
			Help:      "Catalog announcements by status",
		}, []string{"status"}),
		announceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Announce,
			Name:      "publish_duration_seconds",
			Help:      "Time taken to publish a catalog announcement",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total errors by type",
		}, []string{"type"}),
	}

	err := errors.Join(
		reg.Register(m.sourceFetches),
		reg.Register(m.sourceFetchDuration),
		reg.Register(m.sourceFetchesInFlight),
		reg.Register(m.sourceRetries),
		reg.Register(m.loads),
		reg.Register(m.loadDuration),
		reg.Register(m.providerState),
		reg.Register(m.remounts),
		reg.Register(m.refreshes),
		reg.Register(m.catalogTokens),
		reg.Register(m.catalogPlaceholder),
		reg.Register(m.gatedRequests),
		reg.Register(m.httpRequests),
		reg.Register(m.announcements),
		reg.Register(m.announceDuration),
		reg.Register(m.errors),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Error type constants.
const (
	ErrTypeNetwork         = "network"
	ErrTypeMalformed       = "malformed"
	ErrTypeMissingProvider = "missing_provider"
)

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// IncError increments the error counter for the given error type.
func (m *Metrics) IncError(errType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errType).Inc()
}

// IncSourceInFlight increments the in-flight fetch gauge.
func (m *Metrics) IncSourceInFlight() {
	if m == nil {
		return
	}
	m.sourceFetchesInFlight.Inc()
}

// DecSourceInFlight decrements the in-flight fetch gauge.
func (m *Metrics) DecSourceInFlight() {
	if m == nil {
		return
	}
	m.sourceFetchesInFlight.Dec()
}

// RecordSourceFetch records a source fetch outcome.
func (m *Metrics) RecordSourceFetch(source string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	m.sourceFetches.WithLabelValues(source, statusOf(err)).Inc()
	m.sourceFetchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// IncSourceRetry records a retried fetch.
func (m *Metrics) IncSourceRetry(source string) {
	if m == nil {
		return
	}
	m.sourceRetries.WithLabelValues(source).Inc()
}

// RecordLoad records the outcome of a provider load.
func (m *Metrics) RecordLoad(err error, durationSeconds float64) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(statusOf(err)).Inc()
	m.loadDuration.Observe(durationSeconds)
}

// SetProviderState publishes the numeric state of the mounted provider.
func (m *Metrics) SetProviderState(state int) {
	if m == nil {
		return
	}
	m.providerState.Set(float64(state))
}

// IncRemount records a provider remount.
func (m *Metrics) IncRemount() {
	if m == nil {
		return
	}
	m.remounts.Inc()
}

// RecordRefresh records the outcome of a background refresh.
func (m *Metrics) RecordRefresh(err error) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(statusOf(err)).Inc()
}

// UpdateCatalogMetrics updates the gauges describing the current catalog.
func (m *Metrics) UpdateCatalogMetrics(tokens, placeholders int) {
	if m == nil {
		return
	}
	m.catalogTokens.Set(float64(tokens))
	m.catalogPlaceholder.Set(float64(placeholders))
}

// IncGatedRequest records a request reaching the catalog gate.
func (m *Metrics) IncGatedRequest(state string) {
	if m == nil {
		return
	}
	m.gatedRequests.WithLabelValues(state).Inc()
}

// RecordHTTPRequest records an API response.
func (m *Metrics) RecordHTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// RecordAnnouncement records a catalog announcement attempt.
func (m *Metrics) RecordAnnouncement(err error, durationSeconds float64) {
	if m == nil {
		return
	}
	m.announcements.WithLabelValues(statusOf(err)).Inc()
	m.announceDuration.Observe(durationSeconds)
}
