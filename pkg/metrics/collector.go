package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	syncerrors "github.com/vango-dev/urlsync/internal/errors"
	"github.com/vango-dev/urlsync/pkg/convert"
	"github.com/vango-dev/urlsync/pkg/qparam"
)

// Config configures the Prometheus collector.
type Config struct {
	// Namespace is the metrics namespace (default: "urlsync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "urlsync",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records store passes as Prometheus metrics.
type Collector struct {
	passesTotal   *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
	changedKeys   *prometheus.CounterVec
	notifications prometheus.Counter
	errorSet      prometheus.Gauge
	updateErrors  *prometheus.CounterVec
}

// NewCollector registers the collector's metrics.
func NewCollector(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of store passes by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Store pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		changedKeys: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "changed_keys_total",
			Help:        "Total number of changed keys fanned out",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observer_notifications_total",
			Help:        "Total number of observer invocations",
			ConstLabels: config.ConstLabels,
		}),

		errorSet: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "error_fields",
			Help:        "Number of fields in the error set after the last pass",
			ConstLabels: config.ConstLabels,
		}),

		updateErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_errors_total",
			Help:        "Total number of rejected local updates",
			ConstLabels: config.ConstLabels,
		}, []string{"error_type"}),
	}
}

// PassCompleted implements qparam.Probe.
func (c *Collector) PassCompleted(p qparam.Pass) {
	op := string(p.Op)
	c.passesTotal.WithLabelValues(op).Inc()
	c.passDuration.WithLabelValues(op).Observe(p.Duration.Seconds())
	if len(p.Changed) > 0 {
		c.changedKeys.WithLabelValues(op).Add(float64(len(p.Changed)))
	}
	if p.Notified > 0 {
		c.notifications.Add(float64(p.Notified))
	}
	c.errorSet.Set(float64(p.Errors))
	if p.Err != nil {
		c.updateErrors.WithLabelValues(categorizeError(p.Err)).Inc()
	}
}

// categorizeError returns a label for a rejected update.
func categorizeError(err error) string {
	var membership *convert.MembershipError
	if errors.As(err, &membership) {
		return "membership"
	}
	if errors.Is(err, syncerrors.Sentinel(syncerrors.CodeTypeMismatch)) {
		return "type_mismatch"
	}
	var ve *qparam.ValidationError
	if errors.As(err, &ve) {
		switch {
		case strings.HasSuffix(ve.Reason, "required"):
			return "required"
		case strings.Contains(ve.Reason, "schema"):
			return "unknown_key"
		}
		return "validation"
	}
	return "other"
}

var _ qparam.Probe = (*Collector)(nil)
