package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/urlsync/pkg/qparam"
)

const defaultTracerName = "urlsync"

// TracingConfig configures the tracing probe.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "urlsync").
	TracerName string

	// Scope is recorded as the urlsync.scope attribute, to tell stores apart.
	Scope string

	// SkipEmpty skips passes that changed nothing and notified no one.
	SkipEmpty bool

	// Provider supplies the tracer (default: the global provider).
	Provider trace.TracerProvider

	tracer trace.Tracer
}

// TracingOption configures a Tracing probe.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithScope sets the scope attribute.
func WithScope(scope string) TracingOption {
	return func(c *TracingConfig) {
		c.Scope = scope
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

// WithSkipEmpty enables skipping empty passes.
func WithSkipEmpty(skip bool) TracingOption {
	return func(c *TracingConfig) {
		c.SkipEmpty = skip
	}
}

// Tracing records every store pass as a span. Passes are reported after they
// complete, so spans carry the pass's own start and end timestamps.
//
// Without WithTracerProvider the global OpenTelemetry provider is used;
// configure it with otel.SetTracerProvider before building stores.
type Tracing struct {
	config TracingConfig
}

// NewTracing creates a tracing probe.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	config.tracer = config.Provider.Tracer(config.TracerName)
	return &Tracing{config: config}
}

// PassCompleted implements qparam.Probe.
func (t *Tracing) PassCompleted(p qparam.Pass) {
	if t.config.SkipEmpty && len(p.Changed) == 0 && p.Notified == 0 && p.Err == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("urlsync.op", string(p.Op)),
		attribute.StringSlice("urlsync.changed_keys", p.Changed),
		attribute.Int("urlsync.error_fields", p.Errors),
	}
	if p.Op == qparam.OpFlush {
		attrs = append(attrs, attribute.Int("urlsync.notified", p.Notified))
	}
	if t.config.Scope != "" {
		attrs = append(attrs, attribute.String("urlsync.scope", t.config.Scope))
	}

	_, span := t.config.tracer.Start(
		context.Background(),
		spanName(p.Op),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(p.Started),
	)

	if p.Err != nil {
		span.RecordError(p.Err)
		span.SetStatus(codes.Error, p.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(p.Started.Add(p.Duration)))
}

func spanName(op qparam.Op) string {
	return "urlsync." + string(op)
}

var _ qparam.Probe = (*Tracing)(nil)
