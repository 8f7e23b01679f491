package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/urlsync/pkg/convert"
	"github.com/vango-dev/urlsync/pkg/qparam"
)

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestCollectorRecordsStorePasses(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(WithRegistry(reg))

	schema := qparam.MustSchema(
		qparam.Field("a", convert.Number),
		qparam.Field("b", convert.Number, qparam.Required()),
	)
	store := qparam.NewStore(schema, "a=1", qparam.WithProbe(c))
	store.Register(nil, func() {})
	store.Register([]string{"a"}, func() {})

	if err := store.Set(qparam.With("a", 2.0), qparam.SetOptions{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = store.Set(qparam.With("b", nil), qparam.SetOptions{})

	if got := testutil.ToFloat64(c.passesTotal.WithLabelValues("construct")); got != 1 {
		t.Errorf("passes_total(construct)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(c.passesTotal.WithLabelValues("local")); got != 2 {
		t.Errorf("passes_total(local)=%v, want 2", got)
	}
	if got := testutil.ToFloat64(c.changedKeys.WithLabelValues("local")); got != 1 {
		t.Errorf("changed_keys_total(local)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(c.notifications); got != 2 {
		t.Errorf("observer_notifications_total=%v, want 2", got)
	}
	if got := testutil.ToFloat64(c.errorSet); got != 1 {
		t.Errorf("error_fields=%v, want 1", got)
	}
	if got := testutil.ToFloat64(c.updateErrors.WithLabelValues("required")); got != 1 {
		t.Errorf("update_errors_total(required)=%v, want 1", got)
	}
	if got := metricHistogramCount(t, c.passDuration.WithLabelValues("flush")); got != 1 {
		t.Errorf("pass_duration_seconds(flush) count=%d, want 1", got)
	}
}

func TestCollectorNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(WithRegistry(reg), WithNamespace("app"), WithSubsystem("search"))
	c.PassCompleted(qparam.Pass{Op: qparam.OpExternal, Duration: time.Millisecond})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "app_search_passes_total" {
			found = true
		}
	}
	if !found {
		t.Error("app_search_passes_total not registered")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&qparam.ValidationError{Key: "a", Reason: "is required"}, "required"},
		{&qparam.ValidationError{Key: "a", Reason: "is not in the schema"}, "unknown_key"},
		{&qparam.ValidationError{Key: "a", Reason: "cannot be serialized", Err: &convert.MembershipError{Value: "z"}}, "membership"},
		{&qparam.ValidationError{Key: "a", Reason: "cannot be serialized"}, "validation"},
		{errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

type countingProbe struct{ n int }

func (p *countingProbe) PassCompleted(qparam.Pass) { p.n++ }

func TestMulti(t *testing.T) {
	a, b := &countingProbe{}, &countingProbe{}
	m := Multi(a, nil, b)
	m.PassCompleted(qparam.Pass{})
	m.PassCompleted(qparam.Pass{})
	if a.n != 2 || b.n != 2 {
		t.Errorf("got %d and %d, want 2 and 2", a.n, b.n)
	}
}
