// Package metrics provides qparam probes backed by Prometheus and
// OpenTelemetry.
//
//	collector := metrics.NewCollector(metrics.WithRegistry(reg))
//	store := qparam.NewStore(schema, raw, qparam.WithProbe(
//	    metrics.Multi(collector, metrics.NewTracing()),
//	))
package metrics
