/*
Package observability provides lifecycle hooks for monitoring the fluxo engine.

Metrics records Prometheus counters for block visits, resolved edges,
handoffs, routing misses and collaborator failures. Audit writes one
structured log line per event. Combine fans a single engine event out to
several hook sets:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.Audit(logger))
*/
package observability
