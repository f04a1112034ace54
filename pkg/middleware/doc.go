// Package middleware provides observability middleware for intent handling.
//
// A session runs every intent it receives through a Middleware chain before
// applying it to the view state. This package includes:
//   - OpenTelemetry tracing of each intent
//   - Prometheus metrics for intents, sessions, patches and snapshot saves
//
// # OpenTelemetry Middleware
//
//	chain := middleware.Chain(
//	    middleware.OpenTelemetry(middleware.WithTracerName("tableview")),
//	    middleware.Prometheus(),
//	)
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in main() before starting the server.
//
// # Prometheus Metrics
//
//   - tableview_intents_total: intents processed by type and status
//   - tableview_intent_duration_seconds: intent handling duration
//   - tableview_intent_errors_total: failed intents by type and error code
//   - tableview_patches_sent_total: patches sent to clients
//   - tableview_active_sessions: sessions currently alive
//   - tableview_snapshot_saves_total: snapshot saves by result
//
// Expose them with promhttp:
//
//	r.Handle("/metrics", promhttp.Handler())
package middleware
