// Package observability adapts the dependency-free Logger, ContextualLogger, MetricsCollector and
// TracingCollector interfaces of the eventstore package to slog, OpenTelemetry and Prometheus.
//
// The kitties runtime, its command and query handlers, and the Postgres engines only know the
// interfaces. Wiring a concrete backend is left to the binary.
package observability
