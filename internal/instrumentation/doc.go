// Package instrumentation wires OpenTelemetry metrics with a Prometheus
// exporter. The Provider owns the meter provider and its registry; Metrics
// is the recording surface handed to the tool layer. A disabled provider
// hands out a no-op Metrics so call sites never branch on configuration.
package instrumentation
