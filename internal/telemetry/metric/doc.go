// Package metric provides Prometheus metrics for roguesave.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry of save/load metrics, usable as a persist.Observer
//   - collector.go: Collector reporting the files held by a storage.Store
//
// Metrics include:
//
//   - Save and load latency histograms
//   - Result counters labelled by error code
//   - Tamper flag and recovery counters
//   - Incremental reuse counters
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
