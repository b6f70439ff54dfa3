// Package metrics provides Prometheus metrics for matching runs.
//
// Key metrics:
//   - LOB snapshots loaded
//   - Fills attempted and matched per RIC, by match type
//   - Stage latencies (load, prepare, enrich, match, write)
//   - RIC outcomes by status
//
// Metrics live on a private registry. They can be written to a node-exporter
// textfile when a run ends, or served over HTTP while it runs.
package metrics
