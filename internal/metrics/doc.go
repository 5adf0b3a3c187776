// Package metrics collects per-build Prometheus metrics and writes them in
// the node-exporter textfile format once the build completes.
//
// Each Recorder owns a private registry so repeated builds in one process,
// and parallel tests, never share counters.
package metrics
