// Package metric provides the pipeline's Prometheus instrumentation: a
// registry owning counters for requests, retries, admission rejects, fault
// collection, and realtime channel activity, plus an HTTP handler for
// scraping. Metrics are optional everywhere; components treat a nil
// *Metrics as "no instrumentation".
package metric
