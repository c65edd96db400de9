// Package exposition converts the hub's aggregated view into a
// scrape-friendly text snapshot: total points, last-ingest timestamp,
// the latest uptime and request counters per service, and a derived
// "services up" gauge counting services whose latest sample is within
// the freshness threshold (default 90s).
//
// Two Renderer implementations exist and are selected at configuration
// time: PrometheusRenderer produces the body through a registered
// prometheus.Collector and the canonical exposition encoder, while
// PlainRenderer hand-rolls the same families for consumers without
// Prometheus tooling. Both absorb internal failures and emit an
// empty-but-well-formed body instead of an error response.
package exposition
