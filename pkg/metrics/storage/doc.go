// Package storage implements the durable time-series store backing the
// Callisto telemetry hub.
//
// The store is a single append-only SQLite table of samples, queryable
// by service and time range. Two drivers are supported and selected by
// configuration: mattn/go-sqlite3 ("sqlite3", cgo) and modernc.org/sqlite
// ("sqlite", pure Go) for builds where cgo is unavailable.
//
// # Lifecycle
//
// Open ensures the schema exists once at startup. Every operation keeps
// a single self-heal branch: on failure it re-runs EnsureSchema and
// retries exactly once. After that, write operations surface a
// *metrics.StorageError while read operations degrade to empty results,
// so the observability surface never crashes the serving layer.
package storage
