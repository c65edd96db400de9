// Package metrics defines the domain model of the Callisto telemetry
// hub: the Sample type persisted by the time-series store, the derived
// query shapes (SeriesPoint, LatestEntry), and the error taxonomy
// shared by the ingestion and storage layers.
//
// # Error Taxonomy
//
//   - ValidationError: bad/missing input, surfaced to the ingestion
//     caller, never persisted.
//   - StorageError: schema missing or storage unreachable, retried once
//     transparently by the store; writes surface it, reads degrade to
//     empty results.
//   - IngestError: write-path wrapper surfaced by the pipeline when
//     persistence fails after the retry.
//
// Failures that threaten durability are surfaced; failures that only
// threaten liveness of a secondary channel (stream delivery, scrape
// rendering) are absorbed by their owning components.
package metrics
