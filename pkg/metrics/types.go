package metrics

// Sample is one health/usage observation for one service at one instant.
// Samples are immutable once persisted: the store is append-only and
// never updates or deletes rows.
type Sample struct {
	// Service is the reporting service's identifier. Always non-empty
	// for a persisted sample.
	Service string `json:"service"`

	// Uptime is the caller-supplied uptime counter. The unit is
	// caller-defined (typically seconds); the hub passes it through.
	Uptime int64 `json:"uptime"`

	// Requests is the caller-supplied request counter snapshot.
	Requests int64 `json:"requests"`

	// Timestamp is seconds since epoch, assigned by the hub at
	// ingestion time. Caller-supplied timestamps are ignored.
	Timestamp int64 `json:"ts"`
}

// SeriesPoint is one entry of a per-service time series.
type SeriesPoint struct {
	Timestamp int64 `json:"ts"`
	Uptime    int64 `json:"uptime"`
	Requests  int64 `json:"requests"`
}

// LatestEntry is the most recent observation for a service, as returned
// by LatestPerService. Ties on timestamp are broken by insertion order.
type LatestEntry struct {
	Uptime    int64 `json:"uptime"`
	Requests  int64 `json:"requests"`
	Timestamp int64 `json:"ts"`
}
