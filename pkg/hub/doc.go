// Package hub implements the write path of the Callisto telemetry hub:
// payload validation, the ingestion pipeline and the subscriber
// registry that fans newly persisted samples out to live streaming
// connections.
//
// # Write Path
//
//	HTTP shell → Pipeline.Ingest(payload)
//	    → ValidatePayload            reject malformed input
//	    → assign server timestamp    caller timestamps are ignored
//	    → SampleStore.Append         durable record, surfaced on failure
//	    → Registry.Broadcast         best-effort fan-out, never surfaced
//
// The registry is a derived, in-memory view: subscribers that cannot
// keep up are dropped rather than allowed to block the write path, and
// late joiners receive no replay.
package hub
