// Callisto is a metrics telemetry hub: it collects periodic
// health/usage samples from independent services, persists them in an
// append-only SQLite time series, and exposes the state three ways —
// point-in-time query APIs, a live server-sent-event stream, and a
// Prometheus-style scrape endpoint.
//
// Usage:
//
//	# Start the hub with default configuration
//	callisto run
//
//	# Start with a custom configuration file
//	callisto run --config /etc/callisto/config.yaml
//
//	# Override the listen address
//	callisto run --listen 0.0.0.0:9090
//
//	# Show version information
//	callisto version
package main

func main() {
	Execute()
}
