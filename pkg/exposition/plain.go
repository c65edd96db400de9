package exposition

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

// PlainRenderer is the fallback implementation emitting the same metric
// families as the prometheus renderer in hand-rolled exposition text.
// It exists for deployments where the scrape consumer only understands
// the plain line-oriented format.
type PlainRenderer struct {
	source    Source
	namespace string
	threshold upThreshold
	now       func() time.Time
}

// NewPlainRenderer creates the plain-text renderer.
func NewPlainRenderer(source Source, namespace string, threshold time.Duration) *PlainRenderer {
	if namespace == "" {
		namespace = "dashboard"
	}
	r := &PlainRenderer{
		source:    source,
		namespace: namespace,
		now:       time.Now,
	}
	r.threshold.set(threshold)
	return r
}

// SetUpThreshold adjusts the freshness window at runtime.
func (r *PlainRenderer) SetUpThreshold(d time.Duration) {
	r.threshold.set(d)
}

// Render implements Renderer.
func (r *PlainRenderer) Render(ctx context.Context) ([]byte, string) {
	snap := takeSnapshot(ctx, r.source, r.now(), r.threshold.get())

	var buf bytes.Buffer
	writeFamily(&buf, r.name("points_total"), "counter",
		"Total persisted sample rows.")
	fmt.Fprintf(&buf, "%s %d\n", r.name("points_total"), snap.points)

	writeFamily(&buf, r.name("last_ingest_ts"), "gauge",
		"Timestamp of the most recent ingested sample.")
	fmt.Fprintf(&buf, "%s %d\n", r.name("last_ingest_ts"), snap.lastIngest)

	writeFamily(&buf, r.name("service_uptime"), "gauge",
		"Latest reported uptime per service.")
	for _, service := range snap.services {
		fmt.Fprintf(&buf, "%s{service=%q} %d\n", r.name("service_uptime"), service, snap.latest[service].Uptime)
	}

	writeFamily(&buf, r.name("service_requests"), "gauge",
		"Latest reported request counter per service.")
	for _, service := range snap.services {
		fmt.Fprintf(&buf, "%s{service=%q} %d\n", r.name("service_requests"), service, snap.latest[service].Requests)
	}

	writeFamily(&buf, r.name("services_up"), "gauge",
		"Services whose latest sample is within the freshness threshold.")
	fmt.Fprintf(&buf, "%s %d\n", r.name("services_up"), snap.up)

	return buf.Bytes(), "text/plain; version=0.0.4; charset=utf-8"
}

func (r *PlainRenderer) name(suffix string) string {
	return r.namespace + "_" + suffix
}

func writeFamily(buf *bytes.Buffer, name, kind, help string) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s %s\n", name, kind)
}
