package exposition

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"mercator-hq/callisto/pkg/metrics"
)

// DefaultUpThreshold is the default freshness window: a service whose
// latest sample is at most this old counts as "up".
const DefaultUpThreshold = 90 * time.Second

// Source is the aggregated view of the store consumed by renderers.
// All three operations degrade to empty/zero results on storage
// failure, which is what lets Render never fail visibly.
type Source interface {
	RowCount(ctx context.Context) int64
	GlobalLatestTimestamp(ctx context.Context) (int64, bool)
	LatestPerService(ctx context.Context) map[string]metrics.LatestEntry
}

// Renderer produces a scrape response for the current aggregated state.
// Implementations never fail: on any internal error they yield an
// empty-but-well-formed body so scrape loops do not read a transient
// store issue as a hard outage.
type Renderer interface {
	// Render returns the response body and its content type.
	Render(ctx context.Context) (body []byte, contentType string)
}

// snapshot is one point-in-time aggregation used by both renderers.
type snapshot struct {
	points     int64
	lastIngest int64
	services   []string // sorted for stable output
	latest     map[string]metrics.LatestEntry
	up         int
}

// takeSnapshot recomputes the aggregated view from the source. A
// service is "up" when now minus its latest timestamp is within the
// freshness threshold.
func takeSnapshot(ctx context.Context, source Source, now time.Time, threshold time.Duration) snapshot {
	snap := snapshot{
		points: source.RowCount(ctx),
		latest: source.LatestPerService(ctx),
	}
	if ts, ok := source.GlobalLatestTimestamp(ctx); ok {
		snap.lastIngest = ts
	}

	maxAge := int64(threshold / time.Second)
	for service, entry := range snap.latest {
		snap.services = append(snap.services, service)
		if now.Unix()-entry.Timestamp <= maxAge {
			snap.up++
		}
	}
	sort.Strings(snap.services)
	return snap
}

// upThreshold holds the freshness window as atomic seconds so the
// config watcher can adjust it while scrapes are in flight.
type upThreshold struct {
	seconds atomic.Int64
}

func (t *upThreshold) set(d time.Duration) {
	if d <= 0 {
		d = DefaultUpThreshold
	}
	t.seconds.Store(int64(d / time.Second))
}

func (t *upThreshold) get() time.Duration {
	return time.Duration(t.seconds.Load()) * time.Second
}
