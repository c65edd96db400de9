// Package query exposes the read-only view of the time-series store:
// known services, per-service time series and the latest snapshot per
// service. It is a thin composition over the store and inherits its
// degrade-to-empty failure policy, so callers never see a storage error
// on a read path.
package query

import (
	"context"

	"mercator-hq/callisto/pkg/metrics"
)

// Reader is the read side of the time-series store.
type Reader interface {
	DistinctServices(ctx context.Context) []string
	SeriesSince(ctx context.Context, service string, sinceTs int64) []metrics.SeriesPoint
	LatestPerService(ctx context.Context) map[string]metrics.LatestEntry
}

// Service answers point-in-time queries against the store.
type Service struct {
	store Reader
}

// NewService creates a query service over the given store.
func NewService(store Reader) *Service {
	return &Service{store: store}
}

// ListServices returns the distinct service names known to the store.
func (s *Service) ListServices(ctx context.Context) []string {
	services := s.store.DistinctServices(ctx)
	if services == nil {
		services = []string{}
	}
	return services
}

// SeriesSince returns one service's observations from sinceTs onwards,
// ascending by timestamp. Unknown services yield an empty series.
func (s *Service) SeriesSince(ctx context.Context, service string, sinceTs int64) []metrics.SeriesPoint {
	points := s.store.SeriesSince(ctx, service, sinceTs)
	if points == nil {
		points = []metrics.SeriesPoint{}
	}
	return points
}

// LatestAll returns the most recent observation for every known
// service.
func (s *Service) LatestAll(ctx context.Context) map[string]metrics.LatestEntry {
	latest := s.store.LatestPerService(ctx)
	if latest == nil {
		latest = map[string]metrics.LatestEntry{}
	}
	return latest
}
