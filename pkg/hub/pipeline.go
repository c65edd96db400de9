package hub

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/callisto/pkg/metrics"
)

// SampleStore is the write side of the time-series store as seen by the
// ingestion pipeline.
type SampleStore interface {
	Append(ctx context.Context, sample metrics.Sample) error
}

// Pipeline is the single write entry point of the hub: it validates a
// payload, assigns the server timestamp, persists the sample and then
// broadcasts it to live subscribers.
//
// Persistence is the durability contract: Ingest returns only after the
// store accepted (or rejected) the row. Broadcast is best-effort and a
// delivery failure never causes Ingest to report failure.
type Pipeline struct {
	store    SampleStore
	registry *Registry
	now      func() time.Time
	logger   *slog.Logger
	metrics  *Metrics
}

// NewPipeline creates the ingestion pipeline. The registry may be nil
// when no streaming surface is wired (for example in batch imports).
func NewPipeline(store SampleStore, registry *Registry, m *Metrics) *Pipeline {
	return &Pipeline{
		store:    store,
		registry: registry,
		now:      time.Now,
		logger:   slog.Default().With("component", "hub.pipeline"),
		metrics:  m,
	}
}

// Ingest validates rawPayload, persists exactly one row on success and
// broadcasts it. Returns the persisted sample, a *metrics.ValidationError
// when the payload is malformed, or a *metrics.IngestError when the
// store rejected the write after its schema retry.
func (p *Pipeline) Ingest(ctx context.Context, rawPayload Payload) (metrics.Sample, error) {
	service, uptime, requests, err := ValidatePayload(rawPayload)
	if err != nil {
		p.metrics.SampleRejected()
		return metrics.Sample{}, err
	}

	sample := metrics.Sample{
		Service:   service,
		Uptime:    uptime,
		Requests:  requests,
		Timestamp: p.now().Unix(),
	}

	if err := p.store.Append(ctx, sample); err != nil {
		p.metrics.StorageFailure()
		p.logger.Error("sample persistence failed",
			"service", service,
			"error", err,
		)
		return metrics.Sample{}, metrics.NewIngestError(service, err)
	}

	p.metrics.SampleIngested()

	if p.registry != nil {
		p.registry.Broadcast(sample)
	}

	return sample, nil
}
