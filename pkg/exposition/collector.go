package exposition

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// PrometheusRenderer renders the aggregated view through a
// prometheus.Collector registered in a private registry, so the scrape
// body is produced by the canonical exposition encoder.
type PrometheusRenderer struct {
	registry  *prometheus.Registry
	collector *viewCollector
	logger    *slog.Logger
}

// NewPrometheusRenderer creates the prometheus-backed renderer. extra
// registerers (for example the hub's operational metrics) may be nil.
func NewPrometheusRenderer(source Source, namespace string, threshold time.Duration, extra ...prometheus.Collector) *PrometheusRenderer {
	if namespace == "" {
		namespace = "dashboard"
	}

	collector := newViewCollector(source, namespace)
	collector.threshold.set(threshold)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)
	for _, c := range extra {
		if c != nil {
			registry.MustRegister(c)
		}
	}

	return &PrometheusRenderer{
		registry:  registry,
		collector: collector,
		logger:    slog.Default().With("component", "exposition.prometheus"),
	}
}

// Registry exposes the renderer's registry so the hub's own operational
// metrics can be registered alongside the aggregated view.
func (r *PrometheusRenderer) Registry() *prometheus.Registry {
	return r.registry
}

// SetUpThreshold adjusts the freshness window at runtime.
func (r *PrometheusRenderer) SetUpThreshold(d time.Duration) {
	r.collector.threshold.set(d)
}

// Render implements Renderer. Gather failures yield an empty body so a
// scrape never observes an error response. The collector reads the
// store with its own base context: prometheus.Collector has no
// per-scrape context to thread through.
func (r *PrometheusRenderer) Render(_ context.Context) ([]byte, string) {
	contentType := string(expfmt.NewFormat(expfmt.TypeTextPlain))

	families, err := r.registry.Gather()
	if err != nil {
		r.logger.Error("metric gather failed, rendering empty body", "error", err)
		return nil, contentType
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			r.logger.Error("metric encode failed, rendering empty body", "error", err)
			return nil, contentType
		}
	}
	return buf.Bytes(), contentType
}

// viewCollector turns the aggregated view into const metrics on every
// scrape. Nothing is cached: the store is the source of truth and is
// recomputed on demand.
type viewCollector struct {
	source    Source
	threshold upThreshold
	now       func() time.Time
	baseCtx   context.Context

	pointsDesc     *prometheus.Desc
	lastIngestDesc *prometheus.Desc
	uptimeDesc     *prometheus.Desc
	requestsDesc   *prometheus.Desc
	upDesc         *prometheus.Desc
}

func newViewCollector(source Source, namespace string) *viewCollector {
	return &viewCollector{
		source:  source,
		now:     time.Now,
		baseCtx: context.Background(),
		pointsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "points_total"),
			"Total persisted sample rows.", nil, nil),
		lastIngestDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "last_ingest_ts"),
			"Timestamp of the most recent ingested sample.", nil, nil),
		uptimeDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "service_uptime"),
			"Latest reported uptime per service.", []string{"service"}, nil),
		requestsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "service_requests"),
			"Latest reported request counter per service.", []string{"service"}, nil),
		upDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "services_up"),
			"Services whose latest sample is within the freshness threshold.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *viewCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pointsDesc
	ch <- c.lastIngestDesc
	ch <- c.uptimeDesc
	ch <- c.requestsDesc
	ch <- c.upDesc
}

// Collect implements prometheus.Collector.
func (c *viewCollector) Collect(ch chan<- prometheus.Metric) {
	snap := takeSnapshot(c.baseCtx, c.source, c.now(), c.threshold.get())

	ch <- prometheus.MustNewConstMetric(c.pointsDesc, prometheus.CounterValue, float64(snap.points))
	ch <- prometheus.MustNewConstMetric(c.lastIngestDesc, prometheus.GaugeValue, float64(snap.lastIngest))
	for _, service := range snap.services {
		entry := snap.latest[service]
		ch <- prometheus.MustNewConstMetric(c.uptimeDesc, prometheus.GaugeValue, float64(entry.Uptime), service)
		ch <- prometheus.MustNewConstMetric(c.requestsDesc, prometheus.GaugeValue, float64(entry.Requests), service)
	}
	ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, float64(snap.up))
}
