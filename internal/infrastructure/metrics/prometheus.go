// Package metrics exports pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

const namespace = "contentgen"

// Metrics implements ports.Observer on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	itemsTotal   *prometheus.CounterVec
	aiDuration   *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	enqueued     prometheus.Counter
	reaped       prometheus.Counter
	queueDepth   *prometheus.GaugeVec
	lastRunEpoch prometheus.Gauge
}

var _ ports.Observer = (*Metrics)(nil)

// New registers every collector plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		itemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_items_finished_total",
			Help:      "Queue items that reached a terminal status",
		}, []string{"content_type", "outcome"}),
		aiDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Duration of AI completion calls",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"content_type"}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by result",
		}, []string{"result"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Wall time of pipeline runs that were not skipped",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		enqueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "populate_enqueued_total",
			Help:      "Queue items created by populate",
		}),
		reaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_items_reaped_total",
			Help:      "Items failed after being abandoned in processing",
		}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_items",
			Help:      "Queue items per status",
		}, []string{"status"}),
		lastRunEpoch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the last completed run",
		}),
	}
}

// ItemFinished counts one terminal outcome. Skipped items never called
// the AI and do not feed the duration histogram.
func (m *Metrics) ItemFinished(ct domain.ContentType, outcome domain.Status, aiDuration time.Duration) {
	m.itemsTotal.WithLabelValues(string(ct), string(outcome)).Inc()
	if outcome != domain.StatusSkipped && aiDuration > 0 {
		m.aiDuration.WithLabelValues(string(ct)).Observe(aiDuration.Seconds())
	}
}

func (m *Metrics) RunFinished(summary domain.RunSummary) {
	if summary.Skipped {
		m.runsTotal.WithLabelValues("skipped").Inc()
		return
	}

	result := "ok"
	if summary.PopulateError != "" || summary.Batch.Failed > 0 {
		result = "partial"
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(summary.Duration.Seconds())
	m.reaped.Add(float64(summary.Reaped))
	if summary.Populate != nil {
		m.enqueued.Add(float64(summary.Populate.Enqueued))
	}
	if !summary.StartedAt.IsZero() {
		m.lastRunEpoch.Set(float64(summary.StartedAt.Unix()))
	}
}

// QueueDepth sets the gauge for every status, zeroing absent ones.
func (m *Metrics) QueueDepth(counts map[domain.Status]int) {
	for _, status := range domain.AllStatuses {
		m.queueDepth.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
