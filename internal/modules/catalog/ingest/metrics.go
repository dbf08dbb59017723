package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeInserted  = "inserted"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
)

type Metrics struct {
	products      *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

// NewMetrics registers the ingestion collectors on reg. A nil reg builds
// collectors that are never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		products: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_ingest_products_total",
				Help: "Products processed by batch ingestion, by sink and outcome.",
			},
			[]string{"sink", "outcome"},
		),
		batches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_ingest_batches_total",
				Help: "Batch ingestion runs, by sink.",
			},
			[]string{"sink"},
		),
		batchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_ingest_batch_duration_seconds",
				Help:    "Duration of batch ingestion runs.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sink"},
		),
	}
}

func (m *Metrics) recordProduct(sink string, outcome string) {
	if m == nil {
		return
	}
	m.products.WithLabelValues(sink, outcome).Inc()
}

func (m *Metrics) recordBatch(sink string, duration time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(sink).Inc()
	m.batchDuration.WithLabelValues(sink).Observe(duration.Seconds())
}
