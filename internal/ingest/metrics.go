package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "escalationinsights"

var (
	rowsParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_parsed_total",
			Help:      "Total export rows normalized into records",
		},
	)

	rowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_skipped_total",
			Help:      "Total export rows skipped by failing column",
		},
		[]string{"column"},
	)

	batchesNormalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total period batches normalized",
		},
	)
)

func recordRowsParsed(count int) {
	rowsParsed.Add(float64(count))
}

func recordRowSkipped(column string) {
	rowsSkipped.WithLabelValues(column).Inc()
}

func recordBatchNormalized() {
	batchesNormalized.Inc()
}
