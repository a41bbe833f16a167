package aggregate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "escalationinsights"

var aggregationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "aggregate",
		Name:      "duration_seconds",
		Help:      "Time spent computing the metrics bundle",
		Buckets:   prometheus.DefBuckets,
	},
)

func recordAggregation(d time.Duration) {
	aggregationDuration.Observe(d.Seconds())
}
