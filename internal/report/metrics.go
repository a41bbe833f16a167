package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "escalationinsights"

var runsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "report",
		Name:      "runs_total",
		Help:      "Total pipeline runs by outcome",
	},
	[]string{"status"},
)

func recordRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}
