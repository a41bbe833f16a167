package insights

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "escalationinsights"

var (
	rulesEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "insights",
			Name:      "rules_evaluated_total",
			Help:      "Total rule evaluations by rule ID",
		},
		[]string{"rule"},
	)

	insightsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "insights",
			Name:      "items_emitted_total",
			Help:      "Total insight items emitted by kind",
		},
		[]string{"kind"},
	)
)

func recordRuleEvaluated(rule string) {
	rulesEvaluated.WithLabelValues(rule).Inc()
}

func recordInsightEmitted(kind string) {
	insightsEmitted.WithLabelValues(kind).Inc()
}
