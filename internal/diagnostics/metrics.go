package diagnostics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cleared-dev/receipts/internal/model"
)

// Metrics exposes parse outcomes as prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	parseTotal      *prometheus.CounterVec
	parseConfidence prometheus.Histogram
	detectionRate   prometheus.Gauge
	patternOutcomes *prometheus.CounterVec
}

// NewMetrics registers the receipt metrics on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	parseTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Name:      "parse_total",
			Help:      "Parsed receipts by outcome (reliable, review, not_found).",
		},
		[]string{"outcome"},
	)
	parseConfidence := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "receipts",
			Name:      "parse_confidence",
			Help:      "Agreement ratio of parsed receipts.",
			Buckets:   []float64{0.25, 0.5, 0.7, 0.9, 1},
		},
	)
	detectionRate := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "receipts",
			Name:      "detection_rate",
			Help:      "Share of parsed receipts where an amount was found.",
		},
	)
	patternOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Name:      "pattern_outcomes_total",
			Help:      "Pattern successes and failures by category.",
		},
		[]string{"category", "result"},
	)

	registry.MustRegister(parseTotal, parseConfidence, detectionRate, patternOutcomes)

	return &Metrics{
		registry:        registry,
		parseTotal:      parseTotal,
		parseConfidence: parseConfidence,
		detectionRate:   detectionRate,
		patternOutcomes: patternOutcomes,
	}
}

// WriteTextfile writes the metrics for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) observeParse(res model.ParseResult, rate float64) {
	m.parseTotal.WithLabelValues(Outcome(res)).Inc()
	m.parseConfidence.Observe(res.Confidence)
	m.detectionRate.Set(rate)
}

func (m *Metrics) observePattern(cat model.Category, succeeded bool) {
	result := "failure"
	if succeeded {
		result = "success"
	}
	m.patternOutcomes.WithLabelValues(string(cat), result).Inc()
}

// Outcome labels a result as reliable, review or not_found.
func Outcome(res model.ParseResult) string {
	switch {
	case !res.Found:
		return "not_found"
	case res.Reliable:
		return "reliable"
	default:
		return "review"
	}
}
