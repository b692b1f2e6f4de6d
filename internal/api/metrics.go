package api

import (
	"github.com/dgallion1/bookkit/internal/proofread"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry *prometheus.Registry
	runs     prometheus.Counter
	failures prometheus.Counter
	findings *prometheus.CounterVec
	duration prometheus.Histogram
	chapters prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookkit",
			Name:      "proofread_runs_total",
			Help:      "Completed proofreading runs.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookkit",
			Name:      "proofread_failures_total",
			Help:      "Proofreading runs aborted by a configuration error.",
		}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookkit",
			Name:      "findings_total",
			Help:      "Findings reported, by severity and category.",
		}, []string{"severity", "category"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bookkit",
			Name:      "proofread_duration_seconds",
			Help:      "Wall time of one proofreading run.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		chapters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bookkit",
			Name:      "chapters",
			Help:      "Chapters checked by the latest run.",
		}),
	}
	m.registry.MustRegister(m.runs, m.failures, m.findings, m.duration, m.chapters)
	return m
}

func (m *metrics) observe(res *proofread.Result) {
	m.runs.Inc()
	m.duration.Observe(res.Duration.Seconds())
	m.chapters.Set(float64(len(res.Chapters)))
	for _, f := range res.Findings.Findings() {
		m.findings.WithLabelValues(string(f.Severity), string(f.Category)).Inc()
	}
}
