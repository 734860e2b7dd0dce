package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"seo-keywords/pkg/api"
)

const metricsNamespace = "seo_keywords"

// Metrics records run and per-phrase counters. It implements api.Observer so
// the fetcher can report each phrase as it finishes.
type Metrics struct {
	runs           *prometheus.CounterVec
	phrases        *prometheus.CounterVec
	attempts       prometheus.Counter
	ideasFetched   prometheus.Counter
	ideasKept      prometheus.Counter
	committed      prometheus.Counter
	sinkFailures   *prometheus.CounterVec
	phraseDuration prometheus.Histogram
	lastRun        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which tests use to avoid global state.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Runs by outcome",
		}, []string{"outcome"}),
		phrases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "phrases_total",
			Help:      "Seed phrases fetched by status",
		}, []string{"status"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "api_attempts_total",
			Help:      "Keyword ideas API attempts including retries",
		}),
		ideasFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ideas_fetched_total",
			Help:      "Keyword ideas returned by the API",
		}),
		ideasKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ideas_kept_total",
			Help:      "Keyword ideas that passed the filters",
		}),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "phrases_committed_total",
			Help:      "Seed phrases appended to the processed log",
		}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sink_failures_total",
			Help:      "Output sink failures by sink",
		}, []string{"sink"}),
		phraseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "phrase_duration_seconds",
			Help:      "Time spent per seed phrase including retry waits",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.runs, m.phrases, m.attempts, m.ideasFetched, m.ideasKept,
			m.committed, m.sinkFailures, m.phraseDuration, m.lastRun)
	}
	return m
}

// ObservePhrase records one fetcher outcome
func (m *Metrics) ObservePhrase(outcome api.PhraseOutcome) {
	m.phrases.WithLabelValues(string(outcome.Status)).Inc()
	m.attempts.Add(float64(outcome.Attempts))
	m.ideasFetched.Add(float64(len(outcome.Ideas)))
	m.phraseDuration.Observe(outcome.Duration.Seconds())
}

// RecordRun records the totals of a finished run
func (m *Metrics) RecordRun(report *Report, outcome string) {
	m.runs.WithLabelValues(outcome).Inc()
	m.lastRun.Set(float64(time.Now().Unix()))
	if report == nil {
		return
	}
	m.ideasKept.Add(float64(report.IdeasKept))
	m.committed.Add(float64(report.Committed))
	for _, s := range report.Sinks {
		if s.Err != nil {
			m.sinkFailures.WithLabelValues(s.Name).Inc()
		}
	}
}
