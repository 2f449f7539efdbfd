package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the service metrics. A nil *Collector is valid and records nothing,
// which keeps unit tests free of registry wiring.
type Collector struct {
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	ForecastDuration   prometheus.Histogram
	SnapshotLookups    *prometheus.CounterVec
	DependencyFailures *prometheus.CounterVec

	TicketsTotal     *prometheus.CounterVec
	AdvisoriesIssued *prometheus.CounterVec
}

func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		APIRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),

		ForecastDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pricing_forecast_duration_seconds",
				Help:      "Duration of live pricing forecast generation in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		),

		SnapshotLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pricing_snapshot_lookups_total",
				Help:      "Pricing snapshot lookups by result",
			},
			[]string{"result"}, // "hit", "miss", "error"
		),

		DependencyFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dependency_failures_total",
				Help:      "External dependency failures replaced by a default",
			},
			[]string{"dependency"},
		),

		TicketsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tickets_total",
				Help:      "Ticket creation attempts by source and outcome",
			},
			[]string{"source", "outcome"}, // outcome: "created", "deduped", "failed"
		),

		AdvisoriesIssued: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "advisories_issued_total",
				Help:      "Advisories produced by the weather rule engine by priority",
			},
			[]string{"priority"},
		),
	}
}

func (c *Collector) RecordAPIRequest(endpoint, method, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	c.APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (c *Collector) ObserveForecast(d time.Duration) {
	if c == nil {
		return
	}
	c.ForecastDuration.Observe(d.Seconds())
}

func (c *Collector) RecordSnapshotLookup(result string) {
	if c == nil {
		return
	}
	c.SnapshotLookups.WithLabelValues(result).Inc()
}

func (c *Collector) RecordDependencyFailure(dependency string) {
	if c == nil {
		return
	}
	c.DependencyFailures.WithLabelValues(dependency).Inc()
}

func (c *Collector) RecordTicket(source, outcome string) {
	if c == nil {
		return
	}
	c.TicketsTotal.WithLabelValues(source, outcome).Inc()
}

func (c *Collector) RecordAdvisory(priority string) {
	if c == nil {
		return
	}
	c.AdvisoriesIssued.WithLabelValues(priority).Inc()
}
