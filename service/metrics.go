package service

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters and histograms exported by linecheck. Each
// instance owns its registry so tests and servers never share state.
type Metrics struct {
	registry *prometheus.Registry

	BuildsValidated   *prometheus.CounterVec
	RuleViolations    *prometheus.CounterVec
	ValidationSeconds prometheus.Histogram
	QueriesTotal      *prometheus.CounterVec
	QueryMatches      prometheus.Counter
	PlannedChanges    prometheus.Counter
	PlansTotal        *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
}

// NewMetrics creates and registers the linecheck metrics on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BuildsValidated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linecheck_builds_validated_total",
				Help: "Total number of builds validated by outcome",
			},
			[]string{"outcome"},
		),
		RuleViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linecheck_rule_violations_total",
				Help: "Total number of rule violations by rule and severity",
			},
			[]string{"rule", "severity"},
		),
		ValidationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linecheck_validation_duration_seconds",
				Help:    "Duration of single build validations",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linecheck_queries_total",
				Help: "Total number of where-queries by result",
			},
			[]string{"result"},
		),
		QueryMatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "linecheck_query_matches_total",
				Help: "Total number of steps returned by queries",
			},
		),
		PlannedChanges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "linecheck_bulk_update_changes_total",
				Help: "Total number of field changes in bulk update plans",
			},
		),
		PlansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linecheck_bulk_update_plans_total",
				Help: "Total number of bulk update plans by mode",
			},
			[]string{"mode"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linecheck_http_requests_total",
				Help: "Total number of HTTP API requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
	}

	m.registry.MustRegister(
		m.BuildsValidated,
		m.RuleViolations,
		m.ValidationSeconds,
		m.QueriesTotal,
		m.QueryMatches,
		m.PlannedChanges,
		m.PlansTotal,
		m.HTTPRequests,
	)
	return m
}

// Registry returns the registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeValidation(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BuildsValidated.WithLabelValues(outcome).Inc()
	if outcome != outcomeSchemaFailed {
		m.ValidationSeconds.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) observeViolation(ruleID, severity string) {
	if m == nil {
		return
	}
	m.RuleViolations.WithLabelValues(ruleID, severity).Inc()
}

func (m *Metrics) observeQuery(result string, matches int) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(result).Inc()
	m.QueryMatches.Add(float64(matches))
}

func (m *Metrics) observePlan(mode string, changes int) {
	if m == nil {
		return
	}
	m.PlansTotal.WithLabelValues(mode).Inc()
	m.PlannedChanges.Add(float64(changes))
}

// ObserveRequest counts one served HTTP request
func (m *Metrics) ObserveRequest(route, method string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

const (
	outcomeValid        = "valid"
	outcomeInvalid      = "invalid"
	outcomeSchemaFailed = "schema_failed"
)
