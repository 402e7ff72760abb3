// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FieldValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "field_validations_total",
			Help: "Total number of field evaluations by outcome",
		},
		[]string{"outcome"},
	)

	RuleEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_evaluations_total",
			Help: "Total number of rule evaluations by validation type and outcome",
		},
		[]string{"validation_type", "outcome"},
	)

	ConfigHealthIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_health_issues_total",
			Help: "Total number of configuration health issues reported",
		},
		[]string{"severity", "code"},
	)

	FieldValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "field_validation_duration_seconds",
			Help:    "Duration of a single field evaluation in seconds",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		},
		[]string{"outcome"},
	)

	ViewsCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rule_views_cached",
			Help: "Number of form rule views currently cached",
		},
	)
)

// Outcome labels.
const (
	OutcomeValid         = "valid"
	OutcomeInvalid       = "invalid"
	OutcomeAdvisory      = "advisory"
	OutcomePassed        = "passed"
	OutcomeFailed        = "failed"
	OutcomeSkipped       = "skipped"
	OutcomeMisconfigured = "misconfigured"
)
