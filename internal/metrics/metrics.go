package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "apikey_dashboard"

const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
	ResultMissing = "missing"
	ResultError   = "error"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	KeyValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "key_validations_total",
		Help:      "API key validation attempts by mode and result.",
	}, []string{"mode", "result"})

	KeyOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "key_operations_total",
		Help:      "Key management operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	UsageTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "usage_tasks_total",
		Help:      "Processed last-used update tasks by outcome.",
	}, []string{"outcome"})
)

func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
