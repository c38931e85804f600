package ledger

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	operationApply      = "apply"
	operationReverse    = "reverse"
	operationCompensate = "compensate"
	operationOpen       = "open_account"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duration of ledger mutations including lock wait",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	eventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_event_publish_errors_total",
			Help: "Total number of ledger events that could not be published",
		},
		[]string{"topic"},
	)
)

func observe(operation string, start time.Time, outcome string) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidTransactionType), errors.Is(err, ErrMissingUser):
		return "invalid"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrBalanceLimitExceeded):
		return "balance_limit"
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrTransactionNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyReversed), errors.Is(err, ErrAccountExists):
		return "conflict"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "error"
	}
}
