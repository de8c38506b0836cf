package metrics

import (
	"time"

	"banking-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const OutcomeSuccess = "success"

var (
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banking_transactions_total",
			Help: "Engine operations by outcome (success or error kind)",
		},
		[]string{"operation", "outcome"},
	)

	TransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "banking_transaction_duration_seconds",
			Help:    "Duration of engine operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	AccountsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banking_accounts_created_total",
			Help: "Account creation attempts by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)

	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_exceeded_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// Outcome labels err by its domain kind.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return domain.KindOf(err).String()
}

func ObserveTransaction(operation string, started time.Time, err error) {
	TransactionsTotal.WithLabelValues(operation, Outcome(err)).Inc()
	TransactionDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
