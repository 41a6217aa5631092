// Package metrics defines and registers the Prometheus metrics of the lending
// core. Metrics register on the default registry at package init through
// promauto and are exposed by the server on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lending"

// UseCaseTotal counts use case executions.
// Labels:
//   - usecase: create_loan, quote_loan, decide_loan, register_payment
//   - outcome: "ok" or an error kind (validation, business_rule, forbidden, not_found, conflict, internal)
var UseCaseTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "usecase_total",
		Help:      "Total number of use case executions, by outcome.",
	},
	[]string{"usecase", "outcome"},
)

// LoansDecidedTotal counts successful loan decisions ("approved" / "rejected").
var LoansDecidedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loans_decided_total",
		Help:      "Total number of loans approved or rejected.",
	},
	[]string{"decision"},
)

// PaymentsRegisteredTotal counts settled installments by currency.
var PaymentsRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_registered_total",
		Help:      "Total number of installment payments registered.",
	},
	[]string{"currency"},
)

// ReferenceGuardTotal counts fast-path duplicate reference checks.
// Label:
//   - result: "hit", "miss" or "error"
var ReferenceGuardTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reference_guard_total",
		Help:      "Total number of payment reference guard lookups, by result.",
	},
	[]string{"result"},
)

// SchedulerRunsTotal counts scheduler job runs.
var SchedulerRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_runs_total",
		Help:      "Total number of scheduler job runs, by job and outcome.",
	},
	[]string{"job", "outcome"},
)

var InstallmentsMarkedLateTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "installments_marked_late_total",
		Help:      "Total number of installments flagged late by the overdue job.",
	},
)

var InstallmentsGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "installments_generated_total",
		Help:      "Total number of installments created for approved loans.",
	},
)

// HTTPRequestDuration measures request latency per route and status code.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
