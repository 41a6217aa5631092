package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/segyhp/lending-core/internal/metrics"
	"github.com/segyhp/lending-core/pkg/response"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every route of the HTTP API.
func NewRouter(loans *LoanHandler, payments *PaymentHandler, reports *ReportHandler, health *HealthHandler, log *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log), MetricsMiddleware)

	// Health check
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loans/quote", loans.QuoteLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans", loans.ListLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans", loans.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/decision", loans.DecideLoan).Methods(http.MethodPost)
	api.HandleFunc("/installments/{installmentId}/payments", payments.RegisterPayment).Methods(http.MethodPost)
	api.HandleFunc("/analytics/dashboard", reports.Dashboard).Methods(http.MethodGet)

	return router
}

// MetricsMiddleware observes request latency labelled by route template, so
// path parameters do not multiply series.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := response.NewRecorder(w)

		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(recorder.StatusCode)).
			Observe(time.Since(start).Seconds())
	})
}
