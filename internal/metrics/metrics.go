// Package metrics exposes the Prometheus instrumentation for the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by method, route pattern and
	// status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsmart_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitsmart_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ExpensesCreated counts successfully recorded expenses by split type.
	ExpensesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsmart_expenses_created_total",
		Help: "Total number of expenses recorded.",
	}, []string{"split_type"})

	// SplitsPaid counts splits settled. Repeat settle calls on an
	// already-paid split are not counted.
	SplitsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitsmart_splits_paid_total",
		Help: "Total number of splits marked paid.",
	})

	// RemindersSent counts overdue-split reminders emitted by the worker.
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitsmart_reminders_sent_total",
		Help: "Total number of payment reminders emitted.",
	})
)
