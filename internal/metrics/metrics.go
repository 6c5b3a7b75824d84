package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement lifecycle counters. Resolution counters are incremented by both
// the callback path and the poller.
var (
	SettlementsInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pesavault_settlements_initiated_total",
		Help: "Number of external settlements initiated.",
	})

	SettlementsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pesavault_settlements_completed_total",
		Help: "Number of external settlements resolved as completed.",
	})

	SettlementsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pesavault_settlements_failed_total",
		Help: "Number of external settlements resolved as failed.",
	})

	SettlementPollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pesavault_settlement_poll_cycles_total",
		Help: "Number of reconciliation poll cycles run.",
	})

	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pesavault_gateway_request_duration_seconds",
		Help:    "Latency of outbound gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// HTTP surface metrics, recorded by the metrics middleware.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pesavault_http_requests_total",
		Help: "Number of HTTP requests handled, by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pesavault_http_request_duration_seconds",
		Help:    "Latency of HTTP requests, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
