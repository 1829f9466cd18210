// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "choir"

var (
	// AuthOutcomes counts authentication attempts by operation and result,
	// e.g. op="login", result="invalid_credentials".
	AuthOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_outcomes_total",
		Help:      "Authentication attempts by operation and result",
	}, []string{"op", "result"})

	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Signed tokens issued by type",
	}, []string{"type"})

	// ScopeDenials counts requests rejected by tenant scoping or role gates.
	ScopeDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scope_denials_total",
		Help:      "Requests rejected by tenant isolation or role checks",
	}, []string{"reason"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	OnlineConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "online_connections",
		Help:      "Open presence websocket connections",
	})

	AuditPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_publish_failures_total",
		Help:      "Audit events that could not be handed to the broker",
	})
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
