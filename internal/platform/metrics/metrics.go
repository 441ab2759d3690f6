package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for a service process.
type Metrics struct {
	HTTPDuration    *prometheus.HistogramVec
	RPCCalls        *prometheus.CounterVec
	RequestsCreated prometheus.Counter
	ReportsCreated  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics. namespace is the service
// name (gateway, mup, zavod) so the three processes do not collide.
func New(namespace string) *Metrics {
	return &Metrics{
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
		RPCCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "Outbound RPC calls by service, command and outcome",
		}, []string{"service", "command", "outcome"}),
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citizen_requests_created_total",
			Help:      "Total number of citizen requests created",
		}),
		ReportsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_created_total",
			Help:      "Statistical reports created by report type",
		}, []string{"type"}),
	}
}

// NewForTest creates metrics on a private registry so parallel tests do not
// trip the default registry's duplicate registration check.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		RPCCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rpc_calls_total",
		}, []string{"service", "command", "outcome"}),
		RequestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "citizen_requests_created_total",
		}),
		ReportsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_created_total",
		}, []string{"type"}),
	}
}
