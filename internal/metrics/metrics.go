// Package metrics exposes prometheus collectors for the gate.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	rpcFailures   *prometheus.CounterVec
	verifications *prometheus.CounterVec
	rateLimits    *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "nftgate"
	}
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rpcFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_endpoint_failures_total",
			Help:      "balanceOf calls that failed on an RPC endpoint.",
		}, []string{"endpoint"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ownership_verifications_total",
			Help:      "Ownership verifications by outcome.",
		}, []string{"has_nft"}),
		rateLimits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_decisions_total",
			Help:      "Rate-limit decisions by quota class and outcome.",
		}, []string{"class", "allowed"}),
	}
	registry.MustRegister(m.requests, m.durations, m.rpcFailures, m.verifications, m.rateLimits)
	return m
}

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) RPCFailure(endpoint string) {
	if m == nil {
		return
	}
	m.rpcFailures.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) Verification(hasNFT bool) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(strconv.FormatBool(hasNFT)).Inc()
}

func (m *Metrics) RateLimit(class string, allowed bool) {
	if m == nil {
		return
	}
	m.rateLimits.WithLabelValues(class, strconv.FormatBool(allowed)).Inc()
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
