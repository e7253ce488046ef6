// Package metrics exposes Prometheus collectors for hosted collections and
// the RPC server. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "metaverse"

// Metrics holds every collector, registered on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	issued       *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	supply       *prometheus.GaugeVec
	vaultBalance *prometheus.GaugeVec
	withdrawn    *prometheus.CounterVec
	managerSet   *prometheus.CounterVec
	rpcRequests  *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Token ids issued, by collection and path (mint or batch).",
		}, []string{"collection", "path"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_rejected_total",
			Help:      "Engine operations rejected, by collection and error kind.",
		}, []string{"collection", "reason"}),
		supply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_supply",
			Help:      "Issued token ids per collection.",
		}, []string{"collection"}),
		vaultBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vault_balance",
			Help:      "Funds held by the collection vault, in base units.",
		}, []string{"collection"}),
		withdrawn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_withdrawals_total",
			Help:      "Successful vault withdrawals per collection.",
		}, []string{"collection"}),
		managerSet: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fund_manager_changes_total",
			Help:      "FundManagerChanged events per collection.",
		}, []string{"collection"}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests by method and outcome.",
		}, []string{"method", "status"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_request_duration_seconds",
			Help:      "JSON-RPC handling time by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.issued, m.rejected, m.supply, m.vaultBalance,
		m.withdrawn, m.managerSet, m.rpcRequests, m.rpcDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Issued records n new ids for collection.
func (m *Metrics) Issued(collection, path string, n int, supply uint64) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(collection, path).Add(float64(n))
	m.supply.WithLabelValues(collection).Set(float64(supply))
}

// Rejected records a failed operation.
func (m *Metrics) Rejected(collection, reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(collection, reason).Inc()
}

// VaultBalance sets the current vault balance gauge.
func (m *Metrics) VaultBalance(collection string, balance float64) {
	if m == nil {
		return
	}
	m.vaultBalance.WithLabelValues(collection).Set(balance)
}

// Withdrawn records a successful withdrawal.
func (m *Metrics) Withdrawn(collection string) {
	if m == nil {
		return
	}
	m.withdrawn.WithLabelValues(collection).Inc()
	m.vaultBalance.WithLabelValues(collection).Set(0)
}

// FundManagerChanged records a manager change.
func (m *Metrics) FundManagerChanged(collection string) {
	if m == nil {
		return
	}
	m.managerSet.WithLabelValues(collection).Inc()
}

// RPC records one handled request.
func (m *Metrics) RPC(method, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, status).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(took.Seconds())
}
