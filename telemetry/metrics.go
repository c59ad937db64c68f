// Package telemetry holds the Prometheus collectors of the API.
//
// Collectors are registered on a caller supplied registry so tests can use a
// fresh one. A nil *Metrics is valid and records nothing.
//
// HTTP metrics are labelled by chi route pattern (for example
// /api/v1/workspaces/{workspaceID}/members), never by raw URL, to keep label
// cardinality bounded.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "cogzy"

// Metrics groups every collector the API records to
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	workspacesCreatedTotal     prometheus.Counter
	workspaceMembersAddedTotal prometheus.Counter
	invitationsSentTotal       prometheus.Counter
	authAttemptsTotal          *prometheus.CounterVec
	rateLimitedTotal           *prometheus.CounterVec
	cacheLookupsTotal          *prometheus.CounterVec

	dbConnectionsOpen    *prometheus.GaugeVec
	dbConnectionsInUse   *prometheus.GaugeVec
	dbConnectionsIdle    *prometheus.GaugeVec
	dbConnectionsWaiting *prometheus.GaugeVec
}

// NewRegistry creates a registry with the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed, by method, route pattern and status code.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies, by method and route pattern.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		workspacesCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspaces_created_total",
			Help:      "Total number of workspaces created.",
		}),
		workspaceMembersAddedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspace_members_added_total",
			Help:      "Total number of members added to workspaces.",
		}),
		invitationsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_sent_total",
			Help:      "Total number of organization invitations created.",
		}),
		authAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Total number of sign-up and sign-in attempts, by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		rateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Total number of requests rejected by the rate limiter, by route pattern.",
			},
			[]string{"route"},
		),
		cacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workspace_cache_lookups_total",
				Help:      "Total number of workspace listing cache lookups, by result.",
			},
			[]string{"result"},
		),
		dbConnectionsOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of established connections, by pool.",
		}, []string{"pool"}),
		dbConnectionsInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Number of connections currently in use, by pool.",
		}, []string{"pool"}),
		dbConnectionsIdle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle connections, by pool.",
		}, []string{"pool"}),
		dbConnectionsWaiting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_wait_count",
			Help:      "Total number of connections waited for, by pool.",
		}, []string{"pool"}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.workspacesCreatedTotal,
		m.workspaceMembersAddedTotal,
		m.invitationsSentTotal,
		m.authAttemptsTotal,
		m.rateLimitedTotal,
		m.cacheLookupsTotal,
		m.dbConnectionsOpen,
		m.dbConnectionsInUse,
		m.dbConnectionsIdle,
		m.dbConnectionsWaiting,
	)
	return m
}

// ObserveHTTPRequest records one served request
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// WorkspaceCreated increments cogzy_workspaces_created_total
func (m *Metrics) WorkspaceCreated() {
	if m == nil {
		return
	}
	m.workspacesCreatedTotal.Inc()
}

func (m *Metrics) WorkspaceMemberAdded() {
	if m == nil {
		return
	}
	m.workspaceMembersAddedTotal.Inc()
}

func (m *Metrics) InvitationSent() {
	if m == nil {
		return
	}
	m.invitationsSentTotal.Inc()
}

// AuthAttempt records a sign-up or sign-in outcome ("success", "invalid", "conflict", "error")
func (m *Metrics) AuthAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.authAttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimitedTotal.WithLabelValues(route).Inc()
}

// CacheLookup records a workspace listing cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}
