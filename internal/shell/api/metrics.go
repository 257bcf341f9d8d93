package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for catalog_artist_requests_total.
const (
	outcomeCreated     = "created"
	outcomeUpdated     = "updated"
	outcomeFound       = "found"
	outcomeForbidden   = "forbidden"
	outcomeBadRequest  = "bad_request"
	outcomeUnsupported = "unsupported_media_type"
	outcomeNotFound    = "not_found"
	outcomeConflict    = "conflict"
	outcomeError       = "error"
)

// Metrics holds the handler's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// NewMetrics creates a registry with the artist request counter and the
// Go runtime collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_artist_requests_total",
		Help: "Artist endpoint requests by operation and outcome.",
	}, []string{"operation", "outcome"})

	reg.MustRegister(
		requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{registry: reg, requests: requests}
}

// Observe counts one request.
func (m *Metrics) Observe(operation, outcome string) {
	m.requests.WithLabelValues(operation, outcome).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Operation labels.
const (
	opCreate = "create"
	opUpdate = "update"
	opGet    = "get"
	opList   = "list"
)

// outcomeFor maps a response status to an outcome label.
func outcomeFor(operation string, status int) string {
	switch status {
	case http.StatusOK:
		if operation == opUpdate {
			return outcomeUpdated
		}
		return outcomeFound
	case http.StatusCreated:
		return outcomeCreated
	case http.StatusForbidden:
		return outcomeForbidden
	case http.StatusBadRequest:
		return outcomeBadRequest
	case http.StatusUnsupportedMediaType:
		return outcomeUnsupported
	case http.StatusNotFound:
		return outcomeNotFound
	case http.StatusConflict:
		return outcomeConflict
	}
	if status >= 500 {
		return outcomeError
	}
	return outcomeFound
}
