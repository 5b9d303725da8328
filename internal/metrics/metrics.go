// Package metrics exposes lectern's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Metrics holds the collectors registered on one registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	reg prometheus.Gatherer

	StoreOperations   *prometheus.CounterVec
	StoreDuration     *prometheus.HistogramVec
	SessionCommits    *prometheus.CounterVec
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	SSEClients        prometheus.Gauge
}

// New registers lectern's collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		StoreOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_store_operations_total",
				Help: "Document store operations issued by the persistence layer",
			},
			[]string{"kind", "op", "result"},
		),
		StoreDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lectern_store_operation_duration_seconds",
				Help:    "Duration of document store operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"kind", "op"},
		),
		SessionCommits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_session_commits_total",
				Help: "Edit session commits by trigger (save, blur, switch)",
			},
			[]string{"trigger", "result"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lectern_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		SSEClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "lectern_sse_clients",
			Help: "Currently connected event stream clients",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// TrackStore starts timing a store operation; call the returned func with
// the operation's error.
func (m *Metrics) TrackStore(kind, op string) func(err error) {
	if m == nil {
		return func(error) {}
	}
	timer := prometheus.NewTimer(m.StoreDuration.WithLabelValues(kind, op))
	return func(err error) {
		timer.ObserveDuration()
		m.StoreOperations.WithLabelValues(kind, op, result(err)).Inc()
	}
}

// SessionCommit counts one commit attempt.
func (m *Metrics) SessionCommit(trigger, res string) {
	if m == nil {
		return
	}
	m.SessionCommits.WithLabelValues(trigger, res).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// SSEClientDelta adjusts the connected-clients gauge.
func (m *Metrics) SSEClientDelta(n int) {
	if m == nil {
		return
	}
	m.SSEClients.Add(float64(n))
}

func result(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultOK
}
