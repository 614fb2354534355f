// Package metrics defines the Prometheus instruments exported by the service.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alfagnish/mergington-activities/internal/catalog"
)

// Result labels for roster operations.
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultConflict    = "conflict"
	ResultNotSignedUp = "not_signed_up"
	ResultInvalid     = "invalid"
)

// Metrics groups the service's collectors.
type Metrics struct {
	Signups         *prometheus.CounterVec
	Unregistrations *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	WSSubscribers   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "activities",
			Name:      "signups_total",
			Help:      "Signup attempts by result.",
		}, []string{"transport", "result"}),
		Unregistrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "activities",
			Name:      "unregistrations_total",
			Help:      "Unregistration attempts by result.",
		}, []string{"transport", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "activities",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		WSSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "activities",
			Subsystem: "ws",
			Name:      "subscribers",
			Help:      "Connected roster change subscribers.",
		}),
	}
	reg.MustRegister(m.Signups, m.Unregistrations, m.RequestDuration, m.WSSubscribers)
	return m
}

// Result maps a catalog error to its metric label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, catalog.ErrActivityNotFound):
		return ResultNotFound
	case errors.Is(err, catalog.ErrAlreadySignedUp):
		return ResultConflict
	case errors.Is(err, catalog.ErrNotSignedUp):
		return ResultNotSignedUp
	default:
		return ResultInvalid
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, statusLabel(status)).Observe(elapsed.Seconds())
}

// SetSubscribers updates the subscriber gauge. Its signature matches the
// events.Hub count callback.
func (m *Metrics) SetSubscribers(n int) {
	m.WSSubscribers.Set(float64(n))
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
