// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector methods are safe to call on a nil *Collector, which records
// nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge

	BookingsCreated   *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	SlotReservations  *prometheus.CounterVec
	SlotReleases      *prometheus.CounterVec
	FallbackResponses *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec
}

// NewCollector registers the collectors with reg. Pass
// prometheus.NewRegistry() in tests.
func NewCollector(namespace string, reg *prometheus.Registry) *Collector {
	f := promauto.With(reg)
	return &Collector{
		gatherer: reg,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),

		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		BookingsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Bookings created by kind.",
		}, []string{"kind"}),

		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "status_transitions_total",
			Help:      "Applied status transitions by kind, from and to.",
		}, []string{"kind", "from", "to"}),

		SlotReservations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allocator",
			Name:      "reservations_total",
			Help:      "Slot reservation attempts by result.",
		}, []string{"result"}),

		SlotReleases: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allocator",
			Name:      "releases_total",
			Help:      "Slot releases by result.",
		}, []string{"result"}),

		FallbackResponses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listing",
			Name:      "fallback_responses_total",
			Help:      "Responses served from sample data by resource and reason.",
		}, []string{"resource", "reason"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Schedule cache lookups by result.",
		}, []string{"result"}),

		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Booking events by type and result.",
		}, []string{"type", "result"}),

		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "breaker_state",
			Help:      "Store circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
	}
}

func (m *Collector) BookingCreated(kind string) {
	if m == nil {
		return
	}
	m.BookingsCreated.WithLabelValues(kind).Inc()
}

func (m *Collector) StatusChanged(kind, from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(kind, from, to).Inc()
}

func (m *Collector) Reservation(result string) {
	if m == nil {
		return
	}
	m.SlotReservations.WithLabelValues(result).Inc()
}

func (m *Collector) Release(result string) {
	if m == nil {
		return
	}
	m.SlotReleases.WithLabelValues(result).Inc()
}

func (m *Collector) Fallback(resource, reason string) {
	if m == nil {
		return
	}
	m.FallbackResponses.WithLabelValues(resource, reason).Inc()
}

func (m *Collector) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Collector) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, result).Inc()
}

// SetBreakerState records a gobreaker state value.
func (m *Collector) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// Middleware records request count and latency per matched route.
func (m *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil || c.Path() == "/metrics" {
				return next(c)
			}
			m.InFlight.Inc()
			defer m.InFlight.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
