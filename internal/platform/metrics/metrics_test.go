package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_NilIsNoop(t *testing.T) {
	var m *Collector
	m.BookingCreated("appointment")
	m.Reservation("reserved")
	m.Fallback("appointments", "no_results")
	m.CacheLookup(true)
	m.EventPublished("appointment.booked", nil)
	m.SetBreakerState("postgres", 2)
}

func TestCollector_Counters(t *testing.T) {
	m := NewCollector("test", prometheus.NewRegistry())

	m.BookingCreated("ambulance")
	m.BookingCreated("ambulance")
	m.Reservation("unavailable")
	m.Fallback("doctors", "store_unavailable")
	m.EventPublished("ambulance.created", errors.New("broker down"))

	if got := testutil.ToFloat64(m.BookingsCreated.WithLabelValues("ambulance")); got != 2 {
		t.Errorf("expected 2 ambulance bookings, got %v", got)
	}
	if got := testutil.ToFloat64(m.SlotReservations.WithLabelValues("unavailable")); got != 1 {
		t.Errorf("expected 1 unavailable reservation, got %v", got)
	}
	if got := testutil.ToFloat64(m.FallbackResponses.WithLabelValues("doctors", "store_unavailable")); got != 1 {
		t.Errorf("expected 1 fallback, got %v", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("ambulance.created", "error")); got != 1 {
		t.Errorf("expected 1 failed publish, got %v", got)
	}
}

func TestCollector_MiddlewareAndHandler(t *testing.T) {
	m := NewCollector("test", prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/doctors/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/doctors/42", nil))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/v1/doctors/:id", "404")); got != 1 {
		t.Errorf("expected one 404 on route, got %v", got)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_http_requests_total") {
		t.Error("expected request counter in exposition")
	}
}
