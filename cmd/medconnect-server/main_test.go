package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/medconnect/medconnect/internal/config"
	"github.com/medconnect/medconnect/internal/platform/auth"
	"github.com/medconnect/medconnect/internal/platform/metrics"
)

const testKey = "router-test-signing-key-0123456789abcdef"

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:            env,
		StoreDriver:    config.StoreDriverPostgres,
		AuthSigningKey: testKey,
		AuthIssuer:     "medconnect",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		RequestTimeout: 5 * time.Second,
	}
}

func whoAmI(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.String(http.StatusOK, actor.ID)
}

func do(e *echo.Echo, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_HealthAndMetrics(t *testing.T) {
	m := metrics.NewCollector("medconnect", prometheus.NewRegistry())
	e, _ := newRouter(testConfig("production"), zerolog.Nop(), m)

	rec := do(e, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), version) {
		t.Errorf("health: got %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("expected request id header")
	}

	rec = do(e, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "medconnect_http_requests_total") {
		t.Errorf("metrics: got %d", rec.Code)
	}
}

func TestNewRouter_ProductionAuth(t *testing.T) {
	m := metrics.NewCollector("medconnect", prometheus.NewRegistry())
	e, api := newRouter(testConfig("production"), zerolog.Nop(), m)
	api.GET("/whoami", whoAmI)

	if rec := do(e, "/api/v1/whoami", ""); rec.Body.String() != "anonymous" {
		t.Errorf("no token: expected anonymous caller, got %q", rec.Body.String())
	}

	token, err := auth.IssueToken([]byte(testKey), auth.TokenRequest{Subject: "patient-7", Issuer: "medconnect", Roles: []string{auth.RolePatient}})
	if err != nil {
		t.Fatal(err)
	}
	if rec := do(e, "/api/v1/whoami", token); rec.Body.String() != "patient-7" {
		t.Errorf("valid token: got %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(e, "/api/v1/whoami", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", rec.Code)
	}
}

func TestNewRouter_DevelopmentGrantsAdmin(t *testing.T) {
	m := metrics.NewCollector("medconnect", prometheus.NewRegistry())
	e, api := newRouter(testConfig("development"), zerolog.Nop(), m)
	api.GET("/whoami", whoAmI)

	if rec := do(e, "/api/v1/whoami", ""); rec.Body.String() != "dev-user" {
		t.Errorf("expected dev actor, got %q", rec.Body.String())
	}
}

func TestNewLogger_Level(t *testing.T) {
	if got := newLogger("production", "debug").GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("expected debug, got %s", got)
	}
	if got := newLogger("production", "nonsense").GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("expected info fallback, got %s", got)
	}
}
