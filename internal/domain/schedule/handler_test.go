package schedule

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/auth"
	"github.com/medconnect/medconnect/internal/platform/resilience"
)

func newRequest(method, target, body string, actor *auth.Actor) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	return req, httptest.NewRecorder()
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestHandler_GetSchedule(t *testing.T) {
	h := NewHandler(newTestService(newMemRepo(oneSlotSchedule(1)), newMapCache(), nil))
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/api/v1/schedules/doc-1?date=2025-03-14", "", nil)
	c := e.NewContext(req, rec)
	c.SetParamNames("doctorId")
	c.SetParamValues("doc-1")

	if err := h.GetSchedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Success  bool           `json:"success"`
		Fallback bool           `json:"fallback"`
		Source   string         `json:"source"`
		Data     DoctorSchedule `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Fallback || body.Source != "store" {
		t.Errorf("unexpected envelope %s", rec.Body.String())
	}
	if len(body.Data.Days) != 1 || body.Data.Days[0].Slots[0].String() != "10:00 - 10:30" {
		t.Errorf("unexpected schedule %s", rec.Body.String())
	}
}

func TestHandler_GetScheduleFallbackIsTagged(t *testing.T) {
	repo := newMemRepo()
	repo.err = &resilience.UnavailableError{Op: "schedules.get", Err: errors.New("timeout")}
	h := NewHandler(newTestService(repo, newMapCache(), nil))

	req, rec := newRequest(http.MethodGet, "/api/v1/schedules/doc-1", "", nil)
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("doctorId")
	c.SetParamValues("doc-1")
	if err := h.GetSchedule(c); err != nil {
		t.Fatal(err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["fallback"] != true || body["source"] != "sample" || body["reason"] != booking.ReasonStoreUnavailable {
		t.Errorf("expected tagged sample response, got %s", rec.Body.String())
	}
}

func houseSchedule() *DoctorSchedule {
	s := oneSlotSchedule(2)
	s.DoctorEmail = "house@example.com"
	s.Days[0].Slots[0].Booked = 1
	return s
}

const replaceBody = `{"doctorId":"doc-1","doctorEmail":"house@example.com","schedule":{"days":[{"date":"2025-03-14","slots":[{"startTime":"10:00","endTime":"10:30"}]}]}}`

func TestHandler_ReplaceSchedule(t *testing.T) {
	tests := []struct {
		name  string
		actor auth.Actor
		body  string
		code  int
	}{
		{"own id", auth.Actor{ID: "doc-1", Roles: []string{auth.RoleDoctor}}, replaceBody, http.StatusOK},
		{"own email on stored schedule", auth.Actor{ID: "u-7", Email: "HOUSE@example.com", Roles: []string{auth.RoleDoctor}}, replaceBody, http.StatusOK},
		{"own email on someone else's id", auth.Actor{ID: "doc-2", Email: "wilson@example.com", Roles: []string{auth.RoleDoctor}},
			`{"doctorId":"doc-1","doctorEmail":"wilson@example.com","schedule":{"days":[{"date":"2025-03-14","slots":[]}]}}`, http.StatusForbidden},
		{"email without stored schedule", auth.Actor{ID: "u-7", Email: "cuddy@example.com", Roles: []string{auth.RoleDoctor}},
			`{"doctorId":"doc-5","doctorEmail":"cuddy@example.com","schedule":{"days":[{"date":"2025-03-14","slots":[{"startTime":"10:00","endTime":"10:30"}]}]}}`, http.StatusForbidden},
		{"admin", auth.Actor{ID: "admin", Roles: []string{auth.RoleAdmin}}, replaceBody, http.StatusOK},
		{"other doctor", auth.Actor{ID: "doc-2", Email: "wilson@example.com", Roles: []string{auth.RoleDoctor}}, replaceBody, http.StatusForbidden},
		{"missing fields", auth.Actor{ID: "admin", Roles: []string{auth.RoleAdmin}}, `{"doctorId":""}`, http.StatusBadRequest},
		{"malformed body", auth.Actor{ID: "admin", Roles: []string{auth.RoleAdmin}}, `{"doctorId":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo(houseSchedule())
			h := NewHandler(newTestService(repo, newMapCache(), nil))
			req, rec := newRequest(http.MethodPut, "/api/v1/schedules", tt.body, &tt.actor)
			err := h.ReplaceSchedule(echo.New().NewContext(req, rec))

			if tt.code != http.StatusOK {
				if got := httpCode(t, err); got != tt.code {
					t.Errorf("expected %d, got %d", tt.code, got)
				}
				if got := repo.booked("doc-1", "2025-03-14", slot10); got != 1 {
					t.Errorf("rejected replace must leave doc-1 untouched, booked=%d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["success"] != true || body["message"] != "Schedule updated successfully" {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
		})
	}
}

func TestHandler_RoutesRequireRoleForReplace(t *testing.T) {
	e := echo.New()
	NewHandler(newTestService(newMemRepo(), newMapCache(), nil)).RegisterRoutes(e.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/schedules", strings.NewReader(replaceBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{ID: "p-1", Roles: []string{auth.RolePatient}}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a patient, got %d", rec.Code)
	}
}

func TestHandler_ReplaceScheduleOwnershipStoreDown(t *testing.T) {
	repo := newMemRepo()
	repo.err = &resilience.UnavailableError{Op: "schedules.get", Err: errors.New("timeout")}
	h := NewHandler(newTestService(repo, newMapCache(), nil))

	actor := auth.Actor{ID: "u-7", Email: "house@example.com", Roles: []string{auth.RoleDoctor}}
	req, rec := newRequest(http.MethodPut, "/api/v1/schedules", replaceBody, &actor)
	err := h.ReplaceSchedule(echo.New().NewContext(req, rec))
	if got := httpCode(t, err); got != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", got)
	}
}
