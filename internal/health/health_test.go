package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// staticChecker возвращает заранее заданный результат.
type staticChecker struct {
	status  Status
	message string
}

func (c staticChecker) Check() Check {
	return Check{Name: "static", Status: c.status, Message: c.message}
}

func TestHandlerAggregatesWorstStatus(t *testing.T) {
	cases := []struct {
		name       string
		checkers   map[string]Status
		wantStatus Status
		wantCode   int
	}{
		{
			name:       "all healthy",
			checkers:   map[string]Status{"storage": StatusHealthy, "orders": StatusHealthy},
			wantStatus: StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name:       "degraded keeps 200",
			checkers:   map[string]Status{"storage": StatusHealthy, "orders": StatusDegraded},
			wantStatus: StatusDegraded,
			wantCode:   http.StatusOK,
		},
		{
			name:       "unhealthy wins over degraded",
			checkers:   map[string]Status{"storage": StatusUnhealthy, "orders": StatusDegraded},
			wantStatus: StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler("v1.2.3")
			for name, status := range tc.checkers {
				handler.RegisterChecker(name, staticChecker{status: status})
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if w.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", w.Code, tc.wantCode)
			}

			var report Report
			if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
				t.Fatalf("decode report: %v", err)
			}
			if report.Status != tc.wantStatus {
				t.Fatalf("status = %s, want %s", report.Status, tc.wantStatus)
			}
			if report.Version != "v1.2.3" {
				t.Fatalf("version = %s, want v1.2.3", report.Version)
			}
			if len(report.Checks) != len(tc.checkers) {
				t.Fatalf("checks = %d, want %d", len(report.Checks), len(tc.checkers))
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	handler := NewHandler("v1.2.3")
	handler.RegisterChecker("orders", staticChecker{status: StatusDegraded})

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	// Degraded зависимость не мешает принимать трафик.
	if w.Code != http.StatusOK || w.Body.String() != "ready" {
		t.Fatalf("code = %d, body = %q", w.Code, w.Body.String())
	}

	handler.RegisterChecker("storage", staticChecker{status: StatusUnhealthy, message: "connection refused"})

	w = httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusServiceUnavailable || w.Body.String() != "not ready" {
		t.Fatalf("code = %d, body = %q", w.Code, w.Body.String())
	}
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("code = %d, body = %q", w.Code, w.Body.String())
	}
}
