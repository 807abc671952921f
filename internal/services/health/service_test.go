package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestStatusReportsEachCheck(t *testing.T) {
	svc := NewService(map[string]Check{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
		"skipped":  nil,
	})

	report := svc.Status(context.Background())
	if report.OK {
		t.Fatalf("expected not ok")
	}
	if report.Checks["database"] != "up" || report.Checks["redis"] != "connection refused" {
		t.Fatalf("checks = %v", report.Checks)
	}
	if _, ok := report.Checks["skipped"]; ok {
		t.Fatalf("nil check reported")
	}
}

func TestReadyEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		checks map[string]Check
		status int
	}{
		{"no dependencies", nil, http.StatusOK},
		{"healthy", map[string]Check{"database": func(context.Context) error { return nil }}, http.StatusOK},
		{"failing", map[string]Check{"database": func(context.Context) error { return errors.New("down") }}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewService(tc.checks).RegisterRoutes(r)

			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if resp.Code != tc.status {
				t.Fatalf("status = %d", resp.Code)
			}
			var body Report
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.OK != (tc.status == http.StatusOK) {
				t.Fatalf("body = %+v", body)
			}
		})
	}
}
