package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheckHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheckHandler("analysis-engine", "1.0.0")(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if status.Status != "healthy" || status.Service != "analysis-engine" {
		t.Errorf("Unexpected payload: %+v", status)
	}
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	checks := map[string]HealthCheckFunc{
		"transcription": func(ctx context.Context) (bool, error) { return true, nil },
		"commentary":    func(ctx context.Context) (bool, error) { return true, nil },
	}

	rec := httptest.NewRecorder()
	ReadinessHandler("analysis-engine", "1.0.0", checks)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var status HealthStatus
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Status != "ready" {
		t.Errorf("Expected ready, got %s", status.Status)
	}
	if status.Dependencies["transcription"].Status != "healthy" {
		t.Errorf("Expected healthy transcription, got %+v", status.Dependencies)
	}
}

func TestReadinessHandler_DisabledCapabilityStaysReady(t *testing.T) {
	checks := map[string]HealthCheckFunc{
		"pose": func(ctx context.Context) (bool, error) { return false, nil },
	}

	rec := httptest.NewRecorder()
	ReadinessHandler("analysis-engine", "1.0.0", checks)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected disabled capability to keep service ready, got %d", rec.Code)
	}
	var status HealthStatus
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Dependencies["pose"].Status != "disabled" {
		t.Errorf("Expected disabled status, got %+v", status.Dependencies["pose"])
	}
}

func TestReadinessHandler_FailingCheckNotReady(t *testing.T) {
	checks := map[string]HealthCheckFunc{
		"diarization": func(ctx context.Context) (bool, error) { return false, errors.New("connect failed") },
	}

	rec := httptest.NewRecorder()
	ReadinessHandler("analysis-engine", "1.0.0", checks)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}
	var status HealthStatus
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Status != "not_ready" {
		t.Errorf("Expected not_ready, got %s", status.Status)
	}
	if status.Dependencies["diarization"].Message == "" {
		t.Error("Expected failure message carried in dependency status")
	}
}
