package synergy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/openvue/gradepoint/internal/platform/logging"
	"github.com/openvue/gradepoint/internal/platform/resilience"
	"github.com/openvue/gradepoint/internal/usecase"
)

func decodeRequest(t *testing.T, r *http.Request) requestEnvelope {
	t.Helper()

	var req requestEnvelope
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode request envelope: %v", err)
	}
	return req
}

func writeData(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()

	raw, err := sonic.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(`{"data":` + string(raw) + `}`)); err != nil {
		t.Fatalf("write response: %v", err)
	}
}

func newTestClient(baseURL string, maxRetries int, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(ClientConfig{
		BaseURL:        baseURL,
		Token:          "test-token",
		Timeout:        2 * time.Second,
		MaxRetries:     maxRetries,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestClient_Courses_MapsWirePayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("authorization header = %q", got)
		}
		req := decodeRequest(t, r)
		if req.Operation != opCourses {
			t.Errorf("operation = %q, want %q", req.Operation, opCourses)
		}
		if req.Params["reportPeriod"] != "q3" {
			t.Errorf("reportPeriod param = %q", req.Params["reportPeriod"])
		}

		writeData(t, w, coursesPayload{Courses: []courseItem{{
			ID:    "eng-10",
			Title: "English 10",
			Staff: "R. Alvarez",
			Room:  "214",
			Assignments: []assignmentItem{
				{GradebookID: "a1", Measure: "Essay", Type: "All Tasks / Assessments",
					DueDate: "2026-03-02", Score: "1,024.5", MaxScore: "1100"},
				{GradebookID: "a2", Measure: "Draft", Type: "All Tasks / Assessments",
					DueDate: "3/9/2026", Score: "", MaxScore: "", NotForGrading: "true"},
			},
			WeightSummaries: []weightSummaryItem{
				{Type: "All Tasks / Assessments", Points: "1024.5", MaxPoints: "1100", Weight: "90%"},
			},
		}}})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0, resilience.CircuitBreakerConfig{Enabled: false})
	courses, err := client.Courses(context.Background(), "q3")
	if err != nil {
		t.Fatalf("Courses: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("got %d courses, want 1", len(courses))
	}

	got := courses[0]
	if got.ID != "eng-10" || got.PeriodID != "q3" || got.Teacher != "R. Alvarez" {
		t.Fatalf("unexpected course: %+v", got)
	}
	if len(got.Assignments) != 2 {
		t.Fatalf("got %d assignments, want 2", len(got.Assignments))
	}

	scored := got.Assignments[0]
	if scored.Score == nil || *scored.Score != 1024.5 {
		t.Fatalf("comma-grouped score not normalized: %+v", scored.Score)
	}
	if scored.DueDate != time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("ISO due date = %v", scored.DueDate)
	}

	ungraded := got.Assignments[1]
	if ungraded.Score != nil || ungraded.MaxScore != nil {
		t.Fatalf("empty score strings should map to nil: %+v", ungraded)
	}
	if !ungraded.NotForGrading {
		t.Fatal("notForGrading flag lost")
	}
	if ungraded.DueDate != time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("US due date = %v", ungraded.DueDate)
	}

	if len(got.SummaryWeights) != 1 || got.SummaryWeights[0].Weight != 0.9 {
		t.Fatalf("weight summary not mapped: %+v", got.SummaryWeights)
	}
}

func TestClient_Course_NotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, coursesPayload{})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0, resilience.CircuitBreakerConfig{Enabled: false})
	_, found, err := client.Course(context.Background(), "q3", "missing")
	if err != nil {
		t.Fatalf("Course: %v", err)
	}
	if found {
		t.Fatal("expected not found")
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream flake", http.StatusServiceUnavailable)
			return
		}
		writeData(t, w, districtsPayload{Districts: []districtItem{
			{Name: "MCPS", Address: "Rockville, MD", Host: "md-mcps-psv.edupoint.com"},
		}})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1, resilience.CircuitBreakerConfig{Enabled: false})
	districts, err := client.Districts(context.Background(), "20850")
	if err != nil {
		t.Fatalf("Districts: %v", err)
	}
	if len(districts) != 1 || districts[0].Host != "md-mcps-psv.edupoint.com" {
		t.Fatalf("unexpected districts: %+v", districts)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("gateway called %d times, want 2", got)
	}
}

func TestClient_UnauthorizedIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3, resilience.CircuitBreakerConfig{Enabled: false})
	_, err := client.GradebookInfo(context.Background())
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("gateway called %d times, want 1", got)
	}
}

func TestClient_CircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	if _, err := client.GradebookInfo(context.Background()); err == nil {
		t.Fatal("expected first call to fail")
	}
	_, err := client.GradebookInfo(context.Background())
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable while open, got %v", err)
	}
}

func TestClient_GatewayErrorEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"session expired"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0, resilience.CircuitBreakerConfig{Enabled: false})
	_, err := client.GradebookInfo(context.Background())
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized from envelope, got %v", err)
	}
}
