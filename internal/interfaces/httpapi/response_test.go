package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/openvue/gradepoint/internal/domain/policy"
	"github.com/openvue/gradepoint/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q", got)
	}

	var envelope struct {
		APIVersion string            `json:"apiVersion"`
		Data       map[string]string `json:"data"`
		Error      *googleErrorBody  `json:"error"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if envelope.APIVersion != "2.0" {
		t.Fatalf("apiVersion = %q, want 2.0", envelope.APIVersion)
	}
	if envelope.Data["status"] != "ok" {
		t.Fatalf("data = %v", envelope.Data)
	}
	if envelope.Error != nil {
		t.Fatalf("unexpected error body: %+v", envelope.Error)
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var envelope struct {
		APIVersion string           `json:"apiVersion"`
		Error      *googleErrorBody `json:"error"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if envelope.Error == nil {
		t.Fatal("expected error body")
	}
	if envelope.Error.Status != "INVALID_ARGUMENT" || envelope.Error.Code != 400 {
		t.Fatalf("error = %+v", envelope.Error)
	}
	if len(envelope.Error.Errors) != 1 || envelope.Error.Errors[0].Domain != "gradepoint" {
		t.Fatalf("error items = %+v", envelope.Error.Errors)
	}
}

func TestMapError_SentinelClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantHTTP   int
		wantStatus string
	}{
		{"not loaded", fmt.Errorf("%w: grading periods not initialized", usecase.ErrNotLoaded),
			http.StatusConflict, "FAILED_PRECONDITION"},
		{"not found", fmt.Errorf("%w: grading period q9", usecase.ErrNotFound),
			http.StatusNotFound, "NOT_FOUND"},
		{"unknown category", fmt.Errorf("edit rejected: %w", policy.ErrUnknownCategory),
			http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"dependency down", fmt.Errorf("%w: synergy gateway", usecase.ErrDependencyUnavailable),
			http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"unclassified", fmt.Errorf("sonic choked"),
			http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mapped := mapError(context.Background(), tc.err)
			if mapped.HTTPStatus != tc.wantHTTP || mapped.Status != tc.wantStatus {
				t.Fatalf("mapError = %+v, want %d %s", mapped, tc.wantHTTP, tc.wantStatus)
			}
		})
	}
}
