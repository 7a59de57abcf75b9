package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS_OriginHandling(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name       string
		configured []string
		origin     string
		wantAllow  string
	}{
		{"configured origin allowed", []string{"https://gradepoint.example.com"},
			"https://gradepoint.example.com", "https://gradepoint.example.com"},
		{"wildcard allows any origin", []string{"*"},
			"https://anything.example.com", "*"},
		{"unconfigured origin gets no header", []string{"https://allowed.example.com"},
			"https://not-allowed.example.com", ""},
		{"no origin header passes through", []string{"https://allowed.example.com"},
			"", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/v1/gradebook", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tc.configured, next).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllow {
				t.Fatalf("Access-Control-Allow-Origin = %q, want %q", got, tc.wantAllow)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("preflight must not reach the handler")
	})

	req := httptest.NewRequest(http.MethodOptions, "/v1/gradebook", nil)
	req.Header.Set("Origin", "https://gradepoint.example.com")
	rec := httptest.NewRecorder()
	CORS([]string{"*"}, next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatal("expected preflight method header")
	}
}
