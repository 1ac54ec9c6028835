package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMiddlewareRoutePattern verifies requests are labelled by the chi route
// pattern rather than the raw path, with the handler's status code.
func TestMiddlewareRoutePattern(t *testing.T) {
	m := NewTestManager()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/sessions/a", "/sessions/b", "/sessions/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	tests := []struct {
		status string
		want   float64
	}{
		{"200", 2},
		{"404", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.CounterRequests.WithLabelValues(http.MethodGet, "/sessions/{id}", tt.status))
		if got != tt.want {
			t.Errorf("requests{status=%s} = %v, want %v", tt.status, got, tt.want)
		}
	}
	if got := testutil.ToFloat64(m.GaugeRequests); got != 0 {
		t.Errorf("in-flight gauge = %v, want 0", got)
	}
}

// TestResponseWriterFirstStatusWins verifies only the first WriteHeader is
// recorded.
func TestResponseWriterFirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusCreated || rec.Code != http.StatusCreated {
		t.Errorf("status = %d (recorder %d), want 201", rw.statusCode, rec.Code)
	}
}
