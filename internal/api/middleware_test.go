package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/skatehive/docschat/internal/log"
)

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := recoveryMiddleware(log.NewNop())(panicking)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRecoveryMiddlewareAfterHeadersSent(t *testing.T) {
	h := recoveryMiddleware(log.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		panic("late boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	// Status already committed; middleware must not overwrite it.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var seen string
		h := requestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = requestIDFromContext(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Fatal("no request ID in context")
		}
		if _, err := uuid.Parse(seen); err != nil {
			t.Errorf("request ID %q is not a UUID: %v", seen, err)
		}
		if got := rec.Header().Get("X-Request-ID"); got != seen {
			t.Errorf("X-Request-ID header = %q, want %q", got, seen)
		}
	})

	t.Run("preserves caller id", func(t *testing.T) {
		var seen string
		h := requestIDMiddleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen, _ = requestIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "caller-chosen")
		h.ServeHTTP(httptest.NewRecorder(), req)

		if seen != "caller-chosen" {
			t.Errorf("request ID = %q, want caller-chosen", seen)
		}
	})
}

func TestCORSMiddleware(t *testing.T) {
	allowed := []string{"https://docs.skatehive.app"}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		h := corsMiddleware(allowed)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://docs.skatehive.app")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://docs.skatehive.app" {
			t.Errorf("Allow-Origin = %q", got)
		}
	})

	t.Run("disallowed origin", func(t *testing.T) {
		h := corsMiddleware(allowed)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		h := corsMiddleware(allowed)(next)
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://docs.skatehive.app")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want 204", rec.Code)
		}
	})
}
