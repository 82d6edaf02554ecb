package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skatehive/docschat/internal/chat"
	"github.com/skatehive/docschat/internal/log"
)

func TestServerRoutes(t *testing.T) {
	srv := NewServer(ServerConfig{
		Logger:  log.NewNop(),
		Service: &stubAnswerer{reply: chat.Reply{Response: "hello", Sources: []string{}}},
	})
	h := srv.Handler()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET /health = %d, want 200", rec.Code)
		}
	})

	t.Run("ready without pool", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET /ready = %d, want 200", rec.Code)
		}
	})

	t.Run("chat", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi","user_id":"u"}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("POST /api/chat = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header missing from chat route")
		}
	})

	t.Run("chat wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET /api/chat = %d, want 405", rec.Code)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET /nope = %d, want 404", rec.Code)
		}
	})
}

func TestServerHealthBypassesRateLimit(t *testing.T) {
	srv := NewServer(ServerConfig{
		Logger:    log.NewNop(),
		Service:   &stubAnswerer{},
		RateBurst: 1,
	})
	h := srv.Handler()

	// Health probes run outside the middleware stack: hammering them
	// must never yield 429.
	for range 10 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.9:1111"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /health = %d, want 200", rec.Code)
		}
	}
}

func TestServerNilService(t *testing.T) {
	srv := NewServer(ServerConfig{Logger: log.NewNop()})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi","user_id":"u"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("POST /api/chat = %d, want 503", rec.Code)
	}
}
