package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skatehive/docschat/internal/log"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]string{"hello": "world"}, log.NewNop())

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := rec.Body.String(); got != "{\"hello\":\"world\"}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, make(chan int), log.NewNop())

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 on unencodable value", rec.Code)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "message is required", log.NewNop())

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"error\":\"message is required\"}\n" {
		t.Errorf("body = %q", got)
	}
}
