package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skatehive/docschat/internal/chat"
	"github.com/skatehive/docschat/internal/log"
)

// stubAnswerer returns a canned reply or error.
type stubAnswerer struct {
	reply chat.Reply
	err   error

	calls    int
	lastUser string
	lastMsg  string
}

func (s *stubAnswerer) Answer(_ context.Context, userID, message string) (chat.Reply, error) {
	s.calls++
	s.lastUser = userID
	s.lastMsg = message
	return s.reply, s.err
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &stubAnswerer{reply: chat.Reply{
			Response: "Run `npm install`.",
			Sources:  []string{"https://docs.skatehive.app/docs/install"},
		}}
		h := &chatHandler{service: svc, logger: log.NewNop()}

		rec := postChat(t, http.HandlerFunc(h.send), `{"message":"How do I install?","user_id":"skater"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}

		var got chat.Reply
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if got.Response != "Run `npm install`." {
			t.Errorf("response = %q", got.Response)
		}
		if len(got.Sources) != 1 {
			t.Errorf("sources = %v", got.Sources)
		}
		if svc.lastUser != "skater" || svc.lastMsg != "How do I install?" {
			t.Errorf("service called with (%q, %q)", svc.lastUser, svc.lastMsg)
		}
	})

	t.Run("missing message", func(t *testing.T) {
		svc := &stubAnswerer{}
		h := &chatHandler{service: svc, logger: log.NewNop()}

		rec := postChat(t, http.HandlerFunc(h.send), `{"user_id":"skater"}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if svc.calls != 0 {
			t.Errorf("service called %d times, want 0", svc.calls)
		}
	})

	t.Run("missing user_id", func(t *testing.T) {
		h := &chatHandler{service: &stubAnswerer{}, logger: log.NewNop()}

		rec := postChat(t, http.HandlerFunc(h.send), `{"message":"hi"}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		h := &chatHandler{service: &stubAnswerer{}, logger: log.NewNop()}

		rec := postChat(t, http.HandlerFunc(h.send), `{not json`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		h := &chatHandler{service: &stubAnswerer{}, logger: log.NewNop()}

		big := `{"message":"` + strings.Repeat("a", maxChatBodyBytes+1) + `","user_id":"u"}`
		rec := postChat(t, http.HandlerFunc(h.send), big)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("nil service", func(t *testing.T) {
		h := &chatHandler{service: nil, logger: log.NewNop()}

		rec := postChat(t, http.HandlerFunc(h.send), `{"message":"hi","user_id":"u"}`)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("pipeline error", func(t *testing.T) {
		svc := &stubAnswerer{err: errors.New("vector search: connection refused")}
		h := &chatHandler{service: svc, logger: log.NewNop()}

		rec := postChat(t, http.HandlerFunc(h.send), `{"message":"hi","user_id":"u"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}

		var body errorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		// The client displays this field, so the pipeline message must
		// come through verbatim.
		if body.Error != "vector search: connection refused" {
			t.Errorf("error body = %q, want pipeline error message", body.Error)
		}
	})
}
