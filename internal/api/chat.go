package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/skatehive/docschat/internal/chat"
	"github.com/skatehive/docschat/internal/log"
)

// maxChatBodyBytes caps the request body to keep a single request from
// exhausting memory.
const maxChatBodyBytes = 1 << 20 // 1 MB

// Answerer runs the chat pipeline for one message.
type Answerer interface {
	Answer(ctx context.Context, userID, message string) (chat.Reply, error)
}

// chatHandler serves POST /api/chat.
type chatHandler struct {
	service Answerer
	logger  log.Logger
}

// chatRequest is the POST /api/chat request body.
type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusServiceUnavailable, "chat service not configured", h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body", h.logger)
		return
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, r.Body)

	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required", h.logger)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", h.logger)
		return
	}

	reply, err := h.service.Answer(r.Context(), req.UserID, req.Message)
	if err != nil {
		requestID, _ := requestIDFromContext(r.Context())
		h.logger.Error("chat pipeline failed",
			"error", err,
			"user_id", req.UserID,
			"request_id", requestID,
		)
		// The client renders this field as the error message, so the
		// pipeline error text goes through as-is.
		writeError(w, http.StatusInternalServerError, err.Error(), h.logger)
		return
	}

	writeJSON(w, http.StatusOK, reply, h.logger)
}
