package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/skatehive/docschat/internal/log"
)

// writeJSON writes a JSON response with the given status code.
// Uses buffer-first strategy so headers are only sent after successful
// encoding, allowing a proper 500 if encoding fails.
func writeJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		logger.Error("encoding JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		logger.Debug("writing response body", "error", err)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string, logger log.Logger) {
	writeJSON(w, status, errorBody{Error: message}, logger)
}
