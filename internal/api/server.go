package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skatehive/docschat/internal/log"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      log.Logger
	Service     Answerer      // Optional: nil returns 503 on /api/chat
	Pool        *pgxpool.Pool // Optional: nil disables DB checks in /ready
	CORSOrigins []string      // Allowed origins for CORS
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst   int           // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{service: cfg.Service, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.send)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must run before Logging so request_id is available in
	// log attributes. CORS must run before RateLimit so preflight
	// OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes stay outside the middleware stack so orchestrator
	// checks never hit the rate limiter.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
