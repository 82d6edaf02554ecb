package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skatehive/docschat/internal/log"
)

// health is a liveness probe. Returns 200 OK with {"status":"ok"}.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// readiness is a readiness probe. Pings the database when a pool is
// configured; without one the server is ready as soon as it serves.
func readiness(pool *pgxpool.Pool, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": "database unreachable",
			}, logger)
			return
		}

		stats := pool.Stat()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"pool_total_conns":  stats.TotalConns(),
			"pool_idle_conns":   stats.IdleConns(),
			"pool_in_use_conns": stats.AcquiredConns(),
		}, logger)
	}
}
