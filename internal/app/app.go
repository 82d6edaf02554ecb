// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the pipeline: Genkit with the
// OpenAI plugin, the Postgres pool, the knowledge and memory stores,
// the in-process cache, and the chat service.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skatehive/docschat/internal/cache"
	"github.com/skatehive/docschat/internal/chat"
	"github.com/skatehive/docschat/internal/config"
	"github.com/skatehive/docschat/internal/ingest"
	"github.com/skatehive/docschat/internal/knowledge"
	"github.com/skatehive/docschat/internal/log"
	"github.com/skatehive/docschat/internal/memory"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Pool      *pgxpool.Pool
	Cache     *cache.Cache
	Knowledge *knowledge.Store
	Embedder  *knowledge.Embedder
	Memory    *memory.Store
	Chat      *chat.Service
	Indexer   *ingest.Indexer

	otelCleanup func()
	dbCleanup   func()
}

// Close releases resources in reverse initialization order.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.dbCleanup != nil {
		a.dbCleanup()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
