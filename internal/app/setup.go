package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/skatehive/docschat/db"
	"github.com/skatehive/docschat/internal/cache"
	"github.com/skatehive/docschat/internal/chat"
	"github.com/skatehive/docschat/internal/config"
	"github.com/skatehive/docschat/internal/ingest"
	"github.com/skatehive/docschat/internal/knowledge"
	"github.com/skatehive/docschat/internal/log"
	"github.com/skatehive/docschat/internal/memory"
	"github.com/skatehive/docschat/internal/observability"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must be installed before Genkit initialization so its
	// TracerProvider picks up the span processor.
	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, dbCleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.Pool = pool

	g, err := provideGenkit(ctx, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Cache = cache.New()

	embedder := genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not registered by openai plugin", cfg.EmbedderModel)
	}
	a.Embedder = knowledge.NewEmbedder(embedder, a.Cache, logger)

	a.Knowledge = knowledge.NewStore(knowledge.NewQueries(pool), logger)
	a.Memory = memory.NewStore(memory.NewQueries(pool), logger)

	generator, err := chat.NewGenkitGenerator(g, "openai/"+cfg.ModelName)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	a.Chat, err = chat.New(chat.Config{
		Cache:            a.Cache,
		Embedder:         a.Embedder,
		Searcher:         a.Knowledge,
		Memory:           a.Memory,
		Generator:        generator,
		Logger:           logger,
		Temperature:      float64(cfg.Temperature),
		MaxTokens:        cfg.MaxTokens,
		KeywordSearch:    cfg.KeywordSearch,
		Grading:          cfg.Grading,
		GradeConcurrency: cfg.GradeConcurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat service: %w", err)
	}

	a.Indexer, err = ingest.NewIndexer(a.Embedder, a.Knowledge, logger)
	if err != nil {
		return nil, fmt.Errorf("creating indexer: %w", err)
	}

	return a, nil
}

// provideOtelShutdown sets up trace export and returns a cleanup that
// flushes pending spans with a bounded timeout.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OtelEndpoint,
		ServiceName: cfg.OtelServiceName,
	}, logger)
	if err != nil {
		logger.Warn("tracing setup failed, continuing without", "error", err)
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the OpenAI-compatible plugin.
// The plugin reads OPENAI_API_KEY from the environment.
func provideGenkit(ctx context.Context, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with openai plugin")
	}
	logger.Debug("genkit initialized with openai plugin")
	return g, nil
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool.
// The vector extension types are registered on every new connection so
// queries can bind and scan pgvector.Vector values.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}
