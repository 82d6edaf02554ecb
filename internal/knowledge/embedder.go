package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"

	"github.com/skatehive/docschat/internal/cache"
)

// embeddingKeyPrefix namespaces embedding entries in the shared cache.
const embeddingKeyPrefix = "embedding_"

// Embedder wraps a hosted embedding model with a cache so identical texts are
// embedded once per process. Cached vectors never expire.
type Embedder struct {
	embedder ai.Embedder
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewEmbedder creates an Embedder. The cache is shared with the rest of the
// pipeline; keys are namespaced with "embedding_".
func NewEmbedder(embedder ai.Embedder, c *cache.Cache, logger *slog.Logger) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{embedder: embedder, cache: c, logger: logger}
}

// CreateEmbedding returns the embedding vector for text, serving repeated
// texts from cache. Provider errors propagate without retry.
func (e *Embedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := embeddingKeyPrefix + text

	if cached, ok := e.cache.Get(key); ok {
		if vec, ok := cached.([]float32); ok {
			return vec, nil
		}
		// Wrong type under our namespace; drop it and re-embed.
		e.cache.Delete(key)
	}

	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	vec := resp.Embeddings[0].Embedding
	e.cache.Set(key, vec, 0)

	e.logger.Debug("created embedding", "text_length", len(text), "dimensions", len(vec))
	return vec, nil
}
