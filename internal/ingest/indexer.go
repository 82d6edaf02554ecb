package ingest

import (
	"context"
	"fmt"

	"github.com/skatehive/docschat/internal/knowledge"
	"github.com/skatehive/docschat/internal/log"
)

// Embedder turns a chunk of text into an embedding vector.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Upserter writes documents into the knowledge store.
type Upserter interface {
	Upsert(ctx context.Context, doc knowledge.Document) error
}

// Indexer splits, embeds and stores documentation files.
type Indexer struct {
	embedder Embedder
	store    Upserter
	logger   log.Logger
}

func NewIndexer(embedder Embedder, store Upserter, logger log.Logger) (*Indexer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Indexer{embedder: embedder, store: store, logger: logger}, nil
}

// IndexDir ingests every markdown file under dir. Returns the number of
// chunks stored. A file that fails aborts the run; reruns are safe
// because documents upsert by URL.
func (ix *Indexer) IndexDir(ctx context.Context, dir, baseURL string) (int, error) {
	files, err := LoadDir(dir, baseURL)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, f := range files {
		n, err := ix.indexFile(ctx, f)
		if err != nil {
			return stored, fmt.Errorf("indexing %s: %w", f.URL, err)
		}
		stored += n
	}

	ix.logger.Info("ingest completed", "files", len(files), "chunks", stored)
	return stored, nil
}

// indexFile stores one file as one or more chunks. A file that splits
// into multiple chunks gets a #<n> fragment per chunk so every stored
// row keeps a unique URL.
func (ix *Indexer) indexFile(ctx context.Context, f File) (int, error) {
	chunks := knowledge.SplitText(f.Content, knowledge.ChunkSize)
	if len(chunks) == 0 {
		ix.logger.Warn("skipping empty file", "url", f.URL)
		return 0, nil
	}

	for i, chunk := range chunks {
		embedding, err := ix.embedder.CreateEmbedding(ctx, chunk)
		if err != nil {
			return i, fmt.Errorf("embedding chunk %d: %w", i+1, err)
		}

		url := f.URL
		if len(chunks) > 1 {
			url = fmt.Sprintf("%s#%d", f.URL, i+1)
		}

		if err := ix.store.Upsert(ctx, knowledge.Document{
			Content:   chunk,
			URL:       url,
			Embedding: embedding,
		}); err != nil {
			return i, fmt.Errorf("storing chunk %d: %w", i+1, err)
		}
	}

	ix.logger.Debug("indexed file", "url", f.URL, "chunks", len(chunks))
	return len(chunks), nil
}
