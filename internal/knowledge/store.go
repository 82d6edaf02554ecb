package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"
)

// Store provides retrieval and ingestion access to the documentation store.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries Querier
	logger  *slog.Logger
}

// NewStore creates a Store over the given querier.
//
// Production wiring passes knowledge.NewQueries(pool); tests pass a fake
// Querier.
func NewStore(queries Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: queries, logger: logger}
}

// MatchDocuments returns up to count documents whose cosine similarity to the
// query embedding exceeds threshold, ordered by similarity descending.
// Filtering and ordering are delegated to the database procedure; results are
// not re-filtered locally.
func (s *Store) MatchDocuments(ctx context.Context, embedding []float32, threshold float64, count int) ([]Match, error) {
	rows, err := s.queries.MatchDocumentsVector(ctx, MatchDocumentsParams{
		QueryEmbedding: pgvector.NewVector(embedding),
		MatchThreshold: threshold,
		MatchCount:     int32(count), // #nosec G115 -- count is a small fixed pipeline constant
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	matches := make([]Match, len(rows))
	for i, r := range rows {
		matches[i] = Match{Content: r.Content, URL: r.URL, Similarity: r.Similarity}
	}

	s.logger.Debug("vector search completed",
		"matches", len(matches), "threshold", threshold, "count", count)
	return matches, nil
}

// SearchKeyword returns up to limit documents matching the literal query via
// full-text search. An empty result is not an error.
func (s *Store) SearchKeyword(ctx context.Context, query string, limit int) ([]Match, error) {
	rows, err := s.queries.SearchDocumentsKeyword(ctx, query, int32(limit)) // #nosec G115 -- limit is a small fixed pipeline constant
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	matches := make([]Match, len(rows))
	for i, r := range rows {
		matches[i] = Match{Content: r.Content, URL: r.URL}
	}

	s.logger.Debug("keyword search completed", "matches", len(matches))
	return matches, nil
}

// Upsert inserts or replaces a document by URL.
func (s *Store) Upsert(ctx context.Context, doc Document) error {
	if doc.URL == "" {
		return fmt.Errorf("document URL must not be empty")
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("document %q has no embedding", doc.URL)
	}

	err := s.queries.UpsertDocument(ctx, UpsertDocumentParams{
		Content:   doc.Content,
		URL:       doc.URL,
		Embedding: pgvector.NewVector(doc.Embedding),
	})
	if err != nil {
		return err
	}

	s.logger.Debug("upserted document", "url", doc.URL, "content_length", len(doc.Content))
	return nil
}

// Content returns the stored content for a URL.
// Returns ErrNotFound when the document does not exist.
func (s *Store) Content(ctx context.Context, url string) (string, error) {
	return s.queries.GetDocumentContent(ctx, url)
}

// Count reports the number of stored documents.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.queries.CountDocuments(ctx)
}
