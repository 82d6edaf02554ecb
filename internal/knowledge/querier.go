package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// MatchDocumentsParams are the arguments to the store's
// match_documents_vector procedure.
type MatchDocumentsParams struct {
	QueryEmbedding pgvector.Vector
	MatchThreshold float64
	MatchCount     int32
}

// UpsertDocumentParams are the arguments for inserting or replacing a
// document, keyed by URL.
type UpsertDocumentParams struct {
	Content   string
	URL       string
	Embedding pgvector.Vector
}

// MatchRow is one row returned by a search query.
type MatchRow struct {
	Content    string
	URL        string
	Similarity float64
}

// Querier defines the database operations the Store needs. The interface is
// defined by the consumer so tests can substitute a fake implementation and
// assert on the parameters passed through.
type Querier interface {
	// MatchDocumentsVector runs the server-side similarity procedure.
	MatchDocumentsVector(ctx context.Context, arg MatchDocumentsParams) ([]MatchRow, error)

	// SearchDocumentsKeyword runs a full-text search for the literal query.
	SearchDocumentsKeyword(ctx context.Context, query string, limit int32) ([]MatchRow, error)

	// UpsertDocument inserts or replaces a document by URL.
	UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error

	// GetDocumentContent returns the stored content for a URL.
	GetDocumentContent(ctx context.Context, url string) (string, error)

	// CountDocuments counts all stored documents.
	CountDocuments(ctx context.Context) (int64, error)
}

// Queries is the pgx-backed Querier implementation.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries creates a Queries over the given pool. The pool must have
// pgvector types registered (see app.Setup).
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const matchDocumentsVectorSQL = `
SELECT content, url, similarity
FROM match_documents_vector($1, $2, $3)
`

// MatchDocumentsVector delegates threshold filtering and similarity ordering
// to the database procedure; rows come back ordered by similarity descending.
func (q *Queries) MatchDocumentsVector(ctx context.Context, arg MatchDocumentsParams) ([]MatchRow, error) {
	rows, err := q.pool.Query(ctx, matchDocumentsVectorSQL,
		arg.QueryEmbedding, arg.MatchThreshold, arg.MatchCount)
	if err != nil {
		return nil, fmt.Errorf("querying match_documents_vector: %w", err)
	}
	defer rows.Close()

	return scanMatchRows(rows, true)
}

const searchDocumentsKeywordSQL = `
SELECT content, url
FROM documents
WHERE to_tsvector('english', content) @@ websearch_to_tsquery('english', $1)
LIMIT $2
`

// SearchDocumentsKeyword matches documents containing the query terms.
// Keyword hits carry no similarity score.
func (q *Queries) SearchDocumentsKeyword(ctx context.Context, query string, limit int32) ([]MatchRow, error) {
	rows, err := q.pool.Query(ctx, searchDocumentsKeywordSQL, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents by keyword: %w", err)
	}
	defer rows.Close()

	return scanMatchRows(rows, false)
}

const upsertDocumentSQL = `
INSERT INTO documents (content, url, embedding)
VALUES ($1, $2, $3)
ON CONFLICT (url) DO UPDATE
SET content = EXCLUDED.content, embedding = EXCLUDED.embedding
`

func (q *Queries) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error {
	_, err := q.pool.Exec(ctx, upsertDocumentSQL, arg.Content, arg.URL, arg.Embedding)
	if err != nil {
		return fmt.Errorf("upserting document %q: %w", arg.URL, err)
	}
	return nil
}

const getDocumentContentSQL = `
SELECT content FROM documents WHERE url = $1
`

func (q *Queries) GetDocumentContent(ctx context.Context, url string) (string, error) {
	var content string
	err := q.pool.QueryRow(ctx, getDocumentContentSQL, url).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if err != nil {
		return "", fmt.Errorf("loading document %q: %w", url, err)
	}
	return content, nil
}

const countDocumentsSQL = `
SELECT count(*) FROM documents
`

func (q *Queries) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	if err := q.pool.QueryRow(ctx, countDocumentsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

func scanMatchRows(rows pgx.Rows, withSimilarity bool) ([]MatchRow, error) {
	var result []MatchRow
	for rows.Next() {
		var r MatchRow
		var err error
		if withSimilarity {
			err = rows.Scan(&r.Content, &r.URL, &r.Similarity)
		} else {
			err = rows.Scan(&r.Content, &r.URL)
		}
		if err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading match rows: %w", err)
	}
	return result, nil
}
