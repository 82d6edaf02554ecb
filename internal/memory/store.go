// Package memory persists per-user conversation history.
//
// History is advisory prompt context, not a correctness-critical ledger:
// reads and writes are not transactionally linked, and interleaving between
// concurrent requests for the same user is accepted.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryLimit is the number of most recent turns loaded per user.
const HistoryLimit = 5

// Turn is one completed exchange for a user. Rows are append-only.
type Turn struct {
	UserID    string
	Message   string
	Response  string
	CreatedAt time.Time
}

// Querier defines the database operations the Store needs; defined by the
// consumer so tests can substitute a fake.
type Querier interface {
	// RecentTurns returns up to limit turns for a user, most recent first.
	RecentTurns(ctx context.Context, userID string, limit int32) ([]Turn, error)

	// InsertTurn appends one completed exchange.
	InsertTurn(ctx context.Context, userID, message, response string) error
}

// Queries is the pgx-backed Querier implementation.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries creates a Queries over the given pool.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const recentTurnsSQL = `
SELECT user_id, message, response, created_at
FROM chat_history
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`

func (q *Queries) RecentTurns(ctx context.Context, userID string, limit int32) ([]Turn, error) {
	rows, err := q.pool.Query(ctx, recentTurnsSQL, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.UserID, &t.Message, &t.Response, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat history row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chat history rows: %w", err)
	}
	return turns, nil
}

const insertTurnSQL = `
INSERT INTO chat_history (user_id, message, response)
VALUES ($1, $2, $3)
`

func (q *Queries) InsertTurn(ctx context.Context, userID, message, response string) error {
	if _, err := q.pool.Exec(ctx, insertTurnSQL, userID, message, response); err != nil {
		return fmt.Errorf("inserting chat turn: %w", err)
	}
	return nil
}

// Store manages conversation history. Safe for concurrent use.
type Store struct {
	queries Querier
	logger  *slog.Logger
}

// NewStore creates a Store over the given querier.
func NewStore(queries Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: queries, logger: logger}
}

// History returns the user's most recent turns, newest first, at most
// HistoryLimit entries.
func (s *Store) History(ctx context.Context, userID string) ([]Turn, error) {
	turns, err := s.queries.RecentTurns(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded history", "user_id", userID, "turns", len(turns))
	return turns, nil
}

// SaveInteraction appends one completed exchange for the user.
func (s *Store) SaveInteraction(ctx context.Context, userID, message, response string) error {
	if err := s.queries.InsertTurn(ctx, userID, message, response); err != nil {
		return err
	}
	s.logger.Debug("saved interaction", "user_id", userID)
	return nil
}
