package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/skatehive/docschat/internal/cache"
	"github.com/skatehive/docschat/internal/knowledge"
	"github.com/skatehive/docschat/internal/log"
	"github.com/skatehive/docschat/internal/memory"
)

const (
	// matchThreshold and matchCount parameterize the similarity search.
	matchThreshold = 0.5
	matchCount     = 5

	// responseCacheTTL is how long a finished reply stays cached.
	responseCacheTTL = 3600 * time.Second

	chatKeyPrefix = "chat_"
)

// Reply is the pipeline result: the assistant's answer and the URLs of the
// documents that informed it.
type Reply struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Searcher retrieves documentation matches.
type Searcher interface {
	MatchDocuments(ctx context.Context, embedding []float32, threshold float64, count int) ([]knowledge.Match, error)
	SearchKeyword(ctx context.Context, query string, limit int) ([]knowledge.Match, error)
}

// Historian reads and appends conversation turns.
type Historian interface {
	History(ctx context.Context, userID string) ([]memory.Turn, error)
	SaveInteraction(ctx context.Context, userID, message, response string) error
}

// Config wires a Service. Cache, Embedder, Searcher, Memory and Generator
// are required.
type Config struct {
	Cache     *cache.Cache
	Embedder  Embedder
	Searcher  Searcher
	Memory    Historian
	Generator Generator
	Logger    log.Logger

	Temperature      float64
	MaxTokens        int
	KeywordSearch    bool
	Grading          bool
	GradeConcurrency int
}

// Service answers documentation questions with retrieval-augmented
// completions.
type Service struct {
	cache     *cache.Cache
	embedder  Embedder
	searcher  Searcher
	memory    Historian
	generator Generator
	logger    log.Logger

	temperature      float64
	maxTokens        int
	keywordSearch    bool
	grading          bool
	gradeConcurrency int
}

func New(cfg Config) (*Service, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.Memory == nil {
		return nil, fmt.Errorf("memory store is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	concurrency := cfg.GradeConcurrency
	if concurrency <= 0 {
		concurrency = DefaultGradeConcurrency
	}
	return &Service{
		cache:            cfg.Cache,
		embedder:         cfg.Embedder,
		searcher:         cfg.Searcher,
		memory:           cfg.Memory,
		generator:        cfg.Generator,
		logger:           logger,
		temperature:      cfg.Temperature,
		maxTokens:        cfg.MaxTokens,
		keywordSearch:    cfg.KeywordSearch,
		grading:          cfg.Grading,
		gradeConcurrency: concurrency,
	}, nil
}

// Answer runs the full pipeline for one user message. Identical
// (userID, message) pairs within the cache TTL return the cached reply
// without touching the model or the store.
func (s *Service) Answer(ctx context.Context, userID, message string) (Reply, error) {
	cacheKey := chatKeyPrefix + userID + "_" + message
	if v, ok := s.cache.Get(cacheKey); ok {
		if reply, ok := v.(Reply); ok {
			s.logger.Debug("reply cache hit", "user_id", userID)
			return reply, nil
		}
		s.cache.Delete(cacheKey)
	}

	history, err := s.memory.History(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("loading history: %w", err)
	}

	matches, err := s.retrieve(ctx, message)
	if err != nil {
		return Reply{}, err
	}

	if s.grading && len(matches) > 0 {
		matches, err = s.gradeDocuments(ctx, message, matches)
		if err != nil {
			return Reply{}, err
		}
	}

	system := fmt.Sprintf(systemPrompt, formatDocumentation(matches), formatHistory(history))
	response, err := s.generator.Complete(ctx, CompletionRequest{
		System:      system,
		User:        message,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("generating response: %w", err)
	}

	if err := s.memory.SaveInteraction(ctx, userID, message, response); err != nil {
		return Reply{}, fmt.Errorf("saving interaction: %w", err)
	}

	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, m.URL)
	}

	reply := Reply{Response: response, Sources: sources}
	s.cache.Set(cacheKey, reply, responseCacheTTL)

	s.logger.Info("answered message",
		"user_id", userID,
		"sources", len(sources),
		"history_turns", len(history))
	return reply, nil
}

// retrieve finds candidate documents for the message. When keyword search
// is enabled and yields results, the vector phase is skipped.
func (s *Service) retrieve(ctx context.Context, message string) ([]knowledge.Match, error) {
	if s.keywordSearch {
		matches, err := s.searcher.SearchKeyword(ctx, message, matchCount)
		if err != nil {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		if len(matches) > 0 {
			s.logger.Debug("keyword search hit", "matches", len(matches))
			return matches, nil
		}
	}

	embedding, err := s.embedder.CreateEmbedding(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("embedding message: %w", err)
	}

	matches, err := s.searcher.MatchDocuments(ctx, embedding, matchThreshold, matchCount)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return matches, nil
}
