package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/skatehive/docschat/internal/knowledge"
)

// DefaultGradeConcurrency bounds how many grading completions run at once.
const DefaultGradeConcurrency = 5

// gradeVerdict is the JSON shape the grader prompt asks the model for.
type gradeVerdict struct {
	Relevant bool `json:"relevant"`
}

// gradeDocuments evaluates each match against the question and returns the
// relevant ones, preserving the input order. Completion errors are fatal;
// a response that cannot be parsed marks the document not relevant.
func (s *Service) gradeDocuments(ctx context.Context, question string, matches []knowledge.Match) ([]knowledge.Match, error) {
	if len(matches) == 0 {
		return matches, nil
	}

	keep := make([]bool, len(matches))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.gradeConcurrency)
	for i, m := range matches {
		g.Go(func() error {
			prompt := fmt.Sprintf(graderPrompt, question, m.Content)
			raw, err := s.generator.Complete(ctx, CompletionRequest{
				User:        prompt,
				Temperature: s.temperature,
				MaxTokens:   s.maxTokens,
			})
			if err != nil {
				return fmt.Errorf("grading document %q: %w", m.URL, err)
			}

			verdict, err := parseVerdict(raw)
			if err != nil {
				s.logger.Warn("unparseable grader verdict, dropping document",
					"url", m.URL, "error", err)
				return nil
			}
			keep[i] = verdict.Relevant
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graded := matches[:0]
	for i, m := range matches {
		if keep[i] {
			graded = append(graded, m)
		}
	}
	return graded, nil
}

func parseVerdict(raw string) (gradeVerdict, error) {
	text := stripCodeFences(raw)
	var v gradeVerdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return gradeVerdict{}, fmt.Errorf("parsing verdict: %w (raw: %q)", err, truncate(text, 200))
	}
	return v, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (with optional language tag).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		// Remove closing fence.
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// truncate shortens s to at most n bytes for logging.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
