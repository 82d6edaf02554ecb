package chat

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// CompletionRequest is a single-turn completion call. System may be empty
// for prompts that carry their own framing.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Generator produces a completion for a request. Implementations must be
// safe for concurrent use; the grader fans out across documents.
type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// GenkitGenerator backs Generator with a Genkit model lookup by name.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenkitGenerator returns a generator bound to the named model,
// e.g. "openai/gpt-3.5-turbo".
func NewGenkitGenerator(g *genkit.Genkit, modelName string) (*GenkitGenerator, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is nil")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is empty")
	}
	return &GenkitGenerator{g: g, modelName: modelName}, nil
}

func (gg *GenkitGenerator) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(gg.modelName),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(req.User))),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}

	resp, err := genkit.Generate(ctx, gg.g, opts...)
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return resp.Text(), nil
}
