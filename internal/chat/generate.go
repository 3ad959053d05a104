package chat

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Generator produces a model response for a message sequence. The concrete
// implementation is GenkitGenerator; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, messages []*ai.Message) (*ai.ModelResponse, error)
}

// GenkitGenerator runs generation through the Genkit runtime with the
// artifact tools attached. The agentic loop (tool request, tool execution,
// follow-up generation) happens inside genkit.Generate up to maxTurns.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string
	toolRefs  []ai.ToolRef
	maxTurns  int
}

// NewGenkitGenerator creates a generator bound to the given model and tools.
// modelName is provider-qualified, e.g. "googleai/gemini-2.5-flash".
func NewGenkitGenerator(g *genkit.Genkit, modelName string, tools []ai.Tool, maxTurns int) (*GenkitGenerator, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if maxTurns <= 0 {
		maxTurns = 5
	}

	toolRefs := make([]ai.ToolRef, len(tools))
	for i, t := range tools {
		toolRefs[i] = t
	}

	return &GenkitGenerator{
		g:         g,
		modelName: modelName,
		toolRefs:  toolRefs,
		maxTurns:  maxTurns,
	}, nil
}

// Generate implements Generator.
func (gg *GenkitGenerator) Generate(ctx context.Context, messages []*ai.Message) (*ai.ModelResponse, error) {
	opts := []ai.GenerateOption{
		ai.WithMessages(messages...),
		ai.WithMaxTurns(gg.maxTurns),
	}
	if gg.modelName != "" {
		opts = append(opts, ai.WithModelName(gg.modelName))
	}
	if len(gg.toolRefs) > 0 {
		opts = append(opts, ai.WithTools(gg.toolRefs...))
	}

	resp, err := genkit.Generate(ctx, gg.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}
	return resp, nil
}
