package anthropic

import (
	"context"
)

// Generator adapts Client to the single-call shape the batch pipeline
// consumes. The system prompt is sent as a cached block; the context-token
// hint is ignored because the API sizes its own window.
type Generator struct {
	Client      Client
	Model       string
	System      string
	MaxTokens   int64
	Temperature float64
}

// Generate sends one classification request and returns the response text.
func (g *Generator) Generate(ctx context.Context, prompt string, _ int) (string, error) {
	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	temp := g.Temperature

	resp, err := g.Client.CreateMessage(ctx, MessageRequest{
		Model:       g.Model,
		MaxTokens:   maxTokens,
		System:      BuildCachedSystemBlocks(g.System),
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}

	resp.Usage.LogCost(g.Model, "classify")
	return resp.Text(), nil
}
