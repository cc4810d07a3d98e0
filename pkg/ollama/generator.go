package ollama

import (
	"context"

	"github.com/rotisserie/eris"
)

// Generator adapts Client to the single-call shape the batch pipeline
// consumes: prompt in, raw text out.
type Generator struct {
	Client      Client
	Model       string
	Temperature float64
	KeepAlive   string
	NumPredict  int
}

// Generate runs one classification generation. The context-token hint maps
// onto num_ctx so small diffs do not pay for a large window.
func (g *Generator) Generate(ctx context.Context, prompt string, contextTokens int) (string, error) {
	resp, err := g.Client.Generate(ctx, GenerateRequest{
		Model:     g.Model,
		Prompt:    prompt,
		KeepAlive: g.KeepAlive,
		Options: Options{
			Temperature: g.Temperature,
			NumCtx:      contextTokens,
			NumPredict:  g.NumPredict,
		},
	})
	if err != nil {
		return "", err
	}
	if !resp.Done {
		return resp.Response, eris.New("ollama: generation did not complete")
	}
	return resp.Response, nil
}
