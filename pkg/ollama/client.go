// Package ollama is a minimal client for the Ollama generate API. Requests
// are non-streaming; the per-request timeout scales with prompt size because
// local generation over a large diff can legitimately take minutes.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/refstudy/purity-cli/internal/resilience"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "deepseek-r1:8b"

	defaultKeepAlive  = "10m"
	defaultNumPredict = 800
	defaultAttempts   = 3
)

// Client performs generations against a local Ollama server.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest is the request body for POST /api/generate.
type GenerateRequest struct {
	Model     string  `json:"model"`
	Prompt    string  `json:"prompt"`
	Stream    bool    `json:"stream"`
	KeepAlive string  `json:"keep_alive,omitempty"`
	Options   Options `json:"options"`
}

// Options are the generation parameters Ollama accepts inline.
type Options struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// GenerateResponse is the non-streaming response from POST /api/generate.
type GenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	TotalDuration   int64  `json:"total_duration"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default server URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
	}
}

// WithAttempts overrides the transient-retry attempt count.
func WithAttempts(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithHTTPClient overrides the default http.Client. The client must not set
// its own Timeout; per-request deadlines are derived from prompt size.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL  string
	model    string
	attempts int
	http     *http.Client
}

// NewClient creates an Ollama client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:  defaultBaseURL,
		model:    defaultModel,
		attempts: defaultAttempts,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate runs one non-streaming generation. Transient failures (connection
// drops, timeouts, 5xx) are retried up to the attempt budget with no added
// delay; a generation that timed out already consumed minutes, so backoff
// buys nothing.
func (c *httpClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.KeepAlive == "" {
		req.KeepAlive = defaultKeepAlive
	}
	if req.Options.NumPredict == 0 {
		req.Options.NumPredict = defaultNumPredict
	}
	req.Stream = false

	timeout := timeoutFor(len(req.Prompt))

	return resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts: c.attempts,
		ShouldRetry: resilience.IsTransient,
		OnRetry: func(attempt int, err error) {
			zap.L().Warn("ollama: retrying generation",
				zap.Int("attempt", attempt),
				zap.Duration("timeout", timeout),
				zap.Error(err),
			)
		},
	}, func(ctx context.Context) (*GenerateResponse, error) {
		return c.generateOnce(ctx, req, timeout)
	})
}

func (c *httpClient) generateOnce(ctx context.Context, req GenerateRequest, timeout time.Duration) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "ollama: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "ollama: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "ollama: send request"), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "ollama: read response"), resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("ollama: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result GenerateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "ollama: unmarshal response")
	}
	return &result, nil
}

// timeoutFor buckets the request deadline by prompt size. The steps mirror
// observed local generation times for this workload.
func timeoutFor(promptChars int) time.Duration {
	switch {
	case promptChars <= 30000:
		return 180 * time.Second
	case promptChars <= 50000:
		return 300 * time.Second
	case promptChars <= 80000:
		return 420 * time.Second
	default:
		return 600 * time.Second
	}
}
