// Package llm implements the verification stage: a last-resort call
// to an external LLM, constrained to a closed label vocabulary.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/cascadehq/cascadelog/internal/config"
)

// Completer is the capability interface for the external LLM service.
// A test double substitutes it without network access.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client calls an OpenAI-compatible chat endpoint through langchaingo.
// Groq exposes this protocol, so the default config talks to the same
// service the classifier originally shipped with.
type Client struct {
	llm         *openai.LLM
	temperature float64
	timeout     time.Duration
	limiter     *rate.Limiter
}

// NewClient builds a Client from configuration. A missing API key is a
// startup error: the process must not come up with a verification
// stage that can never succeed.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api key required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model required")
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: creating client: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		llm:         client,
		temperature: cfg.Temperature,
		timeout:     timeout,
		limiter:     limiter,
	}, nil
}

// Complete sends one prompt and returns the raw completion text. Each
// call is bounded by the configured timeout and passes through the
// client-side rate limiter.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("llm: rate limiter: %w", err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(callCtx, c.llm, prompt,
		llms.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("llm: completion: %w", err)
	}
	return out, nil
}
