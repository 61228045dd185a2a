// Package ollama implements core.StreamingCompleter on top of an Ollama
// server's generate endpoint.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/sirupsen/logrus"

	"github.com/becomeliminal/astra/logging"
)

const (
	// DefaultURL is the local Ollama server.
	DefaultURL = "http://localhost:11434"

	// DefaultModel is the generation model used when none is configured.
	DefaultModel = "gpt-oss:20b"
)

// Config configures the completer.
type Config struct {
	// URL of the Ollama server. Default: DefaultURL.
	URL string

	// Model is the generation model. Default: DefaultModel.
	Model string

	// Timeout bounds a whole generation. 0 means no timeout.
	Timeout time.Duration
}

// Completer sends prompts to Ollama and concatenates the streamed fragments.
type Completer struct {
	client *api.Client
	model  string
}

// New creates a completer for the configured server.
func New(cfg Config) (*Completer, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.URL, err)
	}
	return &Completer{
		client: api.NewClient(base, &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &lineFilterTransport{base: http.DefaultTransport},
		}),
		model: cfg.Model,
	}, nil
}

// Complete returns the full response to prompt.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteStream(ctx, prompt, nil)
}

// CompleteStream generates a response, calling onFragment for every
// non-empty fragment as it arrives. Stream lines that are not valid JSON are
// skipped.
func (c *Completer) CompleteStream(ctx context.Context, prompt string, onFragment func(string)) (string, error) {
	stream := true
	var (
		sb        strings.Builder
		fragments int
	)
	start := time.Now()

	err := c.client.Generate(ctx, &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		if resp.Response == "" {
			return nil
		}
		fragments++
		sb.WriteString(resp.Response)
		if onFragment != nil {
			onFragment(resp.Response)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	logging.For("llm").WithFields(logrus.Fields{
		"model":     c.model,
		"fragments": fragments,
		"duration":  time.Since(start).String(),
	}).Debug("generation complete")
	return sb.String(), nil
}

// Model returns the generation model name.
func (c *Completer) Model() string {
	return c.model
}
