package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/becomeliminal/astra/logging"
)

const (
	// DefaultURL is the local Ollama server.
	DefaultURL = "http://localhost:11434"

	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "nomic-embed-text"
)

// OllamaEmbedder generates embeddings with an Ollama embedding model.
type OllamaEmbedder struct {
	client *api.Client
	model  string
}

// Config configures the embedder.
type Config struct {
	// URL of the Ollama server. Default: DefaultURL.
	URL string

	// Model is the embedding model name. Default: DefaultModel.
	Model string

	// Timeout bounds each request. Default: 60s.
	Timeout time.Duration
}

// New creates an embedder talking to the configured Ollama server.
func New(cfg Config) (*OllamaEmbedder, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.URL, err)
	}

	return &OllamaEmbedder{
		client: api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
	}, nil
}

// Embed returns the raw embedding of text. The vector is not normalized.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama embed: no embeddings returned")
	}

	logging.For("embedder").WithField("dims", len(resp.Embeddings[0])).Debug("embedded text")
	return resp.Embeddings[0], nil
}

// Model returns the embedding model name.
func (e *OllamaEmbedder) Model() string {
	return e.model
}
