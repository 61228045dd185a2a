// Package cache provides an embedding cache in front of any memory.Embedder.
package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/becomeliminal/astra/logging"
	"github.com/becomeliminal/astra/memory"
)

// Config sizes the cache.
type Config struct {
	// MaxEntries is the approximate number of embeddings kept.
	// Default: 10000
	MaxEntries int64
}

// CachedEmbedder memoizes embeddings by exact input text. A turn embeds the
// same user message for retrieval and, when saved, a derived exchange, so hits
// mostly come from repeated prompts and the REPL recall command.
type CachedEmbedder struct {
	next  memory.Embedder
	cache *ristretto.Cache
}

// New wraps next with a ristretto cache.
func New(next memory.Embedder, cfg Config) (*CachedEmbedder, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: c}, nil
}

// Embed returns a cached vector for text or computes and caches one.
// Callers receive their own copy.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		logging.For("embedder").Debug("embedding cache hit")
		return clone(v.([]float32)), nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, clone(vec), 1)
	return vec, nil
}

// Wait blocks until pending cache writes are visible.
func (c *CachedEmbedder) Wait() {
	c.cache.Wait()
}

// Close stops the cache's background goroutines.
func (c *CachedEmbedder) Close() {
	c.cache.Close()
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
