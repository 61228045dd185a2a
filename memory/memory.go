package memory

import (
	"context"
	"errors"
)

var (
	// ErrEmbedding marks a failure of the embedding service, or an embedding
	// that cannot be normalized.
	ErrEmbedding = errors.New("embedding unavailable")

	// ErrStore marks a failure of the vector store.
	ErrStore = errors.New("memory store unavailable")
)

// Candidate is one nearest-neighbour result returned by a Store.
type Candidate struct {
	ID       string
	Document string

	// Distance is the cosine distance to the query vector (1 - cosine similarity).
	Distance float64

	// Metadata is the raw string-typed metadata as stored. Use DecodeMetadata
	// to read it.
	Metadata map[string]string
}

// Store is the vector storage backend interface.
// Implementations: ChromemStore.
type Store interface {
	// Upsert saves a memory under its ID. Memory must carry a unit-norm
	// embedding.
	Upsert(ctx context.Context, mem Memory) error

	// Query returns up to topK candidates nearest to embedding, closest first.
	// An empty store yields no candidates and no error.
	Query(ctx context.Context, embedding []float32, topK int) ([]Candidate, error)

	// Close releases resources.
	Close() error
}

// Embedder converts text to embedding vectors.
// Implementations: MockEmbedder (testing), OllamaEmbedder, CachedEmbedder.
//
// Vectors returned by an Embedder are not assumed to be normalized; callers
// pass them through Normalize.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
