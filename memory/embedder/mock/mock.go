package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// MockEmbedder is a deterministic embedder for tests and offline runs.
// Text without an explicit vector gets a pseudo-random unit vector derived
// from its hash; Set pins exact (possibly unnormalized) vectors for texts a
// test cares about.
type MockEmbedder struct {
	dimensions int

	mu     sync.Mutex
	fixed  map[string][]float32
	calls  int
	failer error
}

// New creates a new mock embedder producing vectors of the given size.
// dims <= 0 defaults to 384.
func New(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = 384
	}
	return &MockEmbedder{
		dimensions: dims,
		fixed:      make(map[string][]float32),
	}
}

// Set pins the vector returned for text.
func (m *MockEmbedder) Set(text string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed[text] = vec
}

// FailWith makes every subsequent Embed call return err. nil clears it.
func (m *MockEmbedder) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failer = err
}

// Calls returns how many times Embed was invoked.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Embed returns the pinned vector for text, or a hash-derived unit vector.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failer != nil {
		return nil, m.failer
	}
	if vec, ok := m.fixed[text]; ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		// Simple LCG (Linear Congruential Generator)
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return unit(embedding), nil
}

// Dimensions returns the embedding size.
func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}

func unit(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
