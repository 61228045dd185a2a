package chromem

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/sirupsen/logrus"

	"github.com/becomeliminal/astra/logging"
	"github.com/becomeliminal/astra/memory"
)

// DefaultCollection is the collection memories live in.
const DefaultCollection = "ai_memories"

// Config configures the chromem store.
type Config struct {
	// Path is the directory of a persistent database. Empty keeps everything
	// in process memory.
	Path string

	// Compress gzips the persisted documents.
	Compress bool

	// Collection names the collection. Default: DefaultCollection.
	Collection string
}

// ChromemStore wraps chromem-go for vector storage.
// chromem-go is a pure Go, embedded vector database using cosine similarity.
type ChromemStore struct {
	db  *chromem.DB
	col *chromem.Collection
	mu  sync.Mutex
}

// New opens (or creates) the store described by cfg.
func New(cfg Config) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open persistent db %s: %w", cfg.Path, err)
		}
	}

	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}

	// No embedding func: every document and query carries its own vector.
	col, err := db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %s: %w", name, err)
	}

	logging.For("chromem").WithFields(logrus.Fields{
		"collection": name,
		"persistent": cfg.Path != "",
		"documents":  col.Count(),
	}).Debug("opened store")

	return &ChromemStore{db: db, col: col}, nil
}

// Upsert saves a memory with its embedding. Adding a document with an
// existing ID replaces it.
func (s *ChromemStore) Upsert(ctx context.Context, mem memory.Memory) error {
	if mem.ID == "" {
		return fmt.Errorf("memory id is required")
	}
	if len(mem.Embedding) == 0 {
		return fmt.Errorf("memory %s has no embedding", mem.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logging.For("chromem").WithField("id", mem.ID).Debug("storing memory")

	doc := chromem.Document{
		ID:        mem.ID,
		Content:   mem.Document,
		Embedding: mem.Embedding,
		Metadata:  mem.Metadata.Encode(),
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query retrieves the topK memories nearest to embedding.
// chromem-go rejects nResults larger than the collection, so the request is
// clamped to the collection size.
func (s *ChromemStore) Query(ctx context.Context, embedding []float32, topK int) ([]memory.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.col.Count()
	if n == 0 || topK <= 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}

	results, err := s.col.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	candidates := make([]memory.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, memory.Candidate{
			ID:       r.ID,
			Document: r.Content,
			Distance: 1 - float64(r.Similarity),
			Metadata: r.Metadata,
		})
	}

	logging.For("chromem").WithFields(logrus.Fields{
		"requested": topK,
		"returned":  len(candidates),
	}).Debug("queried collection")
	return candidates, nil
}

// Count returns the number of stored memories.
func (s *ChromemStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.col.Count()
}

// Close releases resources. A persistent database writes each document on
// insert, so there is nothing to flush.
func (s *ChromemStore) Close() error {
	return nil
}
