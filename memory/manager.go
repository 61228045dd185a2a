package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/becomeliminal/astra/core"
	"github.com/becomeliminal/astra/logging"
	"github.com/becomeliminal/astra/oracle"
	"github.com/sirupsen/logrus"
)

// Manager is the memory component the engine talks to. It maintains the
// session working set through Retrieve and implements the persistence
// decision policy through ShouldSave, ShouldPersist and Commit.
//
// Every call is synchronous and single-attempt; nothing is retried.
type Manager struct {
	store    Store
	embedder Embedder
	oracle   core.Completer
	ranker   *HybridRanker
	config   *Config
}

// NewManager creates a new Manager. A nil config uses DefaultConfig.
func NewManager(store Store, embedder Embedder, completer core.Completer, config *Config) *Manager {
	if config == nil {
		config = DefaultConfig
	}
	return &Manager{
		store:    store,
		embedder: embedder,
		oracle:   completer,
		ranker:   NewHybridRanker(store, embedder, completer, &config.Ranker),
		config:   config,
	}
}

// Ranker returns the manager's ranker.
func (m *Manager) Ranker() *HybridRanker {
	return m.ranker
}

// Retrieve ranks memories for message and merges them into the session's
// active set. It returns how many documents the ranker returned for this call,
// including ones already in the set.
func (m *Manager) Retrieve(ctx context.Context, active *ActiveSet, message string) (int, error) {
	query := message
	if m.config.SummarizeQuery {
		summary, err := m.Summarize(ctx, message)
		if err != nil {
			return 0, err
		}
		if summary != "" {
			query = summary
		}
	}

	docs, err := m.ranker.Rank(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("rank memories: %w", err)
	}

	added := 0
	for _, doc := range docs {
		if active.Add(doc) {
			added++
		}
	}

	logging.For("memory").WithFields(logrus.Fields{
		"retrieved": len(docs),
		"new":       added,
		"active":    active.Len(),
	}).Info("retrieved memories")
	return len(docs), nil
}

// Summarize asks the oracle for a one-sentence summary of text.
func (m *Manager) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := m.oracle.Complete(ctx, oracle.SummaryPrompt(text))
	if err != nil {
		return "", fmt.Errorf("%w: summarize: %w", core.ErrOracle, err)
	}
	return strings.TrimSpace(resp), nil
}

// ShouldSave asks the oracle whether the exchange is worth remembering.
// Only an answer starting with "y" counts as yes.
func (m *Manager) ShouldSave(ctx context.Context, exchange core.Exchange) (bool, error) {
	resp, err := m.oracle.Complete(ctx, oracle.SaveDecisionPrompt(exchange.String()))
	if err != nil {
		return false, fmt.Errorf("%w: save decision: %w", core.ErrOracle, err)
	}
	yes := oracle.Affirmative(resp)
	logging.For("memory").WithFields(logrus.Fields{
		"answer": logging.Truncate(strings.TrimSpace(resp), 40),
		"save":   yes,
	}).Debug("save decision")
	return yes, nil
}

// ShouldPersist combines the oracle's decision with the retrieval count of
// the same turn. A turn that surfaced no memory at all is always persisted.
func ShouldPersist(oracleSaidYes bool, retrieved int) bool {
	return oracleSaidYes || retrieved == 0
}

// Commit summarizes the exchange, tags it, embeds the raw exchange text and
// writes a new Memory. If any step fails nothing is written.
func (m *Manager) Commit(ctx context.Context, exchange core.Exchange) (*Memory, error) {
	raw := exchange.String()

	summary, err := m.Summarize(ctx, raw)
	if err != nil {
		return nil, err
	}
	if summary == "" {
		summary = raw
	}

	tags, err := m.ranker.Tags(ctx, raw)
	if err != nil {
		return nil, err
	}

	vec, err := m.embedder.Embed(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: embed exchange: %w", ErrEmbedding, err)
	}
	unit := Normalize(vec)
	if !IsUnit(unit) {
		return nil, fmt.Errorf("%w: exchange embedding has zero norm", ErrEmbedding)
	}

	mem := NewMemory(summary, unit, tags, m.now())
	if err := m.store.Upsert(ctx, mem); err != nil {
		return nil, fmt.Errorf("%w: upsert %s: %w", ErrStore, mem.ID, err)
	}

	logging.For("memory").WithFields(logrus.Fields{
		"id":       mem.ID,
		"tags":     tags,
		"document": logging.Truncate(summary, 80),
	}).Info("committed memory")
	return &mem, nil
}

func (m *Manager) now() time.Time {
	if m.config.Now != nil {
		return m.config.Now()
	}
	return time.Now()
}

// Config holds Manager configuration.
type Config struct {
	// Ranker tunes the hybrid ranking step.
	Ranker RankerConfig

	// SummarizeQuery ranks on an oracle summary of the user message instead
	// of the message itself.
	// Default: false
	SummarizeQuery bool

	// Now overrides the commit clock. Default: time.Now.
	Now func() time.Time
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	Ranker:         DefaultRankerConfig,
	SummarizeQuery: false,
}
