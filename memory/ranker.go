package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/becomeliminal/astra/core"
	"github.com/becomeliminal/astra/logging"
	"github.com/becomeliminal/astra/oracle"
	"github.com/sirupsen/logrus"
)

// RankerConfig holds HybridRanker tuning.
type RankerConfig struct {
	// Threshold is the minimum similarity for the semantic list [0.0-1.0].
	// Default: 0.55
	Threshold float64

	// MemoryLimit caps the semantic list after sorting. A negative value
	// disables the cap.
	// Default: 5
	MemoryLimit int

	// CandidatePool is the number of nearest neighbours requested from the store.
	// Default: 50
	CandidatePool int

	// MaxTagMatches caps the tag-matched list. 0 means unlimited.
	// Default: 0
	MaxTagMatches int

	// RecencyWeight blends commit recency into the semantic ordering
	// [0.0-1.0]. The sort key is (1-w)*similarity + w*recency, where recency
	// is min-max scaled over the candidates that passed the threshold. 0 sorts
	// by similarity alone. The threshold always applies to raw similarity.
	// Default: 0
	RecencyWeight float64
}

// DefaultRankerConfig returns the default ranking knobs.
var DefaultRankerConfig = RankerConfig{
	Threshold:     0.55,
	MemoryLimit:   5,
	CandidatePool: 50,
	MaxTagMatches: 0,
}

// HybridRanker turns a raw nearest-neighbour result into an ordered,
// deduplicated list of relevant memory documents. It combines semantic
// similarity with overlap between the query's tags and each memory's tags.
type HybridRanker struct {
	store    Store
	embedder Embedder
	oracle   core.Completer
	parser   *oracle.Parser
	config   RankerConfig
}

// NewHybridRanker creates a ranker. A nil config uses DefaultRankerConfig.
func NewHybridRanker(store Store, embedder Embedder, completer core.Completer, config *RankerConfig) *HybridRanker {
	cfg := DefaultRankerConfig
	if config != nil {
		cfg = *config
	}
	return &HybridRanker{
		store:    store,
		embedder: embedder,
		oracle:   completer,
		parser:   oracle.NewParser(),
		config:   cfg,
	}
}

// Config returns the ranker's configuration.
func (r *HybridRanker) Config() RankerConfig {
	return r.config
}

// Rank returns the memory documents relevant to message, semantic matches
// first, then tag matches, without duplicates. It has no side effects.
func (r *HybridRanker) Rank(ctx context.Context, message string) ([]string, error) {
	log := logging.For("memory")

	raw, err := r.embedder.Embed(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrEmbedding, err)
	}
	queryVec := Normalize(raw)

	tags, err := r.Tags(ctx, message)
	if err != nil {
		return nil, err
	}

	candidates, err := r.store.Query(ctx, queryVec, r.config.CandidatePool)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrStore, err)
	}

	docs := RankCandidates(candidates, tags, r.config)
	log.WithFields(logrus.Fields{
		"query":      logging.Truncate(message, 50),
		"tags":       tags,
		"candidates": len(candidates),
		"ranked":     len(docs),
	}).Debug("ranked memories")
	return docs, nil
}

// Tags asks the oracle for semantic tags describing text.
func (r *HybridRanker) Tags(ctx context.Context, text string) ([]string, error) {
	resp, err := r.oracle.Complete(ctx, oracle.TagsPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("%w: tag generation: %w", core.ErrOracle, err)
	}
	tags, structured := r.parser.ParseList(resp, 0)
	if !structured {
		logging.For("memory").WithField("tags", tags).Warn("tag response was not a JSON array, used quoted scan")
	}
	return tags, nil
}

type scoredDocument struct {
	document   string
	similarity float64
	recency    float64
	score      float64
}

// RankCandidates applies the hybrid ranking rules to store results:
//
//   - similarity is 1 - distance
//   - any tag overlap puts the candidate on the tag-matched list regardless
//     of similarity
//   - candidates below the threshold are dropped from the semantic list
//   - the semantic list is stably sorted by similarity, descending, and
//     truncated to MemoryLimit; a RecencyWeight above 0 blends the commit
//     recency into the sort key
//   - the result is the semantic list followed by the tag-matched list,
//     deduplicated keeping first occurrences
func RankCandidates(candidates []Candidate, queryTags []string, config RankerConfig) []string {
	wanted := tagSet(queryTags)

	var semantic []scoredDocument
	var tagged []string
	for _, c := range candidates {
		sim := 1 - c.Distance

		if len(wanted) > 0 && overlaps(wanted, ParseTags(c.Metadata[metaTags])) {
			if config.MaxTagMatches <= 0 || len(tagged) < config.MaxTagMatches {
				tagged = append(tagged, c.Document)
			}
		}

		if math.IsNaN(sim) || sim < config.Threshold {
			continue
		}
		semantic = append(semantic, scoredDocument{
			document:   c.Document,
			similarity: sim,
			recency:    DecodeMetadata(c.Metadata).Recency,
		})
	}

	blendRecency(semantic, config.RecencyWeight)
	sort.SliceStable(semantic, func(i, j int) bool {
		return semantic[i].score > semantic[j].score
	})
	if config.MemoryLimit >= 0 && len(semantic) > config.MemoryLimit {
		semantic = semantic[:config.MemoryLimit]
	}

	out := make([]string, 0, len(semantic)+len(tagged))
	seen := make(map[string]struct{}, cap(out))
	add := func(doc string) {
		if _, ok := seen[doc]; ok {
			return
		}
		seen[doc] = struct{}{}
		out = append(out, doc)
	}
	for _, s := range semantic {
		add(s.document)
	}
	for _, doc := range tagged {
		add(doc)
	}
	return out
}

// blendRecency sets each document's sort key. Weights outside [0, 1] are
// clamped.
func blendRecency(docs []scoredDocument, weight float64) {
	if math.IsNaN(weight) || weight <= 0 {
		for i := range docs {
			docs[i].score = docs[i].similarity
		}
		return
	}
	weight = math.Min(weight, 1)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, d := range docs {
		lo = math.Min(lo, d.recency)
		hi = math.Max(hi, d.recency)
	}
	for i, d := range docs {
		var rec float64
		if hi > lo {
			rec = (d.recency - lo) / (hi - lo)
		}
		docs[i].score = (1-weight)*d.similarity + weight*rec
	}
}

// Tags are compared trimmed and case-insensitively.
func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func overlaps(set map[string]struct{}, tags []string) bool {
	for _, t := range tags {
		if _, ok := set[strings.ToLower(strings.TrimSpace(t))]; ok {
			return true
		}
	}
	return false
}
