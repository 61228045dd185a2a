package main

import (
	"fmt"

	"github.com/becomeliminal/astra/config"
	"github.com/becomeliminal/astra/core"
	"github.com/becomeliminal/astra/engine"
	"github.com/becomeliminal/astra/llm/anthropic"
	"github.com/becomeliminal/astra/llm/ollama"
	"github.com/becomeliminal/astra/llm/scripted"
	"github.com/becomeliminal/astra/logging"
	"github.com/becomeliminal/astra/memory"
	"github.com/becomeliminal/astra/memory/embedder/cache"
	"github.com/becomeliminal/astra/memory/embedder/mock"
	ollamaembed "github.com/becomeliminal/astra/memory/embedder/ollama"
	"github.com/becomeliminal/astra/memory/store/chromem"
	"github.com/becomeliminal/astra/personality"
)

// app holds the components built from a config.
type app struct {
	cfg         *config.Config
	engine      *engine.Engine
	memory      *memory.Manager
	personality *personality.Machine

	closers []func() error
}

func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// buildApp wires every component described by cfg.
func buildApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	completer, err := newCompleter(cfg.LLM)
	if err != nil {
		return nil, err
	}

	embedder, err := a.newEmbedder(cfg.Embedding)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := chromem.New(chromem.Config{
		Path:       cfg.Store.Path,
		Compress:   cfg.Store.Compress,
		Collection: cfg.Store.Collection,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	traits, err := a.newTraitStore(cfg.Personality)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.memory = memory.NewManager(store, embedder, completer, &memory.Config{
		Ranker: memory.RankerConfig{
			Threshold:     cfg.Retrieval.Threshold,
			MemoryLimit:   cfg.Retrieval.MemoryLimit,
			CandidatePool: cfg.Retrieval.CandidatePool,
			MaxTagMatches: cfg.Retrieval.MaxTagMatches,
			RecencyWeight: cfg.Retrieval.RecencyWeight,
		},
		SummarizeQuery: cfg.Retrieval.SummarizeQuery,
	})
	a.personality = personality.NewMachine(completer, traits)

	opts := []engine.Option{engine.WithIdentity(cfg.Persona.Identity)}
	if cfg.Persona.Preamble != "" {
		opts = append(opts, engine.WithPreamble(cfg.Persona.Preamble))
	}
	a.engine = engine.NewEngine(completer, a.memory, a.personality, opts...)

	logging.For("cli").WithField("llm", cfg.LLM.Provider).
		WithField("embedding", cfg.Embedding.Provider).
		WithField("store", cfg.Store.Path).
		Debug("components ready")
	return a, nil
}

func newCompleter(cfg config.LLMConfig) (core.Completer, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}), nil
	case config.ProviderScripted:
		return offlineCompleter(), nil
	default:
		c, err := ollama.New(ollama.Config{URL: cfg.URL, Model: cfg.Model, Timeout: cfg.Timeout})
		if err != nil {
			return nil, fmt.Errorf("create ollama completer: %w", err)
		}
		return c, nil
	}
}

// offlineCompleter answers every prompt without a model, so the memory
// pipeline can be exercised end to end without any service running.
func offlineCompleter() *scripted.Completer {
	return scripted.New("I'm running offline, but I'm listening.").
		On("Answer only 'Yes' or 'No'", "No").
		On("semantic tags", "[]").
		On("would grow stronger", "[]").
		On("would grow weaker", "[]")
}

func (a *app) newEmbedder(cfg config.EmbeddingConfig) (memory.Embedder, error) {
	var base memory.Embedder
	switch cfg.Provider {
	case config.ProviderMock:
		base = mock.New(cfg.Dimensions)
	default:
		e, err := ollamaembed.New(ollamaembed.Config{URL: cfg.URL, Model: cfg.Model})
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}
		base = e
	}

	if cfg.CacheSize <= 0 {
		return base, nil
	}
	cached, err := cache.New(base, cache.Config{MaxEntries: cfg.CacheSize})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		cached.Close()
		return nil
	})
	return cached, nil
}

func (a *app) newTraitStore(cfg config.PersonalityConfig) (personality.Store, error) {
	if cfg.Backend != config.BackendSQLite {
		return personality.NewJSONFileStore(cfg.Path), nil
	}
	s, err := personality.NewSQLiteStore(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open trait store: %w", err)
	}
	a.closers = append(a.closers, s.Close)
	return s, nil
}
