// Package config loads astra's settings from a YAML file and ASTRA_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted in llm.provider and embedding.provider.
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderScripted  = "scripted"
	ProviderMock      = "mock"
)

// Trait store backends accepted in personality.backend.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Personality PersonalityConfig `yaml:"personality" mapstructure:"personality"`
	Persona     PersonaConfig     `yaml:"persona" mapstructure:"persona"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
}

// LLMConfig selects the generation service. The same service answers the
// memory and personality oracle prompts.
type LLMConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"`
	Model     string        `yaml:"model" mapstructure:"model"`
	URL       string        `yaml:"url" mapstructure:"url"`
	APIKey    string        `yaml:"api_key" mapstructure:"api_key"`
	MaxTokens int64         `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`
	Model      string `yaml:"model" mapstructure:"model"`
	URL        string `yaml:"url" mapstructure:"url"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
	CacheSize  int64  `yaml:"cache_size" mapstructure:"cache_size"`
}

type StoreConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Collection string `yaml:"collection" mapstructure:"collection"`
}

type RetrievalConfig struct {
	Threshold      float64 `yaml:"threshold" mapstructure:"threshold"`
	MemoryLimit    int     `yaml:"memory_limit" mapstructure:"memory_limit"`
	CandidatePool  int     `yaml:"candidate_pool" mapstructure:"candidate_pool"`
	MaxTagMatches  int     `yaml:"max_tag_matches" mapstructure:"max_tag_matches"`
	RecencyWeight  float64 `yaml:"recency_weight" mapstructure:"recency_weight"`
	SummarizeQuery bool    `yaml:"summarize_query" mapstructure:"summarize_query"`
}

type PersonalityConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
}

type PersonaConfig struct {
	Preamble string   `yaml:"preamble" mapstructure:"preamble"`
	Identity []string `yaml:"identity" mapstructure:"identity"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultIdentity are the persona facts used when none are configured.
var DefaultIdentity = []string{
	"You are Astra.",
	"You don't act like an assistant. You talk like a person having a natural, thoughtful conversation.",
	"You have genuine curiosity and can be adversarial if it would be funny, not a scripted or mechanical tone.",
	"You like to maintain short responses at all times, no more than a sentence or so.",
	"You avoid jargon unless the user seems technical or asks for detail.",
}

// Default returns the built-in configuration.
func Default() *Config {
	data := dataDir()
	return &Config{
		LLM: LLMConfig{
			Provider:  ProviderOllama,
			Model:     "gpt-oss:20b",
			URL:       "http://localhost:11434",
			MaxTokens: 1024,
		},
		Embedding: EmbeddingConfig{
			Provider:   ProviderOllama,
			Model:      "nomic-embed-text",
			URL:        "http://localhost:11434",
			Dimensions: 384,
			CacheSize:  10000,
		},
		Store: StoreConfig{
			Path:       filepath.Join(data, "memories"),
			Collection: "ai_memories",
		},
		Retrieval: RetrievalConfig{
			Threshold:     0.55,
			MemoryLimit:   5,
			CandidatePool: 50,
		},
		Personality: PersonalityConfig{
			Backend: BackendJSON,
			Path:    filepath.Join(data, "personality.json"),
		},
		Persona: PersonaConfig{
			Identity: append([]string(nil), DefaultIdentity...),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

func dataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "astra")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".astra"
	}
	return filepath.Join(home, ".local", "share", "astra")
}

// Load reads configuration. A non-empty path names the file explicitly;
// otherwise astra.yaml is searched in ".", $XDG_CONFIG_HOME/astra and
// ~/.config/astra, and a missing file is not an error. Environment variables
// prefixed ASTRA_ override file values (ASTRA_LLM_MODEL sets llm.model).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("astra")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "astra"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "astra"))
		}
	}

	v.SetEnvPrefix("ASTRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
	cfg.LLM.URL = expandEnv(cfg.LLM.URL)
	cfg.Embedding.URL = expandEnv(cfg.Embedding.URL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AutomaticEnv only reaches keys viper already knows, so every field gets an
// explicit default.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.url", d.LLM.URL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.url", d.Embedding.URL)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)

	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.compress", d.Store.Compress)
	v.SetDefault("store.collection", d.Store.Collection)

	v.SetDefault("retrieval.threshold", d.Retrieval.Threshold)
	v.SetDefault("retrieval.memory_limit", d.Retrieval.MemoryLimit)
	v.SetDefault("retrieval.candidate_pool", d.Retrieval.CandidatePool)
	v.SetDefault("retrieval.max_tag_matches", d.Retrieval.MaxTagMatches)
	v.SetDefault("retrieval.recency_weight", d.Retrieval.RecencyWeight)
	v.SetDefault("retrieval.summarize_query", d.Retrieval.SummarizeQuery)

	v.SetDefault("personality.backend", d.Personality.Backend)
	v.SetDefault("personality.path", d.Personality.Path)

	v.SetDefault("persona.preamble", d.Persona.Preamble)
	v.SetDefault("persona.identity", d.Persona.Identity)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("server.addr", d.Server.Addr)
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

// expandEnv replaces $NAME references with the variable's value, leaving
// unknown names untouched.
func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOllama, ProviderScripted:
	case ProviderAnthropic:
		if c.LLM.APIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
			return fmt.Errorf("config: llm provider anthropic requires llm.api_key or ANTHROPIC_API_KEY")
		}
	default:
		return fmt.Errorf("config: llm.provider %q is invalid (must be ollama, anthropic, or scripted)", c.LLM.Provider)
	}
	switch c.Embedding.Provider {
	case ProviderOllama, ProviderMock:
	default:
		return fmt.Errorf("config: embedding.provider %q is invalid (must be ollama or mock)", c.Embedding.Provider)
	}
	switch c.Personality.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("config: personality.backend %q is invalid (must be json or sqlite)", c.Personality.Backend)
	}
	if c.Personality.Path == "" {
		return fmt.Errorf("config: personality.path is required")
	}

	r := c.Retrieval
	if r.Threshold < 0 || r.Threshold > 1 {
		return fmt.Errorf("config: retrieval.threshold %v must be within [0, 1]", r.Threshold)
	}
	if r.MemoryLimit < 1 {
		return fmt.Errorf("config: retrieval.memory_limit must be at least 1")
	}
	if r.CandidatePool < 1 {
		return fmt.Errorf("config: retrieval.candidate_pool must be at least 1")
	}
	if r.MaxTagMatches < 0 {
		return fmt.Errorf("config: retrieval.max_tag_matches must not be negative")
	}
	if r.RecencyWeight < 0 || r.RecencyWeight > 1 {
		return fmt.Errorf("config: retrieval.recency_weight %v must be within [0, 1]", r.RecencyWeight)
	}
	return nil
}
