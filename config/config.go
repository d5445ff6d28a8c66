// Package config loads and validates the service configuration from a
// YAML file with environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// ExposeReasoning includes the per-stage reasoning trace in query
	// responses. Off by default; it is a debugging surface.
	ExposeReasoning bool `yaml:"expose_reasoning"`
}

// ProviderConfig selects and configures the completion backend.
type ProviderConfig struct {
	// Name is one of "openai", "claude", or "gemini".
	Name        string  `yaml:"name"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int64   `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	// Driver is "memory" or "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// CorpusConfig points at the markdown corpus and tunes chunking.
type CorpusConfig struct {
	Path          string `yaml:"path"`
	MaxTokens     int    `yaml:"max_tokens"`
	OverlapTokens int    `yaml:"overlap_tokens"`
}

// PipelineConfig tunes the answering pipeline.
type PipelineConfig struct {
	EnableCritic bool `yaml:"enable_critic"`
	MaxQueries   int  `yaml:"max_queries"`
	MaxEvidence  int  `yaml:"max_evidence"`
}

// Default returns a configuration with workable local defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Provider: ProviderConfig{
			Name:        "openai",
			Model:       "gpt-4o-mini",
			MaxTokens:   2048,
			Temperature: 0.1,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Corpus: CorpusConfig{
			Path:          "corpus.md",
			MaxTokens:     320,
			OverlapTokens: 48,
		},
		Pipeline: PipelineConfig{
			EnableCritic: true,
			MaxQueries:   3,
			MaxEvidence:  12,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills secrets from the environment when the file left them
// blank. Keys in the file win so tests can pin them explicitly.
func (c *Config) applyEnv() {
	if c.Provider.APIKey == "" {
		switch c.Provider.Name {
		case "claude":
			c.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini":
			c.Provider.APIKey = os.Getenv("GEMINI_API_KEY")
		default:
			c.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Store.DSN == "" {
		c.Store.DSN = os.Getenv("DATABASE_URL")
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	v := NewValidator()
	v.ValidatePort("server.port", c.Server.Port)
	v.ValidateOneOf("provider.name", c.Provider.Name, "openai", "claude", "gemini")
	v.RequireNonEmpty("provider.model", c.Provider.Model)
	v.RequireNonEmpty("embedding.model", c.Embedding.Model)
	v.RequirePositive("embedding.dimension", c.Embedding.Dimension)
	v.ValidateOneOf("store.driver", c.Store.Driver, "memory", "postgres")
	if c.Store.Driver == "postgres" {
		v.RequireNonEmpty("store.dsn", c.Store.DSN)
	}
	v.RequireNonEmpty("corpus.path", c.Corpus.Path)
	v.RequirePositive("corpus.max_tokens", c.Corpus.MaxTokens)
	v.ValidateRange("corpus.overlap_tokens", c.Corpus.OverlapTokens, 0, c.Corpus.MaxTokens-1)
	v.RequirePositive("pipeline.max_queries", c.Pipeline.MaxQueries)
	v.RequirePositive("pipeline.max_evidence", c.Pipeline.MaxEvidence)
	return v.Error()
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
