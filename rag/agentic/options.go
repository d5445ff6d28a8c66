package agentic

import (
	"log/slog"
	"time"

	"github.com/tomenglish23/healthcare-certs-rag/pkg/logging"
)

const (
	defaultMaxQueries       = 3
	defaultMaxEvidence      = 12
	defaultCriticChunkLimit = 5
	defaultTopK             = 5
)

// defaultTopKByIntent sets the per-query retrieval breadth for each intent.
// Broad intents sample wider; narrow factual intents stay focused.
var defaultTopKByIntent = map[Intent]int{
	IntentComparison:    8,
	IntentRequirements:  6,
	IntentCostDuration:  4,
	IntentProcess:       6,
	IntentStudyMaterial: 8,
	IntentRenewal:       4,
	IntentGeneral:       5,
}

// Config controls pipeline behaviour. Zero values are replaced with
// defaults by NewPipeline.
type Config struct {
	// EnableCritic toggles the self-critique stage. When false the
	// critique step is skipped and answers are assumed grounded.
	EnableCritic bool

	// MaxQueries caps the retrieval fan-out per invocation.
	MaxQueries int

	// MaxEvidence caps the deduplicated evidence set.
	MaxEvidence int

	// CriticChunkLimit bounds how many evidence chunks the critic
	// re-reads when spot-checking a draft.
	CriticChunkLimit int

	// TopKByIntent overrides the per-intent retrieval breadth.
	TopKByIntent map[Intent]int

	// CompletionTimeout bounds each language-model call.
	CompletionTimeout time.Duration

	// SearchTimeout bounds each vector search.
	SearchTimeout time.Duration

	Logger *slog.Logger
}

func defaultConfig() *Config {
	return &Config{
		EnableCritic:      true,
		MaxQueries:        defaultMaxQueries,
		MaxEvidence:       defaultMaxEvidence,
		CriticChunkLimit:  defaultCriticChunkLimit,
		TopKByIntent:      defaultTopKByIntent,
		CompletionTimeout: 60 * time.Second,
		SearchTimeout:     15 * time.Second,
		Logger:            logging.WithComponent("agentic"),
	}
}

func (c *Config) topK(intent Intent) int {
	if k, ok := c.TopKByIntent[intent]; ok && k > 0 {
		return k
	}
	return defaultTopK
}

// Option configures a Pipeline.
type Option func(*Config)

// WithCritic enables or disables the self-critique stage.
func WithCritic(enabled bool) Option {
	return func(c *Config) { c.EnableCritic = enabled }
}

// WithMaxQueries caps the number of search queries per question.
func WithMaxQueries(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxQueries = n
		}
	}
}

// WithMaxEvidence caps the deduplicated evidence set size.
func WithMaxEvidence(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxEvidence = n
		}
	}
}

// WithTopK overrides the retrieval breadth for one intent.
func WithTopK(intent Intent, k int) Option {
	return func(c *Config) {
		if k <= 0 {
			return
		}
		m := make(map[Intent]int, len(c.TopKByIntent)+1)
		for in, v := range c.TopKByIntent {
			m[in] = v
		}
		m[intent] = k
		c.TopKByIntent = m
	}
}

// WithCompletionTimeout bounds each language-model call.
func WithCompletionTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.CompletionTimeout = d
		}
	}
}

// WithSearchTimeout bounds each vector search.
func WithSearchTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.SearchTimeout = d
		}
	}
}

// WithLogger overrides the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}
