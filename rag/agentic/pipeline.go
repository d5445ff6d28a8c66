package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ragerrors "github.com/tomenglish23/healthcare-certs-rag/errors"
	"github.com/tomenglish23/healthcare-certs-rag/pkg/telemetry"
	"github.com/tomenglish23/healthcare-certs-rag/provider"
	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

// Searcher is the evidence store view the pipeline retrieves from.
// *index.Index satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filter *vector.Filter) ([]Chunk, error)
}

// Vocabulary supplies the known taxonomy terms injected into the
// analysis prompt. *catalog.Catalog satisfies it.
type Vocabulary interface {
	Categories() []string
	SubCategories() []string
}

// Pipeline answers questions through five stages executed in a fixed
// order: understand, retrieve, generate, critique, synthesize. Stages
// never fail the pipeline; each absorbs its own errors into a fallback
// and records what happened in the reasoning trace. All state lives in
// a per-invocation State, so a Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg          *Config
	understander *understander
	retriever    *retriever
	generator    *generator
	critic       *critic
	synthesizer  *synthesizer
	tracer       trace.Tracer
	logger       *slog.Logger
}

// NewPipeline wires the five stages around one completion client, an
// evidence store, and the taxonomy vocabulary.
func NewPipeline(llm provider.Completer, store Searcher, vocab Vocabulary, opts ...Option) (*Pipeline, error) {
	if llm == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("evidence store is required")
	}
	if vocab == nil {
		return nil, fmt.Errorf("vocabulary is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	p := &Pipeline{
		cfg:          cfg,
		understander: &understander{llm: llm, vocab: vocab, cfg: cfg},
		retriever:    &retriever{store: store, cfg: cfg},
		generator:    &generator{llm: llm, cfg: cfg},
		critic:       &critic{llm: llm, cfg: cfg},
		synthesizer:  &synthesizer{cfg: cfg},
		tracer:       otel.Tracer("rag/agentic"),
		logger:       cfg.Logger,
	}
	p.logger.Info("pipeline initialised",
		"max_queries", cfg.MaxQueries,
		"max_evidence", cfg.MaxEvidence,
		"critic_enabled", cfg.EnableCritic,
	)
	return p, nil
}

// Answer runs the full pipeline for one question. Filters constrain
// retrieval by metadata (keys "category" and "sub_category") and take
// precedence over entities extracted from the question. A nil receiver
// reports ErrNotReady so callers can hold the pipeline unset until the
// corpus is indexed.
func (p *Pipeline) Answer(ctx context.Context, question string, filters map[string]string) (*Result, error) {
	if p == nil {
		return nil, ragerrors.ErrNotReady
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question cannot be empty", ragerrors.ErrInvalidInput)
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.answer",
		trace.WithAttributes(attribute.Int("question.length", len(question))))
	defer telemetry.End(span, nil)

	p.logger.Info("answering question", "question", trimForLog(question, 120))

	st := &State{Question: question, Filters: filters}

	stages := []struct {
		name string
		run  func(context.Context, *State)
	}{
		{"understand", p.understander.run},
		{"retrieve", p.retriever.run},
		{"generate", p.generator.run},
		{"critique", p.critic.run},
		{"synthesize", p.synthesizer.run},
	}
	for _, stage := range stages {
		stageCtx, stageSpan := p.tracer.Start(ctx, "pipeline."+stage.name)
		stage.run(stageCtx, st)
		telemetry.End(stageSpan, nil)
	}

	span.SetAttributes(
		attribute.String("intent", string(st.Intent)),
		attribute.Int("evidence.count", len(st.Evidence)),
		attribute.Float64("confidence", st.Confidence),
	)
	p.logger.Info("question answered",
		"intent", st.Intent,
		"evidence_count", len(st.Evidence),
		"confidence", st.Confidence,
		"grounded", st.IsGrounded,
	)

	return &Result{
		Answer:      st.FinalAnswer,
		Confidence:  st.Confidence,
		Sources:     st.SourcesUsed,
		Intent:      st.Intent,
		Entities:    st.Entities,
		Reasoning:   st.Trace,
		IsGrounded:  st.IsGrounded,
		MissingInfo: st.MissingInfo,
	}, nil
}

func trimForLog(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len([]rune(text)) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}
