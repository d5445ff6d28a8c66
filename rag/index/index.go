// Package index bundles an embedder and a vector store into the semantic
// evidence index the answer pipeline searches.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/tomenglish23/healthcare-certs-rag/pkg/logging"
	"github.com/tomenglish23/healthcare-certs-rag/rag/evidence"
	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

// Index owns the chunk embeddings and exposes text-level similarity search
// with optional exact-match metadata filtering. Safe for concurrent use as
// long as the underlying store and embedder are.
type Index struct {
	store     vector.VectorStore
	embedder  vector.Embedder
	normalize bool
	counter   atomic.Int64
	logger    *slog.Logger
}

// Option customises the index.
type Option func(*Index)

// WithNormalize enforces L2-normalisation before vectors are stored or searched.
func WithNormalize(enabled bool) Option {
	return func(ix *Index) {
		ix.normalize = enabled
	}
}

// New creates an evidence index on top of the provided store and embedder.
func New(store vector.VectorStore, embedder vector.Embedder, opts ...Option) (*Index, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	ix := &Index{
		store:    store,
		embedder: embedder,
		logger:   logging.WithComponent("evidence_index"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// IndexChunks embeds and stores the provided chunks.
func (ix *Index) IndexChunks(ctx context.Context, chunks ...evidence.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			return fmt.Errorf("chunk %d has empty text", i)
		}
		texts[i] = chunk.Text
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(vectors))
	}

	for i, chunk := range chunks {
		vec := vectors[i]
		if ix.normalize {
			vec = vector.Normalize(vec)
		}
		emb := &vector.Embedding{
			ID:       fmt.Sprintf("chunk_%d", ix.counter.Add(1)),
			Vector:   vec,
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
		}
		if err := ix.store.AddEmbedding(ctx, emb); err != nil {
			return fmt.Errorf("store chunk %s: %w", emb.ID, err)
		}
	}
	ix.logger.Info("chunks indexed", "count", len(chunks))
	return nil
}

// Search embeds the query and returns the k most similar chunks, restricted
// to the filter when one is supplied. Empty or whitespace queries are valid
// and behave as a broad sample of the corpus.
func (ix *Index) Search(ctx context.Context, query string, k int, filter *vector.Filter) ([]evidence.Chunk, error) {
	if strings.TrimSpace(query) == "" {
		query = " "
	}
	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if ix.normalize {
		queryVec = vector.Normalize(queryVec)
	}

	results, err := ix.store.Search(ctx, queryVec, k, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]evidence.Chunk, 0, len(results))
	for _, emb := range results {
		chunks = append(chunks, evidence.Chunk{
			Text:     emb.Text,
			Metadata: emb.Metadata,
		})
	}
	return chunks, nil
}

// Count returns the number of indexed chunks.
func (ix *Index) Count(ctx context.Context) (int, error) {
	return ix.store.Count(ctx)
}

// Clear removes all indexed chunks.
func (ix *Index) Clear(ctx context.Context) error {
	ix.logger.Warn("clearing evidence index")
	return ix.store.Clear(ctx)
}
