package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

// InMemoryVectorStore implements vector.VectorStore using in-memory storage.
// Search is an exhaustive cosine scan; fine for the corpus sizes this system
// targets and for tests.
type InMemoryVectorStore struct {
	embeddings map[string]*vector.Embedding
	order      []string
	mu         sync.RWMutex
}

// NewInMemoryVectorStore creates a new in-memory vector store
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{
		embeddings: make(map[string]*vector.Embedding),
	}
}

// AddEmbedding adds a new embedding to the store
func (s *InMemoryVectorStore) AddEmbedding(ctx context.Context, embedding *vector.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if embedding == nil {
		return fmt.Errorf("embedding cannot be nil")
	}
	if embedding.ID == "" {
		return fmt.Errorf("embedding ID cannot be empty")
	}
	if len(embedding.Vector) == 0 {
		return fmt.Errorf("embedding vector cannot be empty")
	}

	if _, ok := s.embeddings[embedding.ID]; !ok {
		s.order = append(s.order, embedding.ID)
	}
	s.embeddings[embedding.ID] = embedding
	return nil
}

// Search finds embeddings similar to the query vector. A nil or empty filter
// behaves as unfiltered search; otherwise only embeddings whose metadata
// matches every filter term are considered.
func (s *InMemoryVectorStore) Search(ctx context.Context, queryVector []float32, topK int, filter *vector.Filter) ([]*vector.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	type scored struct {
		embedding  *vector.Embedding
		similarity float32
		ordinal    int
	}

	results := make([]scored, 0, len(s.embeddings))
	for ordinal, id := range s.order {
		emb := s.embeddings[id]
		if len(emb.Vector) != len(queryVector) {
			continue
		}
		if !filter.Matches(emb.Metadata) {
			continue
		}
		results = append(results, scored{
			embedding:  emb,
			similarity: vector.CosineSimilarity(queryVector, emb.Vector),
			ordinal:    ordinal,
		})
	}

	// Stable ranking: similarity first, insertion order as tie-breaker so
	// repeated searches stay deterministic.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].similarity != results[j].similarity {
			return results[i].similarity > results[j].similarity
		}
		return results[i].ordinal < results[j].ordinal
	})

	limit := topK
	if limit > len(results) {
		limit = len(results)
	}

	out := make([]*vector.Embedding, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].embedding
	}
	return out, nil
}

// DeleteEmbedding removes an embedding by ID
func (s *InMemoryVectorStore) DeleteEmbedding(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.embeddings[id]; !ok {
		return fmt.Errorf("embedding %q not found", id)
	}
	delete(s.embeddings, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all embeddings
func (s *InMemoryVectorStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings = make(map[string]*vector.Embedding)
	s.order = nil
	return nil
}

// Count returns the number of embeddings
func (s *InMemoryVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings), nil
}
