package vector

import (
	"context"
	"math"
)

// Metadata carries the structural labels attached to every indexed chunk.
// Category and SubCategory drive retrieval filtering; Section and SourceID
// feed source attribution.
type Metadata struct {
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
	Section     string `json:"section,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
}

// Embedding represents a vector embedding with its source text and metadata.
type Embedding struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

// Filter narrows a search to embeddings whose metadata equals every set term.
// Matching is exact only; a nil or empty filter behaves as unfiltered search.
type Filter struct {
	Category    string
	SubCategory string
}

// Empty reports whether the filter has no terms.
func (f *Filter) Empty() bool {
	return f == nil || (f.Category == "" && f.SubCategory == "")
}

// Matches reports whether the metadata satisfies every set filter term.
func (f *Filter) Matches(md Metadata) bool {
	if f.Empty() {
		return true
	}
	if f.Category != "" && md.Category != f.Category {
		return false
	}
	if f.SubCategory != "" && md.SubCategory != f.SubCategory {
		return false
	}
	return true
}

// VectorStore defines the interface for vector storage and similarity search
type VectorStore interface {
	// AddEmbedding adds a new embedding to the store
	AddEmbedding(ctx context.Context, embedding *Embedding) error

	// Search finds embeddings similar to the query vector, restricted to the
	// filter when one is supplied. A nil filter means unfiltered search.
	Search(ctx context.Context, queryVector []float32, topK int, filter *Filter) ([]*Embedding, error)

	// DeleteEmbedding removes an embedding by ID
	DeleteEmbedding(ctx context.Context, id string) error

	// Clear removes all embeddings
	Clear(ctx context.Context) error

	// Count returns the number of embeddings
	Count(ctx context.Context) (int, error)
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension return number of embedding dimensions
	Dimension() int
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / float32(math.Sqrt(float64(normA))*math.Sqrt(float64(normB))+1e-8)
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
