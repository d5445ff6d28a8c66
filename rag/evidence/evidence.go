// Package evidence defines the retrievable unit of corpus text consumed by
// the answer pipeline.
package evidence

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

// fingerprintWindow bounds how much of the chunk text feeds the dedup identity.
const fingerprintWindow = 200

// Chunk is one retrievable unit of corpus text with its structural metadata.
type Chunk struct {
	Text     string          `json:"text"`
	Metadata vector.Metadata `json:"metadata"`
}

// SourceLabel derives the human-readable attribution label from metadata,
// joining category > sub-category > section. When no metadata is present the
// positional label "Source N" is used instead (position is zero-based).
func (c Chunk) SourceLabel(position int) string {
	parts := make([]string, 0, 3)
	if c.Metadata.Category != "" {
		parts = append(parts, c.Metadata.Category)
	}
	if c.Metadata.SubCategory != "" {
		parts = append(parts, c.Metadata.SubCategory)
	}
	if c.Metadata.Section != "" {
		parts = append(parts, c.Metadata.Section)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Source %d", position+1)
	}
	return strings.Join(parts, " > ")
}

// Fingerprint returns the deduplication identity: an FNV-1a hash over the
// first 200 bytes of the chunk text. Distinct chunks sharing a long common
// prefix can collide; this is a known approximation, not a cryptographic
// identity.
func (c Chunk) Fingerprint() uint64 {
	text := c.Text
	if len(text) > fingerprintWindow {
		text = text[:fingerprintWindow]
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}
