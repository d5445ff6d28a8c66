package evidence

import (
	"strings"
	"testing"

	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

func TestSourceLabelJoinsHierarchy(t *testing.T) {
	c := Chunk{
		Text: "content",
		Metadata: vector.Metadata{
			Category:    "Tennessee",
			SubCategory: "CNA",
			Section:     "Requirements",
		},
	}
	if got := c.SourceLabel(0); got != "Tennessee > CNA > Requirements" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestSourceLabelPartialMetadata(t *testing.T) {
	c := Chunk{Metadata: vector.Metadata{Category: "Tennessee"}}
	if got := c.SourceLabel(3); got != "Tennessee" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestSourceLabelFallsBackToPosition(t *testing.T) {
	c := Chunk{Text: "content"}
	if got := c.SourceLabel(2); got != "Source 3" {
		t.Fatalf("unexpected fallback label %q", got)
	}
}

func TestFingerprintUsesLeadingBytes(t *testing.T) {
	prefix := strings.Repeat("a", 200)
	a := Chunk{Text: prefix + " tail one"}
	b := Chunk{Text: prefix + " completely different tail"}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("chunks sharing a 200-byte prefix must collide")
	}

	c := Chunk{Text: "short text"}
	d := Chunk{Text: "other short text"}
	if c.Fingerprint() == d.Fingerprint() {
		t.Fatalf("distinct short chunks should not collide")
	}
}

func TestFingerprintStable(t *testing.T) {
	c := Chunk{Text: "CNA training requires 75 hours."}
	if c.Fingerprint() != c.Fingerprint() {
		t.Fatalf("fingerprint must be deterministic")
	}
}
