package ingest

import (
	"context"
	"strings"
	"testing"
)

const sampleCorpus = `# Tennessee

## CNA

### Requirements

Candidates must complete 75 hours of state-approved training.

### Cost

Programs cost $500 - $1,500 and take 4 to 8 weeks.

## LPN

### Overview

LPN programs take 12 months and build on CNA experience.

# Georgia

## CNA

### Requirements

Georgia requires 85 hours including 24 clinical hours.
`

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	l, err := NewLoader(opts...)
	if err != nil {
		t.Skipf("tokenizer unavailable: %v", err)
	}
	return l
}

func TestLoadThreadsHeadingHierarchy(t *testing.T) {
	l := newTestLoader(t)

	res, err := l.Load(context.Background(), sampleCorpus, "corpus.md")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	var found bool
	for _, c := range res.Chunks {
		if strings.Contains(c.Text, "75 hours of state-approved training") {
			found = true
			if c.Metadata.Category != "Tennessee" {
				t.Errorf("expected category Tennessee, got %q", c.Metadata.Category)
			}
			if c.Metadata.SubCategory != "CNA" {
				t.Errorf("expected sub-category CNA, got %q", c.Metadata.SubCategory)
			}
			if c.Metadata.Section != "Requirements" {
				t.Errorf("expected section Requirements, got %q", c.Metadata.Section)
			}
			if c.Metadata.SourceID != "corpus.md" {
				t.Errorf("expected source corpus.md, got %q", c.Metadata.SourceID)
			}
		}
	}
	if !found {
		t.Fatalf("requirements chunk missing; got %d chunks", len(res.Chunks))
	}
}

func TestLoadResetsSubCategoryAtNewCategory(t *testing.T) {
	l := newTestLoader(t)

	res, err := l.Load(context.Background(), sampleCorpus, "corpus.md")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	for _, c := range res.Chunks {
		if strings.Contains(c.Text, "Georgia requires 85 hours") {
			if c.Metadata.Category != "Georgia" || c.Metadata.SubCategory != "CNA" {
				t.Fatalf("hierarchy did not reset: %+v", c.Metadata)
			}
		}
	}
}

func TestLoadBuildsCatalog(t *testing.T) {
	l := newTestLoader(t)

	res, err := l.Load(context.Background(), sampleCorpus, "corpus.md")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cat := res.Catalog
	if len(cat.Categories()) != 2 {
		t.Fatalf("expected 2 categories, got %v", cat.Categories())
	}
	d, ok := cat.Details("Tennessee", "CNA")
	if !ok || d.Cost == "" {
		t.Fatalf("expected cost details for Tennessee/CNA, got %+v (ok=%v)", d, ok)
	}
}

func TestHeadingLinesStayInChunks(t *testing.T) {
	l := newTestLoader(t)

	res, err := l.Load(context.Background(), sampleCorpus, "corpus.md")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	var sawHeading bool
	for _, c := range res.Chunks {
		if strings.HasPrefix(c.Text, "### Requirements") {
			sawHeading = true
		}
	}
	if !sawHeading {
		t.Fatalf("heading markers should stay inside the chunk text")
	}
}

func TestOversizedSectionSplitsWithOverlap(t *testing.T) {
	l := newTestLoader(t, WithMaxTokens(40), WithOverlapTokens(10))

	long := "# Topic\n\n## Sub\n\n### Long\n\n" + strings.Repeat("certification requirements vary by state and program. ", 40)
	res, err := l.Load(context.Background(), long, "long.md")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	var longChunks int
	for _, c := range res.Chunks {
		if c.Metadata.Section == "Long" {
			longChunks++
		}
	}
	if longChunks < 2 {
		t.Fatalf("expected the oversized section to split, got %d chunks", longChunks)
	}
}

func TestEmptyContent(t *testing.T) {
	l := newTestLoader(t)

	res, err := l.Load(context.Background(), "   \n\n  ", "empty.md")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(res.Chunks) != 0 {
		t.Fatalf("expected no chunks for blank content, got %d", len(res.Chunks))
	}
}
