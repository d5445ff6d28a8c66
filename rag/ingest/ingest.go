// Package ingest loads the corpus markdown into evidence chunks and builds
// the metadata catalog. The corpus convention is a three-level heading
// hierarchy: # category, ## sub-category, ### section.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/tomenglish23/healthcare-certs-rag/pkg/logging"
	"github.com/tomenglish23/healthcare-certs-rag/rag/catalog"
	"github.com/tomenglish23/healthcare-certs-rag/rag/evidence"
	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

// Result bundles the chunks and the catalog produced by one load.
type Result struct {
	Chunks  []evidence.Chunk
	Catalog *catalog.Catalog
}

// Loader parses corpus markdown into metadata-enriched evidence chunks.
type Loader struct {
	maxTokens     int
	overlapTokens int
	parser        goldmark.Markdown
	encoder       *tiktoken.Tiktoken
	logger        *slog.Logger
}

// Option customises the loader.
type Option func(*Loader)

// WithMaxTokens caps the token length of an emitted chunk (default 320).
func WithMaxTokens(tokens int) Option {
	return func(l *Loader) {
		if tokens > 0 {
			l.maxTokens = tokens
		}
	}
}

// WithOverlapTokens sets the token overlap between consecutive splits of an
// oversized section (default 48).
func WithOverlapTokens(tokens int) Option {
	return func(l *Loader) {
		if tokens >= 0 {
			l.overlapTokens = tokens
		}
	}
}

// NewLoader creates a markdown corpus loader.
func NewLoader(opts ...Option) (*Loader, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	l := &Loader{
		maxTokens:     320,
		overlapTokens: 48,
		parser:        goldmark.New(),
		encoder:       enc,
		logger:        logging.WithComponent("ingest"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.overlapTokens >= l.maxTokens {
		l.overlapTokens = l.maxTokens / 4
	}
	return l, nil
}

// LoadFile reads and parses a corpus markdown file.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	return l.Load(ctx, string(content), path)
}

// Load parses markdown content into chunks and a catalog. sourceID labels
// every produced chunk's provenance.
func (l *Loader) Load(ctx context.Context, content, sourceID string) (*Result, error) {
	sections := l.splitSections(content)
	builder := catalog.NewBuilder()

	var chunks []evidence.Chunk
	for _, sec := range sections {
		md := vector.Metadata{
			Category:    sec.category,
			SubCategory: sec.subCategory,
			Section:     sec.section,
			SourceID:    sourceID,
		}
		builder.Observe(md, sec.raw)

		for _, piece := range l.splitTokens(sec.raw) {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, evidence.Chunk{Text: piece, Metadata: md})
		}
	}

	cat := builder.Build()
	l.logger.Info("corpus loaded",
		"source", sourceID,
		"chunks", len(chunks),
		"categories", len(cat.Categories()),
		"sub_categories", len(cat.SubCategories()),
	)
	return &Result{Chunks: chunks, Catalog: cat}, nil
}

type section struct {
	raw         string
	category    string
	subCategory string
	section     string
}

type headingInfo struct {
	start int
	level int
	title string
}

// splitSections walks the goldmark AST, carving the document at headings up
// to level 3 and threading the heading hierarchy into each slice. Heading
// lines stay inside the chunk text, matching the corpus convention.
func (l *Loader) splitSections(content string) []section {
	source := []byte(content)
	reader := text.NewReader(source)
	root := l.parser.Parser().Parse(reader)

	var headings []headingInfo
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level > 3 {
			return ast.WalkContinue, nil
		}
		lines := heading.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		// The recorded start backs up past the "#" markers goldmark excludes
		// from the heading's line segment.
		start := lines.At(0).Start
		for start > 0 && source[start-1] != '\n' {
			start--
		}
		headings = append(headings, headingInfo{
			start: start,
			level: heading.Level,
			title: strings.TrimSpace(string(heading.Text(source))),
		})
		return ast.WalkSkipChildren, nil
	})

	if len(headings) == 0 {
		raw := strings.TrimSpace(content)
		if raw == "" {
			return nil
		}
		return []section{{raw: raw}}
	}

	var sections []section
	if intro := strings.TrimSpace(string(source[:headings[0].start])); intro != "" {
		sections = append(sections, section{raw: intro})
	}

	var category, subCategory string
	for i, h := range headings {
		end := len(source)
		if i+1 < len(headings) {
			end = headings[i+1].start
		}
		raw := strings.TrimSpace(string(source[h.start:end]))
		if raw == "" {
			continue
		}

		sec := section{raw: raw}
		switch h.level {
		case 1:
			category = h.title
			subCategory = ""
			sec.category = category
		case 2:
			subCategory = h.title
			sec.category = category
			sec.subCategory = subCategory
		case 3:
			sec.category = category
			sec.subCategory = subCategory
			sec.section = h.title
		}
		sections = append(sections, sec)
	}
	return sections
}

// splitTokens windows oversized text by token count with overlap.
func (l *Loader) splitTokens(raw string) []string {
	ids := l.encoder.Encode(raw, nil, nil)
	if len(ids) <= l.maxTokens {
		return []string{raw}
	}

	step := l.maxTokens - l.overlapTokens
	var pieces []string
	for start := 0; start < len(ids); start += step {
		end := start + l.maxTokens
		if end > len(ids) {
			end = len(ids)
		}
		pieces = append(pieces, strings.TrimSpace(l.encoder.Decode(ids[start:end])))
		if end == len(ids) {
			break
		}
	}
	return pieces
}
