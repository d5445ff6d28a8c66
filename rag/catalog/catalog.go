// Package catalog holds the structured vocabulary discovered while ingesting
// the corpus: known categories, sub-categories, section hierarchy, and
// per-pair facts such as cost and duration. A Catalog is constructed once at
// startup and read-only thereafter.
package catalog

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

// Details captures the structured facts extracted for a
// (category, sub-category) pair.
type Details struct {
	Cost     string `json:"cost,omitempty"`
	Duration string `json:"duration,omitempty"`
}

var (
	costPattern     = regexp.MustCompile(`\$[\d,]+(?:\s*-\s*\$[\d,]+)?`)
	durationPattern = regexp.MustCompile(`(?i)\d+(?:\s*(?:to|-)\s*\d+)?\s*(?:weeks?|months?|hours?)`)
)

// Builder accumulates catalog entries during ingestion.
type Builder struct {
	categories map[string]struct{}
	subs       map[string]struct{}
	byCategory map[string]map[string]struct{}
	sections   map[string]map[string][]string
	details    map[string]*Details
}

// NewBuilder creates an empty catalog builder.
func NewBuilder() *Builder {
	return &Builder{
		categories: make(map[string]struct{}),
		subs:       make(map[string]struct{}),
		byCategory: make(map[string]map[string]struct{}),
		sections:   make(map[string]map[string][]string),
		details:    make(map[string]*Details),
	}
}

// Observe records one chunk's metadata and mines its text for cost and
// duration facts.
func (b *Builder) Observe(md vector.Metadata, text string) {
	category := strings.TrimSpace(md.Category)
	sub := strings.TrimSpace(md.SubCategory)
	section := strings.TrimSpace(md.Section)

	if category == "" {
		return
	}
	b.categories[category] = struct{}{}
	if _, ok := b.byCategory[category]; !ok {
		b.byCategory[category] = make(map[string]struct{})
	}
	if sub == "" {
		return
	}
	b.subs[sub] = struct{}{}
	b.byCategory[category][sub] = struct{}{}

	if section != "" {
		if _, ok := b.sections[category]; !ok {
			b.sections[category] = make(map[string][]string)
		}
		if !contains(b.sections[category][sub], section) {
			b.sections[category][sub] = append(b.sections[category][sub], section)
		}
	}

	key := detailKey(category, sub)
	det, ok := b.details[key]
	if !ok {
		det = &Details{}
		b.details[key] = det
	}
	if det.Cost == "" {
		if m := costPattern.FindString(text); m != "" {
			det.Cost = m
		}
	}
	if det.Duration == "" {
		if m := durationPattern.FindString(text); m != "" {
			det.Duration = m
		}
	}
}

// Build freezes the accumulated entries into an immutable Catalog.
func (b *Builder) Build() *Catalog {
	cat := &Catalog{
		categories:    sortedKeys(b.categories),
		subCategories: sortedKeys(b.subs),
		byCategory:    make(map[string][]string, len(b.byCategory)),
		sections:      make(map[string]map[string][]string, len(b.sections)),
		details:       make(map[string]Details, len(b.details)),
	}
	for category, subs := range b.byCategory {
		cat.byCategory[category] = sortedKeys(subs)
	}
	for category, bySub := range b.sections {
		cat.sections[category] = make(map[string][]string, len(bySub))
		for sub, sections := range bySub {
			copied := make([]string, len(sections))
			copy(copied, sections)
			cat.sections[category][sub] = copied
		}
	}
	for key, det := range b.details {
		cat.details[key] = *det
	}
	return cat
}

// Catalog is the immutable corpus vocabulary.
type Catalog struct {
	categories    []string
	subCategories []string
	byCategory    map[string][]string
	sections      map[string]map[string][]string
	details       map[string]Details
}

// Categories returns the known domain categories.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// SubCategories returns all known sub-categories.
func (c *Catalog) SubCategories() []string {
	return append([]string(nil), c.subCategories...)
}

// SubCategoriesFor returns the sub-categories observed under a category.
func (c *Catalog) SubCategoriesFor(category string) []string {
	return append([]string(nil), c.byCategory[category]...)
}

// Sections returns the section labels observed for a pair, in corpus order.
func (c *Catalog) Sections(category, sub string) []string {
	bySub, ok := c.sections[category]
	if !ok {
		return nil
	}
	return append([]string(nil), bySub[sub]...)
}

// Hierarchy returns a deep copy of the category > sub-category > sections tree.
func (c *Catalog) Hierarchy() map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(c.sections))
	for category, bySub := range c.sections {
		out[category] = make(map[string][]string, len(bySub))
		for sub, sections := range bySub {
			out[category][sub] = append([]string(nil), sections...)
		}
	}
	return out
}

// Details returns the extracted facts for a pair.
func (c *Catalog) Details(category, sub string) (Details, bool) {
	det, ok := c.details[detailKey(category, sub)]
	return det, ok
}

func detailKey(category, sub string) string {
	return category + "\x00" + sub
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
