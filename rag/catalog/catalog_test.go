package catalog

import (
	"reflect"
	"testing"

	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

func buildTestCatalog() *Catalog {
	b := NewBuilder()
	b.Observe(vector.Metadata{Category: "Tennessee", SubCategory: "CNA", Section: "Requirements"},
		"75 hours of state-approved training are required.")
	b.Observe(vector.Metadata{Category: "Tennessee", SubCategory: "CNA", Section: "Cost"},
		"Programs cost $500 - $1,500 and take 4 to 8 weeks.")
	b.Observe(vector.Metadata{Category: "Tennessee", SubCategory: "LPN", Section: "Overview"},
		"LPN programs take 12 months.")
	b.Observe(vector.Metadata{Category: "Georgia", SubCategory: "CNA", Section: "Overview"},
		"Georgia requires 85 hours.")
	return b.Build()
}

func TestCategoriesSorted(t *testing.T) {
	c := buildTestCatalog()
	if got := c.Categories(); !reflect.DeepEqual(got, []string{"Georgia", "Tennessee"}) {
		t.Fatalf("unexpected categories %v", got)
	}
	if got := c.SubCategories(); !reflect.DeepEqual(got, []string{"CNA", "LPN"}) {
		t.Fatalf("unexpected sub-categories %v", got)
	}
}

func TestSubCategoriesFor(t *testing.T) {
	c := buildTestCatalog()
	if got := c.SubCategoriesFor("Tennessee"); !reflect.DeepEqual(got, []string{"CNA", "LPN"}) {
		t.Fatalf("unexpected subs %v", got)
	}
	if got := c.SubCategoriesFor("Nowhere"); len(got) != 0 {
		t.Fatalf("expected no subs for unknown category, got %v", got)
	}
}

func TestSections(t *testing.T) {
	c := buildTestCatalog()
	got := c.Sections("Tennessee", "CNA")
	if !reflect.DeepEqual(got, []string{"Requirements", "Cost"}) {
		t.Fatalf("unexpected sections %v", got)
	}
}

func TestHierarchy(t *testing.T) {
	c := buildTestCatalog()
	h := c.Hierarchy()
	if len(h) != 2 {
		t.Fatalf("expected 2 categories in hierarchy, got %d", len(h))
	}
	if len(h["Tennessee"]["CNA"]) != 2 {
		t.Fatalf("unexpected Tennessee/CNA sections: %v", h["Tennessee"]["CNA"])
	}
}

func TestDetailsExtraction(t *testing.T) {
	c := buildTestCatalog()

	d, ok := c.Details("Tennessee", "CNA")
	if !ok {
		t.Fatalf("expected details for Tennessee/CNA")
	}
	if d.Cost != "$500 - $1,500" {
		t.Errorf("unexpected cost %q", d.Cost)
	}
	if d.Duration != "75 hours" {
		t.Errorf("unexpected duration %q", d.Duration)
	}

	if _, ok := c.Details("Tennessee", "RN"); ok {
		t.Fatalf("expected no details for unobserved pair")
	}
}

func TestObserveIgnoresBlankMetadata(t *testing.T) {
	b := NewBuilder()
	b.Observe(vector.Metadata{}, "intro text with no headings")
	c := b.Build()
	if len(c.Categories()) != 0 || len(c.SubCategories()) != 0 {
		t.Fatalf("blank metadata must not create taxonomy entries")
	}
}
