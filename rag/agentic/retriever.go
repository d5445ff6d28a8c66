package agentic

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

// retriever fans the planned queries out against the evidence store,
// merges the results in query order, and deduplicates them by content
// fingerprint. Search failures never abort the pipeline; a failed query
// simply contributes nothing.
type retriever struct {
	store Searcher
	cfg   *Config
}

func (r *retriever) run(ctx context.Context, st *State) {
	filter := r.buildFilter(st)
	k := r.cfg.topK(st.Intent)

	queries := st.SearchQueries
	if len(queries) == 0 {
		queries = []string{st.Question}
	}
	if len(queries) > r.cfg.MaxQueries {
		queries = queries[:r.cfg.MaxQueries]
	}

	// One slot per query keeps the merge order deterministic regardless
	// of which search returns first.
	slots := make([][]Chunk, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			slots[i] = r.search(ctx, q, k, filter)
		}(i, q)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	var merged []Chunk
	for _, slot := range slots {
		for _, c := range slot {
			fp := c.Fingerprint()
			if seen[fp] {
				continue
			}
			seen[fp] = true
			merged = append(merged, c)
			if len(merged) >= r.cfg.MaxEvidence {
				break
			}
		}
		if len(merged) >= r.cfg.MaxEvidence {
			break
		}
	}

	st.Evidence = merged
	st.RetrievalPlan = r.describePlan(len(queries), k, filter)
	st.addTrace("retrieved %d unique chunks (%s)", len(merged), st.RetrievalPlan)
}

// search runs one query. A failed filtered search is retried once
// without the filter so an over-narrow filter cannot blank the result.
func (r *retriever) search(ctx context.Context, query string, k int, filter *vector.Filter) []Chunk {
	searchCtx, cancel := context.WithTimeout(ctx, r.cfg.SearchTimeout)
	defer cancel()

	chunks, err := r.store.Search(searchCtx, query, k, filter)
	if err == nil {
		return chunks
	}
	r.cfg.Logger.Warn("search failed", "query", query, "error", err)
	if filter.Empty() {
		return nil
	}

	retryCtx, cancel := context.WithTimeout(ctx, r.cfg.SearchTimeout)
	defer cancel()
	chunks, err = r.store.Search(retryCtx, query, k, nil)
	if err != nil {
		r.cfg.Logger.Warn("unfiltered retry failed", "query", query, "error", err)
		return nil
	}
	return chunks
}

// buildFilter assembles the metadata filter. Caller-supplied filters
// take precedence over entities extracted from the question.
func (r *retriever) buildFilter(st *State) *vector.Filter {
	f := &vector.Filter{
		Category:    st.Filters["category"],
		SubCategory: st.Filters["sub_category"],
	}
	if f.Category == "" {
		f.Category = st.Entities.Category
	}
	if f.SubCategory == "" {
		f.SubCategory = st.Entities.SubCategory
	}
	if f.Empty() {
		return nil
	}
	return f
}

func (r *retriever) describePlan(queries, k int, filter *vector.Filter) string {
	strategy := "unfiltered"
	if !filter.Empty() {
		strategy = "filtered"
	}
	return fmt.Sprintf("strategy: %s, %d queries, k=%d", strategy, queries, k)
}
