package agentic

import (
	"context"
	"strings"

	"github.com/tomenglish23/healthcare-certs-rag/message"
	"github.com/tomenglish23/healthcare-certs-rag/provider"
)

// understanding is the JSON shape the analysis model returns.
type understanding struct {
	Intent   string `json:"intent"`
	Entities struct {
		Category           string   `json:"category"`
		SubCategory        string   `json:"sub_category"`
		CostPreference     string   `json:"cost_preference"`
		DurationPreference string   `json:"duration_preference"`
		ComparisonItems    []string `json:"comparison_items"`
	} `json:"entities"`
	SearchQueries []string `json:"search_queries"`
	Reasoning     string   `json:"reasoning"`
}

// understander classifies the question, extracts entities, and plans
// search queries. It never fails the pipeline: any model or parse error
// degrades to a general-intent pass-through of the original question.
type understander struct {
	llm   provider.Completer
	vocab Vocabulary
	cfg   *Config
}

func (u *understander) run(ctx context.Context, st *State) {
	prompt := strings.NewReplacer(
		"{{question}}", st.Question,
		"{{categories}}", strings.Join(u.vocab.Categories(), ", "),
		"{{sub_categories}}", strings.Join(u.vocab.SubCategories(), ", "),
	).Replace(understandPrompt)

	callCtx, cancel := context.WithTimeout(ctx, u.cfg.CompletionTimeout)
	defer cancel()

	resp, err := u.llm.Generate(callCtx, []*message.Message{
		message.NewMessage(message.RoleSystem, understandSystemPrompt),
		message.NewMessage(message.RoleUser, prompt),
	})
	if err != nil {
		serr := provider.Classify("understand", err)
		u.cfg.Logger.Warn("query analysis failed, using general intent", "error", serr)
		u.fallback(st, "analysis call failed")
		return
	}

	parsed, err := decodeJSON[understanding](resp.Text())
	if err != nil {
		u.cfg.Logger.Warn("query analysis returned invalid JSON", "error", err)
		u.fallback(st, "analysis output unparseable")
		return
	}

	st.Intent = ParseIntent(parsed.Intent)
	st.Entities = Entities{
		Category:           strings.TrimSpace(parsed.Entities.Category),
		SubCategory:        strings.TrimSpace(parsed.Entities.SubCategory),
		CostPreference:     strings.TrimSpace(parsed.Entities.CostPreference),
		DurationPreference: strings.TrimSpace(parsed.Entities.DurationPreference),
		ComparisonItems:    parsed.Entities.ComparisonItems,
	}
	applyFilterOverrides(st)
	st.SearchQueries = normalizeQueries(parsed.SearchQueries, st.Question, u.cfg.MaxQueries)
	st.addTrace("understood intent: %s, planned %d search queries", st.Intent, len(st.SearchQueries))
}

func (u *understander) fallback(st *State, reason string) {
	st.Intent = IntentGeneral
	st.Entities = Entities{}
	st.SearchQueries = []string{st.Question}
	st.addTrace("understood intent: general (%s)", reason)
}

// applyFilterOverrides writes caller-supplied filters over the extracted
// entities so retrieval and the returned entities both reflect them.
func applyFilterOverrides(st *State) {
	if v := strings.TrimSpace(st.Filters["category"]); v != "" {
		st.Entities.Category = v
	}
	if v := strings.TrimSpace(st.Filters["sub_category"]); v != "" {
		st.Entities.SubCategory = v
	}
}

// normalizeQueries keeps the original question as the first query, then
// appends distinct planned reformulations up to the cap.
func normalizeQueries(raw []string, question string, max int) []string {
	queries := []string{question}
	seen := map[string]bool{question: true}
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		if len(queries) >= max {
			break
		}
		seen[q] = true
		queries = append(queries, q)
	}
	return queries
}
