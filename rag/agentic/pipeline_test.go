package agentic

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	ragerrors "github.com/tomenglish23/healthcare-certs-rag/errors"
	"github.com/tomenglish23/healthcare-certs-rag/message"
	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	llm := &stubLLM{}
	pipe := newTestPipeline(t, llm, &fakeStore{})

	_, err := pipe.Answer(context.Background(), "   ", nil)
	if !errors.Is(err, ragerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
	if llm.calls != 0 {
		t.Fatalf("expected no model calls, got %d", llm.calls)
	}
}

func TestAnswerNilPipelineNotReady(t *testing.T) {
	var pipe *Pipeline
	_, err := pipe.Answer(context.Background(), "What is a CNA?", nil)
	if !errors.Is(err, ragerrors.ErrNotReady) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
}

func TestAnswerNoEvidenceShortCircuits(t *testing.T) {
	llm := &stubLLM{
		analysis: `{"intent":"requirements","entities":{"category":"Nursing"},"search_queries":["CNA requirements"],"reasoning":"requirements question"}`,
	}
	store := &fakeStore{} // returns nothing
	pipe := newTestPipeline(t, llm, store)

	res, err := pipe.Answer(context.Background(), "What are the requirements for underwater basket weaving?", nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if res.Answer != InsufficientInfoMessage {
		t.Fatalf("expected insufficient-info message, got %q", res.Answer)
	}
	if res.Confidence != 0.1 {
		t.Fatalf("expected confidence 0.1, got %v", res.Confidence)
	}
	if len(res.Sources) != 0 {
		t.Fatalf("expected no sources, got %v", res.Sources)
	}
	if llm.draftCalls != 0 || llm.verdictCalls != 0 {
		t.Fatalf("expected draft and critique models untouched, got %d/%d calls", llm.draftCalls, llm.verdictCalls)
	}
	if len(res.Reasoning) != 4 {
		t.Fatalf("expected 4 trace entries on the short-circuit path, got %d: %v", len(res.Reasoning), res.Reasoning)
	}
}

func TestComparisonQuestionFansOut(t *testing.T) {
	llm := &stubLLM{
		analysis: `{"intent":"comparison","entities":{"comparison_items":["CNA","LPN"]},"search_queries":["CNA training requirements","LPN training requirements","CNA vs LPN salary"],"reasoning":"comparing roles"}`,
		draft:    "CNA training is shorter than LPN training.",
		verdict:  `{"is_grounded":true,"issues":[],"missing_info":[],"confidence_adjustment":0.9}`,
	}
	store := &fakeStore{chunks: makeChunks(6)}
	pipe := newTestPipeline(t, llm, store)

	res, err := pipe.Answer(context.Background(), "Compare CNA and LPN", nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if res.Intent != IntentComparison {
		t.Fatalf("expected comparison intent, got %s", res.Intent)
	}
	if got := store.queryCount(); got != 3 {
		t.Fatalf("expected 3 searches, got %d", got)
	}
	sawOriginal := false
	for _, q := range store.allQueries() {
		if q == "Compare CNA and LPN" {
			sawOriginal = true
		}
	}
	if !sawOriginal {
		t.Fatalf("original question missing from searches: %v", store.allQueries())
	}
	for _, k := range store.allKs() {
		if k != 8 {
			t.Fatalf("expected k=8 for comparison, got %v", store.allKs())
		}
	}
	if len(res.Reasoning) != 5 {
		t.Fatalf("expected 5 trace entries, got %d: %v", len(res.Reasoning), res.Reasoning)
	}
}

func TestLowConfidenceAnswerCarriesDisclaimer(t *testing.T) {
	llm := &stubLLM{
		analysis: `{"intent":"general","entities":{},"search_queries":["rare certification"],"reasoning":"niche"}`,
		draft:    "Only partial information is available.",
		verdict:  `{"is_grounded":false,"issues":["salary claim unsupported"],"missing_info":["current fees"],"confidence_adjustment":0.6}`,
	}
	store := &fakeStore{chunks: makeChunks(1)}
	pipe := newTestPipeline(t, llm, store)

	res, err := pipe.Answer(context.Background(), "Tell me about a very rare certification", nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if res.Confidence != 0.05 {
		t.Fatalf("expected confidence 0.05, got %v", res.Confidence)
	}
	if !strings.HasSuffix(res.Answer, VerificationDisclaimer) {
		t.Fatalf("expected disclaimer suffix, got %q", res.Answer)
	}
	if res.IsGrounded {
		t.Fatalf("expected ungrounded result")
	}
	if len(res.MissingInfo) != 1 || res.MissingInfo[0] != "current fees" {
		t.Fatalf("unexpected missing info: %v", res.MissingInfo)
	}
}

func TestConfidentProcessAnswerCarriesTip(t *testing.T) {
	llm := &stubLLM{
		analysis: `{"intent":"process","entities":{"sub_category":"CNA"},"search_queries":["steps to become a CNA","CNA certification process"],"reasoning":"process question"}`,
		draft:    "1. Complete a state-approved program. 2. Pass the exam.",
		verdict:  `{"is_grounded":true,"issues":[],"missing_info":[],"confidence_adjustment":0.9}`,
	}
	store := &fakeStore{
		perQuery: map[string][]Chunk{
			"steps to become a CNA":     makeChunksFrom(0, 5),
			"CNA certification process": makeChunksFrom(5, 5),
		},
	}
	pipe := newTestPipeline(t, llm, store)

	res, err := pipe.Answer(context.Background(), "How do I become a CNA?", nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	// 10 unique chunks: 10/12 * 0.9 = 0.75
	if res.Confidence != 0.75 {
		t.Fatalf("expected confidence 0.75, got %v", res.Confidence)
	}
	if !strings.HasSuffix(res.Answer, ProcessAdvisoryTip) {
		t.Fatalf("expected process tip suffix, got %q", res.Answer)
	}
	if strings.Contains(res.Answer, VerificationDisclaimer) {
		t.Fatalf("grounded answer must not carry the disclaimer")
	}
}

func TestCallerFiltersOverrideExtractedEntities(t *testing.T) {
	llm := &stubLLM{
		analysis: `{"intent":"requirements","entities":{"category":"Allied Health","sub_category":"Phlebotomy"},"search_queries":["requirements"],"reasoning":"requirements"}`,
		draft:    "Requirements are listed per program.",
		verdict:  `{"is_grounded":true,"issues":[],"missing_info":[],"confidence_adjustment":0.8}`,
	}
	store := &fakeStore{chunks: makeChunks(3)}
	pipe := newTestPipeline(t, llm, store)

	res, err := pipe.Answer(context.Background(), "What are the requirements?", map[string]string{"category": "Nursing"})
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if res.Entities.Category != "Nursing" {
		t.Fatalf("caller filter should overwrite the extracted category, got %q", res.Entities.Category)
	}
	if res.Entities.SubCategory != "Phlebotomy" {
		t.Fatalf("extracted sub-category should survive the override, got %q", res.Entities.SubCategory)
	}
	for _, f := range store.allFilters() {
		if f == nil {
			t.Fatalf("expected a metadata filter on every search")
		}
		if f.Category != "Nursing" {
			t.Fatalf("caller filter should win, got category %q", f.Category)
		}
		if f.SubCategory != "Phlebotomy" {
			t.Fatalf("extracted sub-category should fill the gap, got %q", f.SubCategory)
		}
	}
	for _, k := range store.allKs() {
		if k != 6 {
			t.Fatalf("expected k=6 for requirements, got %v", store.allKs())
		}
	}
}

func TestFilteredSearchFailureRetriesUnfiltered(t *testing.T) {
	llm := &stubLLM{
		analysis: `{"intent":"general","entities":{"category":"Nursing"},"search_queries":["nursing overview"],"reasoning":"general"}`,
		draft:    "Nursing certifications cover several roles.",
		verdict:  `{"is_grounded":true,"issues":[],"missing_info":[],"confidence_adjustment":0.8}`,
	}
	store := &fakeStore{chunks: makeChunks(4), failFiltered: true}
	pipe := newTestPipeline(t, llm, store)

	res, err := pipe.Answer(context.Background(), "Tell me about nursing certifications", nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if len(res.Sources) == 0 {
		t.Fatalf("expected evidence from the unfiltered retry")
	}
	filters := store.allFilters()
	if len(filters) < 2 {
		t.Fatalf("expected a filtered attempt and an unfiltered retry, got %d searches", len(filters))
	}
	if filters[len(filters)-1] != nil {
		t.Fatalf("retry should drop the filter")
	}
}

func TestUnparseableAnalysisFallsBackToGeneral(t *testing.T) {
	llm := &stubLLM{
		analysis: "I think this question is about nursing.",
		draft:    "General answer.",
		verdict:  `{"is_grounded":true,"issues":[],"missing_info":[],"confidence_adjustment":0.8}`,
	}
	store := &fakeStore{chunks: makeChunks(2)}
	pipe := newTestPipeline(t, llm, store)

	res, err := pipe.Answer(context.Background(), "Is nursing right for me?", nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if res.Intent != IntentGeneral {
		t.Fatalf("expected general fallback intent, got %s", res.Intent)
	}
	if got := store.allQueries(); len(got) != 1 || got[0] != "Is nursing right for me?" {
		t.Fatalf("expected the original question as the only query, got %v", got)
	}
	for _, k := range store.allKs() {
		if k != 5 {
			t.Fatalf("expected k=5 for general, got %v", store.allKs())
		}
	}
}

func TestCritiqueFailureAcceptsDraft(t *testing.T) {
	llm := &stubLLM{
		analysis:   `{"intent":"general","entities":{},"search_queries":["overview"],"reasoning":"general"}`,
		draft:      "A reasonable answer.",
		verdictErr: errors.New("model unavailable"),
	}
	store := &fakeStore{chunks: makeChunks(3)}
	pipe := newTestPipeline(t, llm, store)

	res, err := pipe.Answer(context.Background(), "Give me an overview", nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if !res.IsGrounded {
		t.Fatalf("critique failure should accept the draft as grounded")
	}
	if res.Confidence != 0.5 {
		t.Fatalf("expected fallback confidence 0.5, got %v", res.Confidence)
	}
	if !strings.HasPrefix(res.Answer, "A reasonable answer.") {
		t.Fatalf("draft should pass through, got %q", res.Answer)
	}
}

func TestCriticDisabledScoresByVolume(t *testing.T) {
	llm := &stubLLM{
		analysis: `{"intent":"study_material","entities":{},"search_queries":["study guides"],"reasoning":"study"}`,
		draft:    "Answer without critique.",
	}
	// study_material retrieves with k=8, so all 6 chunks survive.
	store := &fakeStore{chunks: makeChunks(6)}
	pipe := newTestPipeline(t, llm, store, WithCritic(false))

	res, err := pipe.Answer(context.Background(), "What study guides are there?", nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if llm.verdictCalls != 0 {
		t.Fatalf("expected no critique calls, got %d", llm.verdictCalls)
	}
	if res.Confidence != 0.5 { // 6/12
		t.Fatalf("expected volume confidence 0.5, got %v", res.Confidence)
	}
	if !res.IsGrounded {
		t.Fatalf("disabled critique should assume grounded")
	}
	if len(res.Reasoning) != 4 {
		t.Fatalf("expected 4 trace entries without critique, got %d: %v", len(res.Reasoning), res.Reasoning)
	}
}

func TestEvidenceDeduplicatedAndCapped(t *testing.T) {
	// Every query returns the same leading chunks, so the merge must
	// collapse the overlap by content fingerprint.
	llm := &stubLLM{
		analysis: `{"intent":"study_material","entities":{},"search_queries":["exam prep","study guide","practice tests"],"reasoning":"study"}`,
		draft:    "Study the listed materials.",
		verdict:  `{"is_grounded":true,"issues":[],"missing_info":[],"confidence_adjustment":1.0}`,
	}
	store := &fakeStore{chunks: makeChunks(18)}
	pipe := newTestPipeline(t, llm, store)

	res, err := pipe.Answer(context.Background(), "What should I study?", nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if res.Confidence != 0.67 { // 8 unique per query, capped merge: 8/12 rounds to 0.67
		t.Fatalf("expected confidence 0.67, got %v", res.Confidence)
	}
	if len(res.Sources) > 12 {
		t.Fatalf("evidence cap exceeded: %d sources", len(res.Sources))
	}
	seen := make(map[string]bool)
	for _, s := range res.Sources {
		if seen[s] {
			t.Fatalf("duplicate source %q", s)
		}
		seen[s] = true
	}
}

func TestAnswerIsIdempotent(t *testing.T) {
	newPipe := func() (*Pipeline, *stubLLM) {
		llm := &stubLLM{
			analysis: `{"intent":"cost_duration","entities":{"sub_category":"CNA"},"search_queries":["CNA program cost"],"reasoning":"cost"}`,
			draft:    "CNA programs cost $500 - $2,000.",
			verdict:  `{"is_grounded":true,"issues":[],"missing_info":[],"confidence_adjustment":0.9}`,
		}
		store := &fakeStore{chunks: makeChunks(4)}
		return newTestPipeline(t, llm, store), llm
	}

	first, _ := newPipe()
	second, _ := newPipe()

	a, err := first.Answer(context.Background(), "How much does CNA training cost?", nil)
	if err != nil {
		t.Fatalf("first Answer error: %v", err)
	}
	b, err := second.Answer(context.Background(), "How much does CNA training cost?", nil)
	if err != nil {
		t.Fatalf("second Answer error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs produced different results:\n%#v\n%#v", a, b)
	}
}

func newTestPipeline(t *testing.T, llm *stubLLM, store Searcher, opts ...Option) *Pipeline {
	t.Helper()
	pipe, err := NewPipeline(llm, store, stubVocab{}, opts...)
	if err != nil {
		t.Fatalf("NewPipeline error: %v", err)
	}
	return pipe
}

// stubLLM routes by system prompt so one client can serve all three
// model-backed stages, mirroring production wiring.
type stubLLM struct {
	analysis string
	draft    string
	verdict  string

	analysisErr error
	draftErr    error
	verdictErr  error

	mu            sync.Mutex
	calls         int
	analysisCalls int
	draftCalls    int
	verdictCalls  int
}

func (s *stubLLM) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(messages) == 0 {
		return nil, errors.New("no messages")
	}
	system := messages[0].Content
	switch {
	case strings.Contains(system, "query analyst"):
		s.analysisCalls++
		if s.analysisErr != nil {
			return nil, s.analysisErr
		}
		return message.NewMessage(message.RoleAssistant, s.analysis), nil
	case strings.Contains(system, "fact checker"):
		s.verdictCalls++
		if s.verdictErr != nil {
			return nil, s.verdictErr
		}
		return message.NewMessage(message.RoleAssistant, s.verdict), nil
	default:
		s.draftCalls++
		if s.draftErr != nil {
			return nil, s.draftErr
		}
		return message.NewMessage(message.RoleAssistant, s.draft), nil
	}
}

type stubVocab struct{}

func (stubVocab) Categories() []string    { return []string{"Nursing", "Allied Health"} }
func (stubVocab) SubCategories() []string { return []string{"CNA", "LPN", "Phlebotomy"} }

// fakeStore records search calls and serves canned chunks.
type fakeStore struct {
	chunks       []Chunk
	perQuery     map[string][]Chunk
	failFiltered bool

	mu      sync.Mutex
	queries []string
	ks      []int
	filters []*vector.Filter
}

func (f *fakeStore) Search(ctx context.Context, query string, k int, filter *vector.Filter) ([]Chunk, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.ks = append(f.ks, k)
	f.filters = append(f.filters, filter)
	f.mu.Unlock()

	if f.failFiltered && !filter.Empty() {
		return nil, errors.New("metadata column missing")
	}
	chunks := f.chunks
	if f.perQuery != nil {
		if c, ok := f.perQuery[query]; ok {
			chunks = c
		}
	}
	if k < len(chunks) {
		chunks = chunks[:k]
	}
	return chunks, nil
}

func (f *fakeStore) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeStore) allQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeStore) allKs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.ks...)
}

func (f *fakeStore) allFilters() []*vector.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*vector.Filter(nil), f.filters...)
}

func makeChunks(n int) []Chunk {
	return makeChunksFrom(0, n)
}

func makeChunksFrom(start, n int) []Chunk {
	chunks := make([]Chunk, 0, n)
	for i := start; i < start+n; i++ {
		chunks = append(chunks, Chunk{
			Text: fmt.Sprintf("Chunk %d: certification details for program %d.", i, i),
			Metadata: vector.Metadata{
				Category:    "Nursing",
				SubCategory: "CNA",
				Section:     fmt.Sprintf("Section %d", i),
			},
		})
	}
	return chunks
}
