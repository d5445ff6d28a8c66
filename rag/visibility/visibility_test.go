package visibility

import (
	"context"
	"errors"
	"strings"
	"testing"

	ragerrors "github.com/tomenglish23/healthcare-certs-rag/errors"
	"github.com/tomenglish23/healthcare-certs-rag/message"
	"github.com/tomenglish23/healthcare-certs-rag/rag/evidence"
	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return message.NewMessage(message.RoleAssistant, s.response), nil
}

type stubSampler struct {
	chunks  []evidence.Chunk
	queries []string
	ks      []int
	filters []*vector.Filter
}

func (s *stubSampler) Search(ctx context.Context, query string, k int, filter *vector.Filter) ([]evidence.Chunk, error) {
	s.queries = append(s.queries, query)
	s.ks = append(s.ks, k)
	s.filters = append(s.filters, filter)
	if k < len(s.chunks) {
		return s.chunks[:k], nil
	}
	return s.chunks, nil
}

func sampleChunks(n int) []evidence.Chunk {
	chunks := make([]evidence.Chunk, n)
	for i := range chunks {
		chunks[i] = evidence.Chunk{Text: "CNA training costs $1,200 and takes 6 weeks."}
	}
	return chunks
}

func TestProfileCorpus(t *testing.T) {
	llm := &stubLLM{response: `{"document_types":["state guides"],"states_covered":["Tennessee"]}`}
	sampler := &stubSampler{chunks: sampleChunks(30)}
	ex, err := New(llm, sampler)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	profile, err := ex.ProfileCorpus(context.Background(), 25, "")
	if err != nil {
		t.Fatalf("ProfileCorpus error: %v", err)
	}
	if profile.SamplesAnalyzed != 25 {
		t.Fatalf("expected 25 samples, got %d", profile.SamplesAnalyzed)
	}
	if profile.Report["states_covered"] == nil {
		t.Fatalf("expected report content, got %v", profile.Report)
	}
	if sampler.queries[0] != " " {
		t.Fatalf("expected broad sampling query, got %q", sampler.queries[0])
	}
}

func TestProfileCorpusCategoryFilter(t *testing.T) {
	llm := &stubLLM{response: `{}`}
	sampler := &stubSampler{chunks: sampleChunks(5)}
	ex, _ := New(llm, sampler)

	if _, err := ex.ProfileCorpus(context.Background(), 5, "Nursing"); err != nil {
		t.Fatalf("ProfileCorpus error: %v", err)
	}
	if f := sampler.filters[0]; f == nil || f.Category != "Nursing" {
		t.Fatalf("expected category filter, got %v", sampler.filters[0])
	}
}

func TestProfileCorpusCapsFilteredSample(t *testing.T) {
	llm := &stubLLM{response: `{}`}
	sampler := &stubSampler{chunks: sampleChunks(60)}
	ex, _ := New(llm, sampler)

	if _, err := ex.ProfileCorpus(context.Background(), 500, "Nursing"); err != nil {
		t.Fatalf("ProfileCorpus error: %v", err)
	}
	if sampler.ks[0] != maxSampleK {
		t.Fatalf("expected filtered sample capped at %d, got %d", maxSampleK, sampler.ks[0])
	}
}

func TestProfileCorpusEmptyStore(t *testing.T) {
	llm := &stubLLM{response: `{}`}
	ex, _ := New(llm, &stubSampler{})

	_, err := ex.ProfileCorpus(context.Background(), 10, "")
	if !errors.Is(err, ragerrors.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if llm.calls != 0 {
		t.Fatalf("expected no model call on empty corpus, got %d", llm.calls)
	}
}

func TestExtractFieldsDecodesCatalog(t *testing.T) {
	llm := &stubLLM{response: "```json\n" + `{"fields":[{"field_name":"exam_fee","data_type":"currency","examples":["$125"],"description":"exam cost","required":true,"categories":["CNA"]}],"relationships":[],"missing_data":["renewal fees"],"inconsistencies":[]}` + "\n```"}
	ex, _ := New(llm, &stubSampler{chunks: sampleChunks(20)})

	catalog, err := ex.ExtractFields(context.Background(), "", 20)
	if err != nil {
		t.Fatalf("ExtractFields error: %v", err)
	}
	if catalog.Focus != "all healthcare certifications" {
		t.Fatalf("expected default focus, got %q", catalog.Focus)
	}
	if len(catalog.Fields) != 1 || catalog.Fields[0].Name != "exam_fee" {
		t.Fatalf("unexpected fields: %#v", catalog.Fields)
	}
	if len(catalog.MissingData) != 1 {
		t.Fatalf("expected missing data noted, got %v", catalog.MissingData)
	}
}

func TestReconstructWorkflowTargetsProcess(t *testing.T) {
	llm := &stubLLM{response: `{"process_name":"CNA Certification","overview":"...","steps":[{"step_number":1,"title":"Enroll"}]}`}
	sampler := &stubSampler{chunks: sampleChunks(15)}
	ex, _ := New(llm, sampler)

	wf, err := ex.ReconstructWorkflow(context.Background(), "CNA Certification", "Tennessee")
	if err != nil {
		t.Fatalf("ReconstructWorkflow error: %v", err)
	}
	if len(wf.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(wf.Steps))
	}
	if !strings.Contains(sampler.queries[0], "CNA Certification") || !strings.Contains(sampler.queries[0], "Tennessee") {
		t.Fatalf("expected targeted query, got %q", sampler.queries[0])
	}
	if sampler.ks[0] != workflowTopK {
		t.Fatalf("expected k=%d, got %d", workflowTopK, sampler.ks[0])
	}
}

func TestGenerateQuestions(t *testing.T) {
	llm := &stubLLM{response: `{"Getting Started":["What is a CNA?"],"Cost/Affordability":["How much is CNA training?"]}`}
	ex, _ := New(llm, &stubSampler{chunks: sampleChunks(20)})

	qs, err := ex.GenerateQuestions(context.Background(), "")
	if err != nil {
		t.Fatalf("GenerateQuestions error: %v", err)
	}
	if len(qs.Questions) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(qs.Questions))
	}
}

func TestAskMalformedOutput(t *testing.T) {
	llm := &stubLLM{response: "not json at all"}
	ex, _ := New(llm, &stubSampler{chunks: sampleChunks(5)})

	_, err := ex.GenerateQuestions(context.Background(), "nursing")
	if err == nil {
		t.Fatalf("expected error for malformed output")
	}
}
