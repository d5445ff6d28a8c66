// Package visibility is the internal data-exploration toolkit for the
// certification corpus. It is not part of the question-answering path;
// it exists so operators can answer "what is actually in this data"
// without reading every source file.
package visibility

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ragerrors "github.com/tomenglish23/healthcare-certs-rag/errors"
	"github.com/tomenglish23/healthcare-certs-rag/message"
	"github.com/tomenglish23/healthcare-certs-rag/pkg/logging"
	"github.com/tomenglish23/healthcare-certs-rag/provider"
	"github.com/tomenglish23/healthcare-certs-rag/rag/evidence"
	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

const (
	defaultProfileSamples  = 25
	defaultFieldSamples    = 20
	defaultQuestionSamples = 20
	workflowTopK           = 12
	maxSampleK             = 50
)

// Sampler is the corpus view the explorer draws samples from.
// *index.Index satisfies it; an empty query yields a broad sample.
type Sampler interface {
	Search(ctx context.Context, query string, k int, filter *vector.Filter) ([]evidence.Chunk, error)
}

// Explorer runs the visibility modes against a corpus sampler and a
// completion client. All methods are safe for concurrent use.
type Explorer struct {
	llm     provider.Completer
	sampler Sampler
	timeout time.Duration
	logger  *slog.Logger
}

// New wires an explorer. Both dependencies are required.
func New(llm provider.Completer, sampler Sampler) (*Explorer, error) {
	if llm == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if sampler == nil {
		return nil, fmt.Errorf("sampler is required")
	}
	return &Explorer{
		llm:     llm,
		sampler: sampler,
		timeout: 90 * time.Second,
		logger:  logging.WithComponent("visibility"),
	}, nil
}

// Profile describes what the corpus contains: document types,
// certifications, recurring sections, vocabulary, and suggested
// questions. The shape is model-determined, so it stays a free map.
type Profile struct {
	SamplesAnalyzed int            `json:"samples_analyzed"`
	Report          map[string]any `json:"report"`
}

// ProfileCorpus samples n chunks (optionally restricted to a category)
// and asks the model for a corpus profile.
func (e *Explorer) ProfileCorpus(ctx context.Context, n int, category string) (*Profile, error) {
	if n <= 0 {
		n = defaultProfileSamples
	}
	var filter *vector.Filter
	if category != "" {
		filter = &vector.Filter{Category: category}
	}

	chunks, err := e.sample(ctx, n, filter)
	if err != nil {
		return nil, err
	}

	report, err := ask[map[string]any](ctx, e, profileSystemPrompt, strings.NewReplacer(
		"{{n_samples}}", fmt.Sprintf("%d", len(chunks)),
		"{{chunks}}", joinChunks(chunks),
	).Replace(profilePrompt))
	if err != nil {
		return nil, err
	}
	e.logger.Info("corpus profiled", "samples", len(chunks), "category", category)
	return &Profile{SamplesAnalyzed: len(chunks), Report: *report}, nil
}

// Field is one structured data point the model found in the corpus.
type Field struct {
	Name        string   `json:"field_name"`
	DataType    string   `json:"data_type"`
	Examples    []string `json:"examples"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Categories  []string `json:"categories"`
}

// FieldCatalog is the extracted field inventory plus data-quality notes.
type FieldCatalog struct {
	Focus           string   `json:"focus"`
	Fields          []Field  `json:"fields"`
	Relationships   []string `json:"relationships"`
	MissingData     []string `json:"missing_data"`
	Inconsistencies []string `json:"inconsistencies"`
}

// ExtractFields catalogs the data points present in a corpus sample.
func (e *Explorer) ExtractFields(ctx context.Context, focus string, n int) (*FieldCatalog, error) {
	if focus == "" {
		focus = "all healthcare certifications"
	}
	if n <= 0 {
		n = defaultFieldSamples
	}

	chunks, err := e.sample(ctx, n, nil)
	if err != nil {
		return nil, err
	}

	catalog, err := ask[FieldCatalog](ctx, e, fieldSystemPrompt, strings.NewReplacer(
		"{{focus_area}}", focus,
		"{{chunks}}", joinChunks(chunks),
	).Replace(fieldPrompt))
	if err != nil {
		return nil, err
	}
	catalog.Focus = focus
	e.logger.Info("fields extracted", "focus", focus, "fields", len(catalog.Fields))
	return catalog, nil
}

// WorkflowStep is one ordered step of a reconstructed process.
type WorkflowStep struct {
	StepNumber     int      `json:"step_number"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Requirements   []string `json:"requirements"`
	Duration       string   `json:"estimated_duration"`
	Cost           string   `json:"estimated_cost"`
	Where          string   `json:"where_to_do_this"`
	Tips           []string `json:"tips"`
	CommonMistakes []string `json:"common_mistakes"`
}

// Workflow is a complete certification process reconstructed from the
// corpus, with prerequisites, steps, and post-certification guidance.
type Workflow struct {
	ProcessName   string `json:"process_name"`
	Overview      string `json:"overview"`
	Prerequisites []struct {
		Requirement string `json:"requirement"`
		HowToMeet   string `json:"how_to_meet"`
	} `json:"prerequisites"`
	TotalCost     string         `json:"total_estimated_cost"`
	TotalDuration string         `json:"total_estimated_duration"`
	Steps         []WorkflowStep `json:"steps"`
	AfterCert     struct {
		Maintenance string   `json:"maintenance"`
		Renewal     string   `json:"renewal"`
		CareerPaths []string `json:"career_paths"`
	} `json:"after_certification"`
	FinancialAid []string `json:"financial_aid_options"`
}

// ReconstructWorkflow rebuilds a step-by-step process for one
// certification in one state, retrieving targeted evidence rather than
// a broad sample.
func (e *Explorer) ReconstructWorkflow(ctx context.Context, process, state string) (*Workflow, error) {
	if process == "" {
		process = "CNA Certification"
	}
	if state == "" {
		state = "Tennessee"
	}

	query := fmt.Sprintf("%s %s requirements steps process", process, state)
	chunks, err := e.sampler.Search(ctx, query, workflowTopK, nil)
	if err != nil {
		return nil, fmt.Errorf("workflow search: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no content for process %q", ragerrors.ErrNotFound, process)
	}

	wf, err := ask[Workflow](ctx, e, workflowSystemPrompt, strings.NewReplacer(
		"{{process_name}}", process,
		"{{state}}", state,
		"{{chunks}}", joinChunks(chunks),
	).Replace(workflowPrompt))
	if err != nil {
		return nil, err
	}
	if wf.ProcessName == "" {
		wf.ProcessName = process
	}
	e.logger.Info("workflow reconstructed", "process", process, "state", state, "steps", len(wf.Steps))
	return wf, nil
}

// QuestionSet groups generated user questions by scenario category.
type QuestionSet struct {
	Focus     string              `json:"focus"`
	Questions map[string][]string `json:"questions"`
}

// GenerateQuestions produces realistic user questions grounded in a
// corpus sample, useful as regression seeds for the answering pipeline.
func (e *Explorer) GenerateQuestions(ctx context.Context, focus string) (*QuestionSet, error) {
	if focus == "" {
		focus = "all certifications"
	}

	chunks, err := e.sample(ctx, defaultQuestionSamples, nil)
	if err != nil {
		return nil, err
	}

	questions, err := ask[map[string][]string](ctx, e, questionSystemPrompt, strings.NewReplacer(
		"{{focus_area}}", focus,
		"{{chunks}}", joinChunks(chunks),
	).Replace(questionPrompt))
	if err != nil {
		return nil, err
	}
	e.logger.Info("questions generated", "focus", focus, "categories", len(*questions))
	return &QuestionSet{Focus: focus, Questions: *questions}, nil
}

// Mode describes one visibility mode for discovery endpoints.
type Mode struct {
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// Modes lists the available visibility modes.
func Modes() []Mode {
	return []Mode{
		{
			Name:        "Corpus Profiler",
			Endpoint:    "/api/visibility/profile",
			Method:      "POST",
			Description: "What's in this data? Get an overview of the knowledge base.",
		},
		{
			Name:        "Field Catalog",
			Endpoint:    "/api/visibility/fields",
			Method:      "POST",
			Description: "What are the important fields? Extract structured data points.",
		},
		{
			Name:        "Workflow Reconstructor",
			Endpoint:    "/api/visibility/workflow",
			Method:      "POST",
			Description: "What steps do people take? Reconstruct certification processes.",
		},
		{
			Name:        "Question Generator",
			Endpoint:    "/api/visibility/questions",
			Method:      "POST",
			Description: "What would users ask? Generate realistic test questions.",
		},
	}
}

// sample pulls up to n chunks with an intentionally vague query so the
// store returns a broad cross-section of the corpus.
func (e *Explorer) sample(ctx context.Context, n int, filter *vector.Filter) ([]evidence.Chunk, error) {
	k := n
	if k > maxSampleK {
		k = maxSampleK
	}
	chunks, err := e.sampler.Search(ctx, " ", k, filter)
	if err != nil {
		return nil, fmt.Errorf("sample corpus: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: corpus has no chunks", ragerrors.ErrNotFound)
	}
	if len(chunks) > n {
		chunks = chunks[:n]
	}
	return chunks, nil
}

// ask sends one system+user exchange and decodes the JSON reply into T.
func ask[T any](ctx context.Context, e *Explorer, system, prompt string) (*T, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.llm.Generate(callCtx, []*message.Message{
		message.NewMessage(message.RoleSystem, system),
		message.NewMessage(message.RoleUser, prompt),
	})
	if err != nil {
		return nil, provider.Classify("visibility.ask", err)
	}
	out, err := decodeJSON[T](resp.Text())
	if err != nil {
		return nil, provider.Malformed("visibility.ask", err)
	}
	return out, nil
}

func joinChunks(chunks []evidence.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n---\n\n")
}
