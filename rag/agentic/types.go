package agentic

import (
	"fmt"

	"github.com/tomenglish23/healthcare-certs-rag/rag/evidence"
)

// Chunk re-exports the evidence chunk type consumed by the pipeline.
type Chunk = evidence.Chunk

// Intent is the classified purpose of a question.
type Intent string

const (
	IntentComparison    Intent = "comparison"     // "Compare CNA vs HHA in Tennessee"
	IntentRequirements  Intent = "requirements"   // "What are the requirements for CNA in TN?"
	IntentCostDuration  Intent = "cost_duration"  // "How much does CNA cost? How long?"
	IntentProcess       Intent = "process"        // "How do I become a CNA in Tennessee?"
	IntentGeneral       Intent = "general"        // General questions
	IntentStudyMaterial Intent = "study_material" // "What should I study for the CNA exam?"
	IntentRenewal       Intent = "renewal"        // "How do I renew my certification?"
)

// ParseIntent maps a raw classification string onto the closed intent set.
// Anything unrecognised degrades to IntentGeneral.
func ParseIntent(raw string) Intent {
	switch Intent(raw) {
	case IntentComparison, IntentRequirements, IntentCostDuration,
		IntentProcess, IntentGeneral, IntentStudyMaterial, IntentRenewal:
		return Intent(raw)
	default:
		return IntentGeneral
	}
}

// Entities carries the structured values extracted from a question.
type Entities struct {
	Category           string   `json:"category,omitempty"`
	SubCategory        string   `json:"sub_category,omitempty"`
	CostPreference     string   `json:"cost_preference,omitempty"`
	DurationPreference string   `json:"duration_preference,omitempty"`
	ComparisonItems    []string `json:"comparison_items,omitempty"`
}

// State is the single mutable record threaded through all pipeline stages.
// It is owned exclusively by one invocation and discarded afterwards.
type State struct {
	// Input, immutable after creation.
	Question string
	Filters  map[string]string

	// Understanding output.
	Intent        Intent
	Entities      Entities
	SearchQueries []string

	// Retrieval output.
	Evidence      []Chunk
	RetrievalPlan string // diagnostic only

	// Generation output.
	DraftAnswer string
	SourcesUsed []string

	// Critique output.
	IsGrounded    bool
	CritiqueNotes string
	MissingInfo   []string
	Confidence    float64

	// Final output.
	FinalAnswer string
	Trace       []string
}

// addTrace appends one human-readable entry to the reasoning trace.
// The trace is append-only; earlier entries are never mutated.
func (s *State) addTrace(format string, args ...any) {
	s.Trace = append(s.Trace, fmt.Sprintf(format, args...))
}

// Result is the structured pipeline outcome handed back to the caller.
type Result struct {
	Answer      string   `json:"answer"`
	Confidence  float64  `json:"confidence"`
	Sources     []string `json:"sources"`
	Intent      Intent   `json:"intent"`
	Entities    Entities `json:"entities"`
	Reasoning   []string `json:"reasoning,omitempty"`
	IsGrounded  bool     `json:"is_grounded"`
	MissingInfo []string `json:"missing_info,omitempty"`
}
