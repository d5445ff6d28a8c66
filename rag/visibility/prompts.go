package visibility

import (
	"encoding/json"
	"fmt"
	"strings"
)

const profileSystemPrompt = `You are a data profiler analyzing a knowledge base about healthcare and trade certifications.

Analyze the sample chunks and provide a comprehensive profile:

1. Document Types: what kinds of documents and topics are represented
2. States Covered: which US states are mentioned
3. Certifications Found: what certifications and credentials are discussed
4. Common Sections: section headings that appear repeatedly
5. Key Entities: important organizations, agencies, and programs
6. Cost Information: range of costs mentioned
7. Duration Information: training and certification timeframes
8. Financial Aid Programs: aid programs mentioned
9. Domain Vocabulary: specialized terms and acronyms
10. Suggested Questions: 15 realistic questions users would ask

Respond with a single JSON object.`

const profilePrompt = `Profile these {{n_samples}} sample chunks:

{{chunks}}`

const fieldSystemPrompt = `You are a schema extractor analyzing healthcare certification content.

Extract every important field or data point. For each field provide:
- field_name: standardized name (e.g. "training_hours", "exam_fee")
- data_type: string, number, currency, duration, list, or boolean
- examples: 2-3 actual values you found
- description: what the field represents
- required: whether this is typically required information
- categories: which certifications use this field

Also identify relationships between fields, data that seems missing, and
inconsistencies in how values are presented.

Respond with JSON in this shape:
{
  "fields": [{"field_name": "...", "data_type": "...", "examples": ["..."], "description": "...", "required": true, "categories": ["..."]}],
  "relationships": ["..."],
  "missing_data": ["..."],
  "inconsistencies": ["..."]
}`

const fieldPrompt = `Extract fields from this content about: {{focus_area}}

{{chunks}}`

const workflowSystemPrompt = `You are reconstructing a step-by-step certification process from documentation.

Create a complete workflow covering prerequisites, each step with its
requirements, duration, and cost, common mistakes, tips, and what happens
after certification.

Respond with JSON in this shape:
{
  "process_name": "...",
  "overview": "...",
  "prerequisites": [{"requirement": "...", "how_to_meet": "..."}],
  "total_estimated_cost": "...",
  "total_estimated_duration": "...",
  "steps": [{"step_number": 1, "title": "...", "description": "...", "requirements": ["..."], "estimated_duration": "...", "estimated_cost": "...", "where_to_do_this": "...", "tips": ["..."], "common_mistakes": ["..."]}],
  "after_certification": {"maintenance": "...", "renewal": "...", "career_paths": ["..."]},
  "financial_aid_options": ["..."]
}`

const workflowPrompt = `Reconstruct the complete workflow for: {{process_name}}

State: {{state}}

Content:
{{chunks}}`

const questionSystemPrompt = `You are generating realistic user questions for a healthcare certification guidance system.

Generate questions real users would actually type, across these scenario
categories: Getting Started, Comparison, Requirements, Cost/Affordability,
Time/Schedule, Process, Exam Prep, After Certification, Edge Cases, and
Financial Aid. Produce 5-7 specific questions per category grounded in the
actual content.

Respond with a JSON object whose keys are the category names and whose
values are arrays of question strings.`

const questionPrompt = `Generate user questions based on:

Focus: {{focus_area}}

Content:
{{chunks}}`

// decodeJSON unmarshals model output into T after stripping code fences.
func decodeJSON[T any](raw string) (*T, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	var out T
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	return &out, nil
}
