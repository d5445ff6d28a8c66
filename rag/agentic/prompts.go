package agentic

// Prompts for the three model-backed stages. Placeholders are substituted
// with strings.Replacer; every prompt that expects JSON back says so
// explicitly because smaller models drift into prose otherwise.

const understandSystemPrompt = `You are a query analyst for a healthcare certification knowledge base.
Classify the user's question and extract structured entities.
Respond with a single JSON object and nothing else.`

const understandPrompt = `Analyze this question about healthcare certifications.

Question: {{question}}

Known categories: {{categories}}
Known sub-categories: {{sub_categories}}

Classify the intent as exactly one of:
- comparison: comparing two or more certifications or programs
- requirements: prerequisites or eligibility for a certification
- cost_duration: cost, fees, or how long a program takes
- process: the steps to obtain a certification
- study_material: what to study or how to prepare for an exam
- renewal: renewing or maintaining an existing certification
- general: anything else

Return JSON in this exact shape:
{
  "intent": "<one of the intents above>",
  "entities": {
    "category": "<matching category or empty>",
    "sub_category": "<matching sub-category or empty>",
    "cost_preference": "<stated cost preference or empty>",
    "duration_preference": "<stated duration preference or empty>",
    "comparison_items": ["<items being compared, if any>"]
  },
  "search_queries": ["<up to 3 search queries covering the question>"],
  "reasoning": "<one sentence>"
}`

const generateSystemPrompt = `You are a helpful advisor for healthcare certifications and training programs.
Answer using ONLY the provided context. If the context does not contain the
answer, say so plainly. Cite sources by their bracketed labels.`

// generatePrompts selects the drafting template by intent. Unmapped
// intents fall back to the general template.
var generatePrompts = map[Intent]string{
	IntentComparison: `Compare the items the user asked about using the context below.
Present the comparison as a structured breakdown covering requirements, cost,
duration, and career outlook where the context provides them. Note any aspect
the context does not cover.

Context:
{{context}}

Question: {{question}}`,

	IntentRequirements: `List the requirements for the certification the user asked about,
using only the context below. Group them as prerequisites, training, and
examination where the context supports that grouping.

Context:
{{context}}

Question: {{question}}`,

	IntentCostDuration: `Answer the user's cost or duration question using only the context
below. Give concrete figures when present and state ranges as ranges. If
costs or timelines vary by provider or state, say so.

Context:
{{context}}

Question: {{question}}`,

	IntentProcess: `Describe the step-by-step process the user asked about using only
the context below. Number the steps in order and mention prerequisites
before the steps that need them.

Context:
{{context}}

Question: {{question}}`,

	IntentStudyMaterial: `Recommend study materials and preparation strategies using only the
context below. Organize by exam section or topic where the context allows.

Context:
{{context}}

Question: {{question}}`,

	IntentRenewal: `Explain the renewal or maintenance requirements using only the context
below. Include deadlines, continuing-education hours, and fees when the
context provides them.

Context:
{{context}}

Question: {{question}}`,

	IntentGeneral: `Answer the question using only the context below. Be concise and
concrete, and cite the bracketed source labels you drew from.

Context:
{{context}}

Question: {{question}}`,
}

const critiqueSystemPrompt = `You are a strict fact checker.
Verify that an answer is fully supported by the supplied evidence.
Respond with a single JSON object and nothing else.`

const critiquePrompt = `Evidence:
{{evidence}}

Question: {{question}}

Answer to verify:
{{answer}}

Check every claim in the answer against the evidence. Return JSON:
{
  "is_grounded": <true if every claim is supported by the evidence>,
  "issues": ["<each unsupported or contradicted claim>"],
  "missing_info": ["<information the question needs that the evidence lacks>"],
  "confidence_adjustment": <0.0 to 1.0, how much to trust this answer>
}`
