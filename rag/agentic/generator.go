package agentic

import (
	"context"
	"strings"

	"github.com/tomenglish23/healthcare-certs-rag/message"
	"github.com/tomenglish23/healthcare-certs-rag/provider"
)

// Fixed user-facing messages. Tests and API consumers rely on the exact
// wording, so change them deliberately.
const (
	// InsufficientInfoMessage is returned when retrieval produced no
	// evidence. No model call is made in that case.
	InsufficientInfoMessage = "I couldn't find relevant information to answer your question. " +
		"Please try rephrasing or being more specific about the category or certification you're interested in."

	// GenerationErrorMessage replaces the draft when the drafting model
	// call fails.
	GenerationErrorMessage = "I encountered an error generating the answer. Please try again."
)

// generator drafts an answer from the assembled evidence using an
// intent-specific template. With no evidence it short-circuits to the
// insufficient-information message without touching the model.
type generator struct {
	llm provider.Completer
	cfg *Config
}

func (g *generator) run(ctx context.Context, st *State) {
	if len(st.Evidence) == 0 {
		st.DraftAnswer = InsufficientInfoMessage
		st.SourcesUsed = nil
		st.addTrace("no evidence retrieved, skipping generation")
		return
	}

	contextBlock, sources := assembleContext(st.Evidence)
	st.SourcesUsed = sources

	template, ok := generatePrompts[st.Intent]
	if !ok {
		template = generatePrompts[IntentGeneral]
	}
	prompt := strings.NewReplacer(
		"{{context}}", contextBlock,
		"{{question}}", st.Question,
	).Replace(template)

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.CompletionTimeout)
	defer cancel()

	resp, err := g.llm.Generate(callCtx, []*message.Message{
		message.NewMessage(message.RoleSystem, generateSystemPrompt),
		message.NewMessage(message.RoleUser, prompt),
	})
	if err != nil {
		serr := provider.Classify("generate", err)
		g.cfg.Logger.Error("answer generation failed", "error", serr)
		st.DraftAnswer = GenerationErrorMessage
		st.addTrace("generation failed (%s)", serr.Kind)
		return
	}

	st.DraftAnswer = strings.TrimSpace(resp.Text())
	st.addTrace("generated draft from %d sources", len(sources))
}

// assembleContext renders the evidence as labelled blocks and returns
// the distinct source labels in first-appearance order.
func assembleContext(chunks []Chunk) (string, []string) {
	var blocks []string
	var sources []string
	seen := make(map[string]bool)
	for i, c := range chunks {
		label := c.SourceLabel(i)
		blocks = append(blocks, "["+label+"]\n"+c.Text)
		if !seen[label] {
			seen[label] = true
			sources = append(sources, label)
		}
	}
	return strings.Join(blocks, "\n\n---\n\n"), sources
}
