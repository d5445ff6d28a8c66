package agentic

import (
	"context"
	"math"
	"strings"

	"github.com/tomenglish23/healthcare-certs-rag/message"
	"github.com/tomenglish23/healthcare-certs-rag/provider"
)

const (
	insufficientConfidence = 0.1
	neutralAdjustment      = 0.8
	fallbackConfidence     = 0.5
)

// groundingVerdict is the JSON shape the critique model returns.
// ConfidenceAdjustment is a pointer so an omitted field falls back to
// the neutral default instead of zeroing the confidence.
type groundingVerdict struct {
	IsGrounded           bool     `json:"is_grounded"`
	Issues               []string `json:"issues"`
	MissingInfo          []string `json:"missing_info"`
	ConfidenceAdjustment *float64 `json:"confidence_adjustment"`
}

// critic spot-checks the draft against the leading evidence chunks and
// scores confidence as evidence volume scaled by the model's adjustment.
// A critic failure is never fatal: the draft passes through as grounded
// at middling confidence.
type critic struct {
	llm provider.Completer
	cfg *Config
}

func (c *critic) run(ctx context.Context, st *State) {
	if len(st.Evidence) == 0 || st.DraftAnswer == InsufficientInfoMessage {
		st.IsGrounded = false
		st.Confidence = insufficientConfidence
		return
	}
	if !c.cfg.EnableCritic {
		st.IsGrounded = true
		st.Confidence = c.volumeConfidence(st, 1.0)
		return
	}

	limit := c.cfg.CriticChunkLimit
	if limit > len(st.Evidence) {
		limit = len(st.Evidence)
	}
	var texts []string
	for _, chunk := range st.Evidence[:limit] {
		texts = append(texts, chunk.Text)
	}

	prompt := strings.NewReplacer(
		"{{evidence}}", strings.Join(texts, "\n\n"),
		"{{question}}", st.Question,
		"{{answer}}", st.DraftAnswer,
	).Replace(critiquePrompt)

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CompletionTimeout)
	defer cancel()

	resp, err := c.llm.Generate(callCtx, []*message.Message{
		message.NewMessage(message.RoleSystem, critiqueSystemPrompt),
		message.NewMessage(message.RoleUser, prompt),
	})
	if err != nil {
		serr := provider.Classify("critique", err)
		c.cfg.Logger.Warn("critique failed, accepting draft", "error", serr)
		c.acceptDraft(st, "critique call failed")
		return
	}

	verdict, err := decodeJSON[groundingVerdict](resp.Text())
	if err != nil {
		c.cfg.Logger.Warn("critique returned invalid JSON, accepting draft", "error", err)
		c.acceptDraft(st, "critique output unparseable")
		return
	}

	adjustment := neutralAdjustment
	if verdict.ConfidenceAdjustment != nil {
		adjustment = clamp01(*verdict.ConfidenceAdjustment)
	}

	st.IsGrounded = verdict.IsGrounded
	st.CritiqueNotes = strings.Join(verdict.Issues, "; ")
	st.MissingInfo = verdict.MissingInfo
	st.Confidence = c.volumeConfidence(st, adjustment)
	st.addTrace("critique: grounded=%t, confidence=%.2f", st.IsGrounded, st.Confidence)
}

func (c *critic) acceptDraft(st *State, reason string) {
	st.IsGrounded = true
	st.Confidence = fallbackConfidence
	st.addTrace("critique: skipped (%s)", reason)
}

// volumeConfidence scales evidence volume against the store cap, so a
// full evidence set at full adjustment scores 1.0.
func (c *critic) volumeConfidence(st *State, adjustment float64) float64 {
	base := float64(len(st.Evidence)) / float64(c.cfg.MaxEvidence)
	return round2(math.Min(1.0, base*adjustment))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
