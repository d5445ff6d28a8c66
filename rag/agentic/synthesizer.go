package agentic

import "context"

const (
	// VerificationDisclaimer is appended to low-confidence ungrounded
	// answers that still had some evidence behind them.
	VerificationDisclaimer = "Note: This answer may be incomplete. Please verify specific requirements with official sources."

	// ProcessAdvisoryTip is appended to confident process answers.
	ProcessAdvisoryTip = "Tip: Requirements may change. Always verify with the relevant licensing board."

	lowConfidenceThreshold = 0.3
	processTipThreshold    = 0.5
)

// synthesizer finalizes the draft, attaching the verification disclaimer
// or process tip when their conditions hold. It is purely deterministic.
type synthesizer struct {
	cfg *Config
}

func (s *synthesizer) run(_ context.Context, st *State) {
	final := st.DraftAnswer

	if !st.IsGrounded && len(st.Evidence) > 0 && st.Confidence < lowConfidenceThreshold {
		final += "\n\n" + VerificationDisclaimer
	}
	if st.Intent == IntentProcess && st.Confidence > processTipThreshold {
		final += "\n\n" + ProcessAdvisoryTip
	}

	st.FinalAnswer = final
	st.addTrace("synthesized final answer (confidence %.2f, %d sources)", st.Confidence, len(st.SourcesUsed))
}
