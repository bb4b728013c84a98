package domain

type QuestionType string

const (
	QuestionFactual        QuestionType = "factual"
	QuestionCausal         QuestionType = "causal"
	QuestionComparative    QuestionType = "comparative"
	QuestionSpeculative    QuestionType = "speculative"
	QuestionMetaAnalytical QuestionType = "meta_analytical"
)

func ValidQuestionType(t string) bool {
	switch QuestionType(t) {
	case QuestionFactual, QuestionCausal, QuestionComparative, QuestionSpeculative, QuestionMetaAnalytical:
		return true
	}
	return false
}

// QueryAnalysis is the read-only triage result produced upstream for a query.
// The detector consumes it as-is and never re-derives the complexity score.
type QueryAnalysis struct {
	Query           string       `json:"query"`
	Domain          string       `json:"domain"`
	QuestionType    QuestionType `json:"question_type"`
	ComplexityScore float64      `json:"complexity_score"`
	Entities        []string     `json:"entities,omitempty"`
	RequiresContext bool         `json:"requires_context,omitempty"`
	IsAmbiguous     bool         `json:"is_ambiguous,omitempty"`
}

type InferenceMode string

const (
	ModeOffline InferenceMode = "offline"
	ModeHybrid  InferenceMode = "hybrid"
	ModeFull    InferenceMode = "full"
)

// ModeCaps are the per-mode resource governors applied before the iteration
// loop starts. They bound cost, not correctness.
type ModeCaps struct {
	MaxIterations int
	MaxStones     int
}

func (m InferenceMode) Caps() ModeCaps {
	switch m {
	case ModeHybrid:
		return ModeCaps{MaxIterations: 3, MaxStones: 3}
	case ModeFull:
		return ModeCaps{MaxIterations: 3, MaxStones: 4}
	default:
		// Unknown modes get the cheapest caps.
		return ModeCaps{MaxIterations: 2, MaxStones: 2}
	}
}
