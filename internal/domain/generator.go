package domain

import "context"

// CurriculumRequest asks the generator, playing the teacher role, for a set of
// stepping-stone questions. PreviousImproved is nil on the first iteration.
type CurriculumRequest struct {
	TargetQuery       string
	Domain            string
	QuestionType      QuestionType
	MaxStones         int
	Iteration         int
	PreviousImproved  *bool
	PreviousComposite float64
}

// StoneDraft is one teacher-proposed stepping stone before IDs and structural
// scoring are applied.
type StoneDraft struct {
	Question           string  `json:"question"`
	TargetSkill        string  `json:"target_skill"`
	RelativeDifficulty float64 `json:"relative_difficulty"`
}

type CurriculumDraft struct {
	Rationale string       `json:"rationale"`
	Stones    []StoneDraft `json:"stones"`
}

// PriorAttempt is a question/answer pair from earlier in the same iteration,
// fed back to the student so stones build on one another.
type PriorAttempt struct {
	Question string
	Answer   string
}

type StoneRequest struct {
	Question    string
	TargetQuery string
	Prior       []PriorAttempt
}

type StoneResult struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Entropy    float64 `json:"entropy"`
}

type TargetRequest struct {
	Query        string
	Domain       string
	QuestionType QuestionType
	Stones       []PriorAttempt
}

type TargetResult struct {
	Analysis   string  `json:"analysis"`
	Confidence float64 `json:"confidence"`
	Entropy    float64 `json:"entropy"`
	Dissonance float64 `json:"dissonance"`
}

// Generator is the single injected text-generation capability. Teacher and
// student are prompts over the same client, not separate models. Callers may
// pass a nil Generator to request fully deterministic template operation; the
// services degrade without a network call.
type Generator interface {
	GenerateCurriculum(ctx context.Context, req CurriculumRequest) (*CurriculumDraft, error)
	AttemptStone(ctx context.Context, req StoneRequest) (*StoneResult, error)
	AttemptTarget(ctx context.Context, req TargetRequest) (*TargetResult, error)
	VerifyContradiction(ctx context.Context, claimA, claimB string) (*ContradictionVerdict, error)
}

// EmbeddingClient produces vector embeddings for similar-session lookup.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
