package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusProbing    SessionStatus = "probing"
	StatusTeaching   SessionStatus = "teaching"
	StatusLearning   SessionStatus = "learning"
	StatusEvaluating SessionStatus = "evaluating"
	StatusComplete   SessionStatus = "complete"
	StatusAborted    SessionStatus = "aborted"
)

// statusOrder encodes the forward-only state machine. Complete and aborted are
// both terminal.
var statusOrder = map[SessionStatus]int{
	StatusProbing:    0,
	StatusTeaching:   1,
	StatusLearning:   2,
	StatusEvaluating: 3,
	StatusComplete:   4,
	StatusAborted:    4,
}

// CanTransition reports whether a session may move from one status to another.
// Teaching is re-enterable from evaluating (next iteration); otherwise status
// only moves forward.
func CanTransition(from, to SessionStatus) bool {
	if from == StatusComplete || from == StatusAborted {
		return false
	}
	if from == StatusEvaluating && to == StatusTeaching {
		return true
	}
	return statusOrder[to] > statusOrder[from]
}

// Transition advances the session's status, rejecting any move the
// forward-only machine does not allow. The status is left untouched on error.
func (s *Session) Transition(to SessionStatus) error {
	if !CanTransition(s.Status, to) {
		return fmt.Errorf("illegal session status transition %s -> %s", s.Status, to)
	}
	s.Status = to
	return nil
}

// LearnabilityProbe is the detector's verdict on whether a query sits at the
// edge of learnability. Produced once per session, before any generator call.
type LearnabilityProbe struct {
	EstimatedDifficulty float64   `json:"estimated_difficulty"`
	ProbeConfidence     float64   `json:"probe_confidence"`
	ProbeEntropy        float64   `json:"probe_entropy"`
	AtEdge              bool      `json:"at_edge"`
	Reason              string    `json:"reason"`
	RecommendedDepth    int       `json:"recommended_depth"`
	Timestamp           time.Time `json:"timestamp"`
}

// SteppingStone is one deliberately easier sub-question in a curriculum.
// StructuralQuality is filled in after generation; WasUseful is assigned
// retroactively from the whole iteration's reward, never per-stone.
type SteppingStone struct {
	ID                 uuid.UUID `json:"id"`
	Question           string    `json:"question"`
	TargetSkill        string    `json:"target_skill"`
	RelativeDifficulty float64   `json:"relative_difficulty"`
	StructuralQuality  *float64  `json:"structural_quality,omitempty"`
	WasUseful          *bool     `json:"was_useful,omitempty"`
}

// Curriculum is one iteration's ordered set of stepping stones, easier first.
type Curriculum struct {
	ID               uuid.UUID       `json:"id"`
	Iteration        int             `json:"iteration"`
	Stones           []SteppingStone `json:"stones"`
	TeacherRationale string          `json:"teacher_rationale"`
}

// StoneAttempt records the student's pass over a single stone. Attempts within
// an iteration are sequential; each one may consult every prior attempt.
type StoneAttempt struct {
	StoneID              uuid.UUID `json:"stone_id"`
	Answer               string    `json:"answer"`
	ConfidenceAfter      float64   `json:"confidence_after"`
	EntropyAfter         float64   `json:"entropy_after"`
	ContributedToContext bool      `json:"contributed_to_context"`
}

// FinalAttempt is a re-answer of the original target query after a curriculum.
type FinalAttempt struct {
	Iteration int            `json:"iteration"`
	Analysis  string         `json:"analysis"`
	Signals   SignalSnapshot `json:"signals"`
}

// Reward is the grounded before/after comparison for one iteration. Every
// delta is signed so that positive always means improvement.
type Reward struct {
	DeltaConfidence         float64 `json:"delta_confidence"`
	DeltaEntropy            float64 `json:"delta_entropy"`
	DeltaDissonance         float64 `json:"delta_dissonance"`
	DeltaHealth             float64 `json:"delta_health"`
	DeltaPersistenceEntropy float64 `json:"delta_persistence_entropy"`
	Composite               float64 `json:"composite"`
	Improved                bool    `json:"improved"`
}

// Session is the aggregate record of one SOAR run. It is created fresh per
// target query, lives for the duration of one Run call, and is returned to the
// caller as an immutable result.
type Session struct {
	ID                  uuid.UUID          `json:"id"`
	TargetQuery         string             `json:"target_query"`
	Mode                InferenceMode      `json:"mode"`
	Probe               *LearnabilityProbe `json:"probe,omitempty"`
	Curricula           []Curriculum       `json:"curricula"`
	StoneAttempts       []StoneAttempt     `json:"stone_attempts"`
	FinalAttempts       []FinalAttempt     `json:"final_attempts"`
	Rewards             []Reward           `json:"rewards"`
	ContradictionScan   *ContradictionScan `json:"contradiction_scan,omitempty"`
	BaselineSignals     SignalSnapshot     `json:"baseline_signals"`
	FinalSignals        *SignalSnapshot    `json:"final_signals,omitempty"`
	FinalAnalysis       string             `json:"final_analysis,omitempty"`
	IterationsCompleted int                `json:"iterations_completed"`
	MaxIterations       int                `json:"max_iterations"`
	OverallImproved     bool               `json:"overall_improved"`
	Status              SessionStatus      `json:"status"`
	StartedAt           time.Time          `json:"started_at"`
	CompletedAt         *time.Time         `json:"completed_at,omitempty"`
	DurationMs          int64              `json:"duration_ms"`
}
