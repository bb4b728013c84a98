package domain

import (
	"time"

	"github.com/google/uuid"
)

type ContradictionType string

const (
	ContradictionFactual        ContradictionType = "factual"
	ContradictionLogical        ContradictionType = "logical"
	ContradictionTemporal       ContradictionType = "temporal"
	ContradictionScope          ContradictionType = "scope"
	ContradictionMethodological ContradictionType = "methodological"
)

func ValidContradictionType(t string) bool {
	switch ContradictionType(t) {
	case ContradictionFactual, ContradictionLogical, ContradictionTemporal,
		ContradictionScope, ContradictionMethodological:
		return true
	}
	return false
}

// Contradiction is one recorded conflict between two claims pulled from the
// same analysis text.
type Contradiction struct {
	ID          uuid.UUID         `json:"id"`
	ClaimA      string            `json:"claim_a"`
	SourceA     int               `json:"source_a"`
	ClaimB      string            `json:"claim_b"`
	SourceB     int               `json:"source_b"`
	Confidence  float64           `json:"confidence"`
	Type        ContradictionType `json:"type"`
	Explanation string            `json:"explanation"`
	DetectedAt  time.Time         `json:"detected_at"`
}

// ContradictionScan is the result of the all-pairs pass over extracted claims.
// ComputedDissonance is a measured figure, capped at 1.
type ContradictionScan struct {
	TotalClaims        int             `json:"total_claims"`
	TotalComparisons   int             `json:"total_comparisons"`
	Contradictions     []Contradiction `json:"contradictions"`
	ComputedDissonance float64         `json:"computed_dissonance"`
	DurationMs         int64           `json:"duration_ms"`
}

// ContradictionVerdict is a generator-backed second opinion on one claim pair.
type ContradictionVerdict struct {
	Contradicts bool              `json:"contradicts"`
	Confidence  float64           `json:"confidence"`
	Type        ContradictionType `json:"type"`
	Explanation string            `json:"explanation"`
}
