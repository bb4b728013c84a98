package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/soarlabs/soar/internal/domain"
)

// Learnability detection constants
const (
	HardTermBonus     = 0.04 // Per occurrence of a hard lexical indicator
	HardTermCap       = 0.2  // Total cap on hard-term bonuses
	QuestionTypeBonus = 0.1  // Meta-analytical, causal, or speculative questions
	HardDomainBonus   = 0.1  // Query falls in a known-hard domain
	EntityCountBonus  = 0.05 // Per entity-count tier (>5, >10)
	WordCountBonus    = 0.05 // Per word-count tier (>50, >100)

	// Proxy signal maps, used when no prior signals are supplied.
	ProxyConfidenceSlope = 0.8
	ProxyEntropyBase     = 0.2
	ProxyEntropySlope    = 0.7
	ProxyDissonanceSlope = 0.5

	// Depth recommendation
	DeepDifficultyThreshold = 0.8
)

// hardIndicators are lexical markers that reliably correlate with queries the
// pipeline struggles on.
var hardIndicators = []string{
	"paradox",
	"undecidable",
	"confounding",
	"self-referential",
	"incompleteness",
	"counterfactual",
	"emergent",
	"nonlinear",
	"intractable",
	"irreducible",
	"meta-analysis",
	"contradictory evidence",
}

var hardDomains = map[string]bool{
	"philosophy":          true,
	"epistemology":        true,
	"metaphysics":         true,
	"ethics":              true,
	"consciousness":       true,
	"mathematics":         true,
	"theoretical_physics": true,
	"complex_systems":     true,
}

// ProbeLearnability scores how difficult a query is for the current engine and
// decides whether the curriculum loop should engage. Pure and synchronous; it
// gates every query, so it must stay cheap. It cannot fail: absent inputs fall
// back to neutral defaults.
func ProbeLearnability(analysis domain.QueryAnalysis, prior *domain.SignalSnapshot, thresholds domain.Thresholds) domain.LearnabilityProbe {
	difficulty := estimateDifficulty(analysis)

	var confidence, entropy, dissonance float64
	if prior != nil {
		confidence = prior.Confidence
		entropy = prior.Entropy
		dissonance = prior.Dissonance
	} else {
		proxy := ProxySignals(difficulty)
		confidence = proxy.Confidence
		entropy = proxy.Entropy
		dissonance = proxy.Dissonance
	}

	lowConfidence := confidence < thresholds.ConfidenceFloor
	highEntropy := entropy > thresholds.EntropyCeiling
	highDissonance := dissonance > thresholds.DissonanceCeiling

	tripped := 0
	for _, signal := range []bool{lowConfidence, highEntropy, highDissonance} {
		if signal {
			tripped++
		}
	}

	// Majority vote over three weak signals, plus a hard difficulty floor.
	// A single tripped signal is too noisy to justify the loop's cost.
	atEdge := difficulty >= thresholds.DifficultyFloor && tripped >= 2

	depth := 0
	if atEdge {
		depth = 2
		if tripped == 3 || difficulty > DeepDifficultyThreshold {
			depth = 3
		}
	}

	return domain.LearnabilityProbe{
		EstimatedDifficulty: difficulty,
		ProbeConfidence:     confidence,
		ProbeEntropy:        entropy,
		AtEdge:              atEdge,
		Reason:              probeReason(difficulty, thresholds, lowConfidence, highEntropy, highDissonance),
		RecommendedDepth:    depth,
		Timestamp:           time.Now().UTC(),
	}
}

// ProxySignals maps an estimated difficulty onto a stand-in signal snapshot
// for callers that have no live signals to report.
func ProxySignals(difficulty float64) domain.SignalSnapshot {
	entropy := domain.Clamp01(ProxyEntropyBase + ProxyEntropySlope*difficulty)
	dissonance := domain.Clamp01(ProxyDissonanceSlope * difficulty)
	return domain.SignalSnapshot{
		Confidence:         domain.Clamp01(1 - ProxyConfidenceSlope*difficulty),
		Entropy:            entropy,
		Dissonance:         dissonance,
		HealthScore:        domain.HealthFromSignals(entropy, dissonance),
		PersistenceEntropy: entropy,
	}
}

func estimateDifficulty(analysis domain.QueryAnalysis) float64 {
	difficulty := domain.Clamp01(analysis.ComplexityScore)
	queryLower := strings.ToLower(analysis.Query)

	hardBonus := 0.0
	for _, indicator := range hardIndicators {
		hardBonus += float64(strings.Count(queryLower, indicator)) * HardTermBonus
	}
	if hardBonus > HardTermCap {
		hardBonus = HardTermCap
	}
	difficulty += hardBonus

	switch analysis.QuestionType {
	case domain.QuestionMetaAnalytical, domain.QuestionCausal, domain.QuestionSpeculative:
		difficulty += QuestionTypeBonus
	}

	if hardDomains[strings.ToLower(analysis.Domain)] {
		difficulty += HardDomainBonus
	}

	entityCount := len(analysis.Entities)
	if entityCount > 5 {
		difficulty += EntityCountBonus
	}
	if entityCount > 10 {
		difficulty += EntityCountBonus
	}

	wordCount := len(strings.Fields(analysis.Query))
	if wordCount > 50 {
		difficulty += WordCountBonus
	}
	if wordCount > 100 {
		difficulty += WordCountBonus
	}

	return domain.Clamp01(difficulty)
}

func probeReason(difficulty float64, thresholds domain.Thresholds, lowConfidence, highEntropy, highDissonance bool) string {
	if difficulty < thresholds.DifficultyFloor {
		return fmt.Sprintf("difficulty %.2f below floor %.2f; query is comfortably within reach", difficulty, thresholds.DifficultyFloor)
	}

	var tripped []string
	if lowConfidence {
		tripped = append(tripped, "low confidence")
	}
	if highEntropy {
		tripped = append(tripped, "high entropy")
	}
	if highDissonance {
		tripped = append(tripped, "high dissonance")
	}

	if len(tripped) < 2 {
		return fmt.Sprintf("difficulty %.2f but only %d/3 weak signals tripped; iteration unlikely to pay off", difficulty, len(tripped))
	}
	return fmt.Sprintf("difficulty %.2f with %s; query is at the edge of learnability", difficulty, strings.Join(tripped, ", "))
}
