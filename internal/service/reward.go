package service

import (
	"strings"

	"github.com/soarlabs/soar/internal/domain"
)

// Reward constants
const (
	// RewardEpsilon separates genuine improvement from noise. A composite
	// must clear this margin before an iteration counts as improving.
	RewardEpsilon = 0.01

	// Structural quality scoring
	StructuralBase         = 0.5
	SweetSpotBonus         = 0.15 // Word count in the 15-80 range
	LengthPenalty          = 0.2  // Under 8 or over 120 words
	InterrogativeBonus     = 0.15
	ConcreteTermBonus      = 0.1
	NoveltyBonus           = 0.15 // Overlap with target below NoveltyLowOverlap
	RedundancyPenalty      = 0.25 // Overlap with target above NoveltyHighOverlap
	NoveltyLowOverlap      = 0.3
	NoveltyHighOverlap     = 0.7
	SweetSpotMinWords      = 15
	SweetSpotMaxWords      = 80
	ShortQuestionWords     = 8
	LongQuestionWords      = 120
	ConcreteTermMinLetters = 7
)

// ComputeReward turns a before/after signal pair into a grounded reward.
// Sign conventions are explicit so that positive always means improvement:
// confidence and health going up is good, entropy, dissonance, and persistence
// entropy going down is good.
func ComputeReward(baseline, current domain.SignalSnapshot, weights domain.RewardWeights) domain.Reward {
	r := domain.Reward{
		DeltaConfidence:         current.Confidence - baseline.Confidence,
		DeltaEntropy:            baseline.Entropy - current.Entropy,
		DeltaDissonance:         baseline.Dissonance - current.Dissonance,
		DeltaHealth:             current.HealthScore - baseline.HealthScore,
		DeltaPersistenceEntropy: baseline.PersistenceEntropy - current.PersistenceEntropy,
	}

	r.Composite = weights.Confidence*r.DeltaConfidence +
		weights.Entropy*r.DeltaEntropy +
		weights.Dissonance*r.DeltaDissonance +
		weights.Health*r.DeltaHealth +
		weights.Structural*r.DeltaPersistenceEntropy

	r.Improved = r.Composite > RewardEpsilon
	return r
}

var interrogativeLeads = []string{
	"what", "why", "how", "when", "where", "which", "who",
	"does", "do", "is", "are", "can", "could", "would", "should",
}

// AssessStructuralQuality scores how well-formed and non-redundant a stepping
// stone is, independent of whether it gets answered correctly. A stone that
// merely restates the target teaches nothing.
func AssessStructuralQuality(stoneQuestion, targetQuery string) float64 {
	score := StructuralBase

	words := strings.Fields(stoneQuestion)
	wordCount := len(words)
	switch {
	case wordCount >= SweetSpotMinWords && wordCount <= SweetSpotMaxWords:
		score += SweetSpotBonus
	case wordCount < ShortQuestionWords || wordCount > LongQuestionWords:
		score -= LengthPenalty
	}

	trimmed := strings.TrimSpace(strings.ToLower(stoneQuestion))
	if strings.HasSuffix(trimmed, "?") {
		score += InterrogativeBonus
	} else {
		for _, lead := range interrogativeLeads {
			if strings.HasPrefix(trimmed, lead+" ") {
				score += InterrogativeBonus
				break
			}
		}
	}

	for word := range contentWords(stoneQuestion) {
		if len(word) >= ConcreteTermMinLetters {
			score += ConcreteTermBonus
			break
		}
	}

	overlap := jaccard(contentWords(stoneQuestion), contentWords(targetQuery))
	if overlap < NoveltyLowOverlap {
		score += NoveltyBonus
	} else if overlap > NoveltyHighOverlap {
		score -= RedundancyPenalty
	}

	return domain.Clamp01(score)
}
