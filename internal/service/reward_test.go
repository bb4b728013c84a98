package service

import (
	"testing"

	"github.com/soarlabs/soar/internal/domain"
)

func TestComputeReward_IdenticalSignals(t *testing.T) {
	signals := domain.SignalSnapshot{
		Confidence:         0.6,
		Entropy:            0.4,
		Dissonance:         0.3,
		HealthScore:        0.64,
		PersistenceEntropy: 0.4,
	}

	reward := ComputeReward(signals, signals, domain.DefaultRewardWeights())

	if reward.Composite != 0 {
		t.Errorf("identical signals should yield composite 0, got %f", reward.Composite)
	}
	if reward.Improved {
		t.Error("identical signals must not count as improvement")
	}
}

func TestComputeReward_SignConventions(t *testing.T) {
	baseline := domain.SignalSnapshot{
		Confidence:         0.4,
		Entropy:            0.7,
		Dissonance:         0.5,
		HealthScore:        0.38,
		PersistenceEntropy: 0.7,
	}
	current := domain.SignalSnapshot{
		Confidence:         0.7,
		Entropy:            0.4,
		Dissonance:         0.3,
		HealthScore:        0.64,
		PersistenceEntropy: 0.5,
	}

	reward := ComputeReward(baseline, current, domain.DefaultRewardWeights())

	// Confidence and health rise, entropy/dissonance/persistence fall: every
	// delta must read positive.
	for name, delta := range map[string]float64{
		"confidence":          reward.DeltaConfidence,
		"entropy":             reward.DeltaEntropy,
		"dissonance":          reward.DeltaDissonance,
		"health":              reward.DeltaHealth,
		"persistence_entropy": reward.DeltaPersistenceEntropy,
	} {
		if delta <= 0 {
			t.Errorf("expected positive %s delta, got %f", name, delta)
		}
	}
	if !reward.Improved {
		t.Error("expected clear improvement to set Improved")
	}
}

func TestComputeReward_RegressionNotImproved(t *testing.T) {
	baseline := domain.SignalSnapshot{Confidence: 0.7, Entropy: 0.3, Dissonance: 0.2, HealthScore: 0.74}
	current := domain.SignalSnapshot{Confidence: 0.4, Entropy: 0.6, Dissonance: 0.5, HealthScore: 0.44}

	reward := ComputeReward(baseline, current, domain.DefaultRewardWeights())

	if reward.Composite >= 0 {
		t.Errorf("expected negative composite for a regression, got %f", reward.Composite)
	}
	if reward.Improved {
		t.Error("regression must not count as improvement")
	}
}

func TestComputeReward_NoiseBelowEpsilon(t *testing.T) {
	baseline := domain.SignalSnapshot{Confidence: 0.5}
	current := domain.SignalSnapshot{Confidence: 0.52}

	// 0.35 * 0.02 = 0.007, inside the noise margin.
	reward := ComputeReward(baseline, current, domain.DefaultRewardWeights())

	if reward.Improved {
		t.Errorf("composite %f below epsilon should not count as improvement", reward.Composite)
	}
}

func TestAssessStructuralQuality_RestatementScoresLow(t *testing.T) {
	target := "Does mindfulness meditation reduce cortisol levels in adults?"

	novel := AssessStructuralQuality(
		"What physiological mechanisms connect sustained attention practices to the endocrine stress response?",
		target,
	)
	restated := AssessStructuralQuality(target, target)

	if restated >= novel {
		t.Errorf("restating the target (%f) should score below a novel decomposition (%f)", restated, novel)
	}
}

func TestAssessStructuralQuality_LengthBands(t *testing.T) {
	target := "How do supply shocks propagate through interconnected markets?"

	short := AssessStructuralQuality("Why?", target)
	sweetSpot := AssessStructuralQuality(
		"What happens to downstream producers when a single upstream supplier halts deliveries for a week and no substitute source exists?",
		target,
	)

	if short >= sweetSpot {
		t.Errorf("a one-word fragment (%f) should score below a well-formed question (%f)", short, sweetSpot)
	}
}

func TestAssessStructuralQuality_Bounds(t *testing.T) {
	cases := []string{
		"",
		"x",
		"What are the key terms and assumptions embedded in this question about governance structures?",
	}
	for _, q := range cases {
		score := AssessStructuralQuality(q, "How should multinational governance structures evolve?")
		if score < 0 || score > 1 {
			t.Errorf("structural quality for %q out of range: %f", q, score)
		}
	}
}
