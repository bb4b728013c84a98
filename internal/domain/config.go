package domain

import "fmt"

// Thresholds gate the edge-of-learnability decision.
type Thresholds struct {
	ConfidenceFloor   float64 `json:"confidence_floor"`
	EntropyCeiling    float64 `json:"entropy_ceiling"`
	DissonanceCeiling float64 `json:"dissonance_ceiling"`
	DifficultyFloor   float64 `json:"difficulty_floor"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ConfidenceFloor:   0.6,
		EntropyCeiling:    0.5,
		DissonanceCeiling: 0.4,
		DifficultyFloor:   0.5,
	}
}

// RewardWeights weight the per-signal deltas in the composite reward.
// Defaults sum to 1.0.
type RewardWeights struct {
	Confidence float64 `json:"confidence"`
	Entropy    float64 `json:"entropy"`
	Dissonance float64 `json:"dissonance"`
	Health     float64 `json:"health"`
	Structural float64 `json:"structural"`
}

func DefaultRewardWeights() RewardWeights {
	return RewardWeights{
		Confidence: 0.35,
		Entropy:    0.2,
		Dissonance: 0.2,
		Health:     0.15,
		Structural: 0.1,
	}
}

// Config holds the recognized SOAR options. Validate runs at session start,
// before any generator call.
type Config struct {
	Enabled                bool          `json:"enabled"`
	AutoDetect             bool          `json:"auto_detect"`
	MaxIterations          int           `json:"max_iterations"`
	StonesPerCurriculum    int           `json:"stones_per_curriculum"`
	Thresholds             Thresholds    `json:"thresholds"`
	RewardWeights          RewardWeights `json:"reward_weights"`
	ContradictionDetection bool          `json:"contradiction_detection"`
	MaxContradictionClaims int           `json:"max_contradiction_claims"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		AutoDetect:             true,
		MaxIterations:          3,
		StonesPerCurriculum:    3,
		Thresholds:             DefaultThresholds(),
		RewardWeights:          DefaultRewardWeights(),
		ContradictionDetection: true,
		MaxContradictionClaims: 20,
	}
}

func (c Config) Validate() error {
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max_iterations must be >= 0, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.StonesPerCurriculum < 1 {
		return fmt.Errorf("%w: stones_per_curriculum must be >= 1, got %d", ErrInvalidConfig, c.StonesPerCurriculum)
	}
	if c.MaxContradictionClaims < 2 {
		return fmt.Errorf("%w: max_contradiction_claims must be >= 2, got %d", ErrInvalidConfig, c.MaxContradictionClaims)
	}
	t := c.Thresholds
	for name, v := range map[string]float64{
		"confidence_floor":   t.ConfidenceFloor,
		"entropy_ceiling":    t.EntropyCeiling,
		"dissonance_ceiling": t.DissonanceCeiling,
		"difficulty_floor":   t.DifficultyFloor,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: threshold %s must be in [0,1], got %f", ErrInvalidConfig, name, v)
		}
	}
	w := c.RewardWeights
	for name, v := range map[string]float64{
		"confidence": w.Confidence,
		"entropy":    w.Entropy,
		"dissonance": w.Dissonance,
		"health":     w.Health,
		"structural": w.Structural,
	} {
		if v < 0 {
			return fmt.Errorf("%w: reward weight %s must be >= 0, got %f", ErrInvalidConfig, name, v)
		}
	}
	return nil
}
