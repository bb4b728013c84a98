package domain

import (
	"errors"
	"testing"
)

func TestConfig_Validate_Default(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative iterations", func(c *Config) { c.MaxIterations = -1 }},
		{"zero stones", func(c *Config) { c.StonesPerCurriculum = 0 }},
		{"too few claims", func(c *Config) { c.MaxContradictionClaims = 1 }},
		{"threshold above one", func(c *Config) { c.Thresholds.EntropyCeiling = 1.5 }},
		{"negative threshold", func(c *Config) { c.Thresholds.ConfidenceFloor = -0.1 }},
		{"negative weight", func(c *Config) { c.RewardWeights.Health = -0.2 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
