package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/soarlabs/soar/internal/domain"
)

// Template-mode signal shaping. Each consumed stone nudges the estimates: more
// accumulated context means higher confidence and lower entropy, bounded so a
// long curriculum cannot fake certainty.
const (
	stoneBaseConfidence    = 0.5
	stoneContextBonus      = 0.05
	stoneEaseBonus         = 0.15
	stoneBaseEntropy       = 0.5
	stoneEntropyRelief     = 0.05
	targetBaseConfidence   = 0.4
	targetContextBonus     = 0.06
	targetBaseEntropy      = 0.55
	targetEntropyRelief    = 0.05
	targetBaseDissonance   = 0.45
	targetDissonanceRelief = 0.04
)

// Student attempts stepping stones and re-attempts the target query. Stones
// are strictly sequential: each attempt sees every prior attempt from the same
// iteration, so stones build on one another instead of being solved in
// isolation.
type Student struct {
	generator domain.Generator
	logger    *zap.Logger
}

func NewStudent(generator domain.Generator, logger *zap.Logger) *Student {
	return &Student{generator: generator, logger: logger}
}

// AttemptStone answers one stepping stone given the prior attempts of the same
// iteration as accumulated context.
func (s *Student) AttemptStone(ctx context.Context, stone domain.SteppingStone, prior []domain.PriorAttempt, targetQuery string) (*domain.StoneAttempt, error) {
	if s.generator == nil {
		return s.templateStoneAttempt(stone, prior), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, generatorCallTimeout)
	defer cancel()

	result, err := s.generator.AttemptStone(callCtx, domain.StoneRequest{
		Question:    stone.Question,
		TargetQuery: targetQuery,
		Prior:       prior,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, wrapGeneratorErr("attempt stone", context.DeadlineExceeded)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("stone attempt failed, falling back to template", zap.Error(err))
		return s.templateStoneAttempt(stone, prior), nil
	}

	return &domain.StoneAttempt{
		StoneID:              stone.ID,
		Answer:               result.Answer,
		ConfidenceAfter:      domain.Clamp01(result.Confidence),
		EntropyAfter:         domain.Clamp01(result.Entropy),
		ContributedToContext: strings.TrimSpace(result.Answer) != "",
	}, nil
}

func (s *Student) templateStoneAttempt(stone domain.SteppingStone, prior []domain.PriorAttempt) *domain.StoneAttempt {
	depth := float64(len(prior))
	answer := fmt.Sprintf("Considered %q in terms of %s", stone.Question, stone.TargetSkill)
	if len(prior) > 0 {
		answer += fmt.Sprintf(", building on %d earlier stepping stones", len(prior))
	}
	answer += "."

	return &domain.StoneAttempt{
		StoneID:              stone.ID,
		Answer:               answer,
		ConfidenceAfter:      domain.Clamp01(stoneBaseConfidence + stoneContextBonus*depth + stoneEaseBonus*(1-stone.RelativeDifficulty)),
		EntropyAfter:         domain.Clamp01(stoneBaseEntropy - stoneEntropyRelief*depth),
		ContributedToContext: true,
	}
}

// AttemptTarget re-answers the original target query using the accumulated
// stone context, returning fresh signal estimates for the re-answer.
func (s *Student) AttemptTarget(ctx context.Context, analysis domain.QueryAnalysis, stones []domain.PriorAttempt) (*domain.FinalAttempt, error) {
	if s.generator == nil {
		return s.templateTargetAttempt(analysis, stones), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, generatorCallTimeout)
	defer cancel()

	result, err := s.generator.AttemptTarget(callCtx, domain.TargetRequest{
		Query:        analysis.Query,
		Domain:       analysis.Domain,
		QuestionType: analysis.QuestionType,
		Stones:       stones,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, wrapGeneratorErr("attempt target", context.DeadlineExceeded)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("target attempt failed, falling back to template", zap.Error(err))
		return s.templateTargetAttempt(analysis, stones), nil
	}

	confidence := domain.Clamp01(result.Confidence)
	entropy := domain.Clamp01(result.Entropy)
	dissonance := domain.Clamp01(result.Dissonance)

	return &domain.FinalAttempt{
		Analysis: result.Analysis,
		Signals: domain.SignalSnapshot{
			Confidence:  confidence,
			Entropy:     entropy,
			Dissonance:  dissonance,
			HealthScore: domain.HealthFromSignals(entropy, dissonance),
			// No topology pipeline downstream of the generator; entropy
			// stands in for the structural reading.
			PersistenceEntropy: entropy,
		},
	}, nil
}

func (s *Student) templateTargetAttempt(analysis domain.QueryAnalysis, stones []domain.PriorAttempt) *domain.FinalAttempt {
	var sb strings.Builder
	sb.WriteString("Re-attempting: ")
	sb.WriteString(analysis.Query)
	sb.WriteString("\n")
	for i, stone := range stones {
		sb.WriteString(fmt.Sprintf("Step %d (%s): %s\n", i+1, stone.Question, stone.Answer))
	}
	sb.WriteString("Synthesis: the stepping stones above narrow the answer space before committing to a final position.")

	depth := float64(len(stones))
	confidence := domain.Clamp01(targetBaseConfidence + targetContextBonus*depth)
	entropy := domain.Clamp01(targetBaseEntropy - targetEntropyRelief*depth)
	dissonance := domain.Clamp01(targetBaseDissonance - targetDissonanceRelief*depth)

	return &domain.FinalAttempt{
		Analysis: sb.String(),
		Signals: domain.SignalSnapshot{
			Confidence:         confidence,
			Entropy:            entropy,
			Dissonance:         dissonance,
			HealthScore:        domain.HealthFromSignals(entropy, dissonance),
			PersistenceEntropy: entropy,
		},
	}
}
