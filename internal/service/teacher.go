package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soarlabs/soar/internal/domain"
)

const generatorCallTimeout = 60 * time.Second

// wrapGeneratorErr maps a deadline hit onto the timeout sentinel so callers
// can distinguish "the backend is slow" from "the backend answered garbage".
func wrapGeneratorErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrGeneratorTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CurriculumTeacher produces the stepping-stone curriculum for one iteration.
// With a nil generator it degrades to deterministic templates keyed off the
// query's domain and question type; no network call is ever made in that mode.
type CurriculumTeacher struct {
	generator domain.Generator
	logger    *zap.Logger
}

func NewCurriculumTeacher(generator domain.Generator, logger *zap.Logger) *CurriculumTeacher {
	return &CurriculumTeacher{generator: generator, logger: logger}
}

// Generate builds a curriculum of 1..maxStones questions ordered easier to
// harder. When the previous iteration did not improve, the teacher shifts
// strategy instead of reissuing a similar curriculum.
func (t *CurriculumTeacher) Generate(ctx context.Context, analysis domain.QueryAnalysis, maxStones, iteration int, previous *domain.Reward) (*domain.Curriculum, error) {
	if maxStones < 1 {
		maxStones = 1
	}

	if t.generator == nil {
		return t.templateCurriculum(analysis, maxStones, iteration, previous), nil
	}

	req := domain.CurriculumRequest{
		TargetQuery:  analysis.Query,
		Domain:       analysis.Domain,
		QuestionType: analysis.QuestionType,
		MaxStones:    maxStones,
		Iteration:    iteration,
	}
	if previous != nil {
		improved := previous.Improved
		req.PreviousImproved = &improved
		req.PreviousComposite = previous.Composite
	}

	callCtx, cancel := context.WithTimeout(ctx, generatorCallTimeout)
	defer cancel()

	draft, err := t.generator.GenerateCurriculum(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, wrapGeneratorErr("generate curriculum", context.DeadlineExceeded)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		t.logger.Warn("curriculum generation failed, falling back to templates", zap.Error(err))
		return t.templateCurriculum(analysis, maxStones, iteration, previous), nil
	}
	if len(draft.Stones) == 0 {
		t.logger.Warn("generator returned an empty curriculum, falling back to templates")
		return t.templateCurriculum(analysis, maxStones, iteration, previous), nil
	}

	return buildCurriculum(draft, maxStones, iteration), nil
}

func buildCurriculum(draft *domain.CurriculumDraft, maxStones, iteration int) *domain.Curriculum {
	stones := draft.Stones
	if len(stones) > maxStones {
		stones = stones[:maxStones]
	}

	curriculum := &domain.Curriculum{
		ID:               uuid.New(),
		Iteration:        iteration,
		TeacherRationale: draft.Rationale,
	}
	for _, s := range stones {
		curriculum.Stones = append(curriculum.Stones, domain.SteppingStone{
			ID:                 uuid.New(),
			Question:           s.Question,
			TargetSkill:        s.TargetSkill,
			RelativeDifficulty: domain.Clamp01(s.RelativeDifficulty),
		})
	}

	// Easier stones first: the student accumulates context in order.
	sort.SliceStable(curriculum.Stones, func(i, j int) bool {
		return curriculum.Stones[i].RelativeDifficulty < curriculum.Stones[j].RelativeDifficulty
	})
	return curriculum
}

// templateCurriculum is the deterministic offline path. The primary angle
// decomposes the target; the shifted angle (used after a non-improving
// iteration) attacks it through counterarguments and operational framing.
func (t *CurriculumTeacher) templateCurriculum(analysis domain.QueryAnalysis, maxStones, iteration int, previous *domain.Reward) *domain.Curriculum {
	shift := previous != nil && !previous.Improved

	subject := analysis.Domain
	if subject == "" {
		subject = "this area"
	}

	var drafts []domain.StoneDraft
	var rationale string
	if shift {
		rationale = "previous iteration did not improve; shifting from decomposition to adversarial framing"
		drafts = []domain.StoneDraft{
			{
				Question:           fmt.Sprintf("What is the strongest counterargument to the most obvious answer to: %s", analysis.Query),
				TargetSkill:        "counterargument",
				RelativeDifficulty: 0.5,
			},
			{
				Question:           fmt.Sprintf("How would a practitioner in %s measure progress on this question in concrete terms?", subject),
				TargetSkill:        "operationalization",
				RelativeDifficulty: 0.45,
			},
			{
				Question:           "What would have to be false for the standard view on this question to fail?",
				TargetSkill:        "falsification",
				RelativeDifficulty: 0.6,
			},
			{
				Question:           fmt.Sprintf("Which hidden assumption, if dropped, most changes the answer to: %s", analysis.Query),
				TargetSkill:        "assumption_analysis",
				RelativeDifficulty: 0.65,
			},
		}
	} else {
		rationale = "decomposing the target into definitional, analogical, and sequencing sub-skills"
		drafts = []domain.StoneDraft{
			{
				Question:           fmt.Sprintf("What are the key terms and assumptions embedded in: %s", analysis.Query),
				TargetSkill:        "decomposition",
				RelativeDifficulty: 0.3,
			},
			{
				Question:           fmt.Sprintf("What simpler, well-understood case in %s resembles this problem?", subject),
				TargetSkill:        "analogy",
				RelativeDifficulty: 0.45,
			},
			{
				Question:           fmt.Sprintf("Which sub-question must be settled first before tackling: %s", analysis.Query),
				TargetSkill:        "sequencing",
				RelativeDifficulty: 0.55,
			},
			{
				Question:           "What distinct lines of evidence bear on this question, and how much weight does each deserve?",
				TargetSkill:        "evidence_weighing",
				RelativeDifficulty: 0.65,
			},
		}
	}

	if analysis.QuestionType == domain.QuestionCausal && !shift {
		drafts[2] = domain.StoneDraft{
			Question:           fmt.Sprintf("What mechanisms could plausibly link the cause and effect in: %s", analysis.Query),
			TargetSkill:        "mechanism_identification",
			RelativeDifficulty: 0.55,
		}
	}

	return buildCurriculum(&domain.CurriculumDraft{Rationale: rationale, Stones: drafts}, maxStones, iteration)
}
