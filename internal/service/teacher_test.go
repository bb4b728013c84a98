package service

import (
	"context"
	"errors"
	"testing"

	"github.com/soarlabs/soar/internal/domain"
)

func TestGenerate_TemplateOrderedAndBounded(t *testing.T) {
	teacher := NewCurriculumTeacher(nil, testLogger())

	curriculum, err := teacher.Generate(context.Background(), hardAnalysis(), 3, 0, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(curriculum.Stones) != 3 {
		t.Fatalf("expected 3 stones, got %d", len(curriculum.Stones))
	}
	if curriculum.TeacherRationale == "" {
		t.Error("expected a rationale")
	}
	for i := 1; i < len(curriculum.Stones); i++ {
		if curriculum.Stones[i].RelativeDifficulty < curriculum.Stones[i-1].RelativeDifficulty {
			t.Error("expected stones ordered easier to harder")
		}
	}
	for _, stone := range curriculum.Stones {
		if stone.Question == hardAnalysis().Query {
			t.Error("a stone must not restate the target query")
		}
		if stone.RelativeDifficulty < 0 || stone.RelativeDifficulty > 1 {
			t.Errorf("relative difficulty out of range: %f", stone.RelativeDifficulty)
		}
	}
}

func TestGenerate_TemplateShiftsAfterNonImprovement(t *testing.T) {
	teacher := NewCurriculumTeacher(nil, testLogger())

	previous := &domain.Reward{Composite: -0.05, Improved: false}
	curriculum, err := teacher.Generate(context.Background(), hardAnalysis(), 4, 1, previous)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	skills := map[string]bool{}
	for _, stone := range curriculum.Stones {
		skills[stone.TargetSkill] = true
	}
	if !skills["counterargument"] {
		t.Errorf("expected an adversarial curriculum after a non-improving iteration, got skills %v", skills)
	}
	if skills["decomposition"] {
		t.Error("the shifted curriculum should not reuse the primary decomposition angle")
	}
}

func TestGenerate_TemplateCausalMechanism(t *testing.T) {
	teacher := NewCurriculumTeacher(nil, testLogger())

	analysis := domain.QueryAnalysis{
		Query:           "Does chronic sleep deprivation cause long-term memory impairment?",
		Domain:          "neuroscience",
		QuestionType:    domain.QuestionCausal,
		ComplexityScore: 0.7,
	}
	curriculum, err := teacher.Generate(context.Background(), analysis, 4, 0, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	found := false
	for _, stone := range curriculum.Stones {
		if stone.TargetSkill == "mechanism_identification" {
			found = true
		}
	}
	if !found {
		t.Error("expected a mechanism stone for a causal question")
	}
}

func TestGenerate_ClampsAndSortsGeneratorDraft(t *testing.T) {
	gen := &mockGenerator{
		curriculumFn: func(domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
			return &domain.CurriculumDraft{
				Rationale: "deliberately messy draft",
				Stones: []domain.StoneDraft{
					{Question: "hardest", TargetSkill: "a", RelativeDifficulty: 1.7},
					{Question: "easiest", TargetSkill: "b", RelativeDifficulty: -0.2},
					{Question: "middle", TargetSkill: "c", RelativeDifficulty: 0.5},
					{Question: "extra one", TargetSkill: "d", RelativeDifficulty: 0.6},
					{Question: "extra two", TargetSkill: "e", RelativeDifficulty: 0.7},
				},
			}, nil
		},
	}
	teacher := NewCurriculumTeacher(gen, testLogger())

	curriculum, err := teacher.Generate(context.Background(), hardAnalysis(), 3, 0, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(curriculum.Stones) != 3 {
		t.Fatalf("expected draft clamped to 3 stones, got %d", len(curriculum.Stones))
	}
	if curriculum.Stones[0].Question != "easiest" {
		t.Errorf("expected the easiest stone first, got %q", curriculum.Stones[0].Question)
	}
	if curriculum.Stones[0].RelativeDifficulty != 0 {
		t.Errorf("expected negative difficulty clamped to 0, got %f", curriculum.Stones[0].RelativeDifficulty)
	}
	if last := curriculum.Stones[len(curriculum.Stones)-1].RelativeDifficulty; last != 1 {
		t.Errorf("expected difficulty above 1 clamped to 1, got %f", last)
	}
}

func TestGenerate_FallsBackOnGeneratorError(t *testing.T) {
	gen := &mockGenerator{
		curriculumFn: func(domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
			return nil, errors.New("backend unavailable")
		},
	}
	teacher := NewCurriculumTeacher(gen, testLogger())

	curriculum, err := teacher.Generate(context.Background(), hardAnalysis(), 3, 0, nil)
	if err != nil {
		t.Fatalf("a recoverable generator failure must fall back to templates: %v", err)
	}
	if len(curriculum.Stones) == 0 {
		t.Fatal("expected a template curriculum")
	}
}

func TestGenerate_FallsBackOnEmptyDraft(t *testing.T) {
	gen := &mockGenerator{
		curriculumFn: func(domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
			return &domain.CurriculumDraft{Rationale: "nothing to teach"}, nil
		},
	}
	teacher := NewCurriculumTeacher(gen, testLogger())

	curriculum, err := teacher.Generate(context.Background(), hardAnalysis(), 3, 0, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(curriculum.Stones) == 0 {
		t.Fatal("expected a template curriculum for an empty draft")
	}
}

func TestGenerate_TimeoutPropagates(t *testing.T) {
	gen := &mockGenerator{
		curriculumFn: func(domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
			return nil, context.DeadlineExceeded
		},
	}
	teacher := NewCurriculumTeacher(gen, testLogger())

	_, err := teacher.Generate(context.Background(), hardAnalysis(), 3, 0, nil)
	if !errors.Is(err, domain.ErrGeneratorTimeout) {
		t.Fatalf("expected ErrGeneratorTimeout, got %v", err)
	}
}

func TestGenerate_FeedbackForwarded(t *testing.T) {
	var captured domain.CurriculumRequest
	gen := &mockGenerator{
		curriculumFn: func(req domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
			captured = req
			return &domain.CurriculumDraft{
				Rationale: "ok",
				Stones:    []domain.StoneDraft{{Question: "q", TargetSkill: "s", RelativeDifficulty: 0.4}},
			}, nil
		},
	}
	teacher := NewCurriculumTeacher(gen, testLogger())

	previous := &domain.Reward{Composite: 0.12, Improved: true}
	if _, err := teacher.Generate(context.Background(), hardAnalysis(), 2, 1, previous); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if captured.PreviousImproved == nil || !*captured.PreviousImproved {
		t.Error("expected previous improvement to be forwarded to the generator")
	}
	if captured.PreviousComposite != 0.12 {
		t.Errorf("expected previous composite forwarded, got %f", captured.PreviousComposite)
	}
	if captured.MaxStones != 2 || captured.Iteration != 1 {
		t.Errorf("expected max stones and iteration forwarded, got %d/%d", captured.MaxStones, captured.Iteration)
	}
}
