package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/soarlabs/soar/internal/domain"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// mockGenerator implements domain.Generator with per-method overrides and
// call counting.
type mockGenerator struct {
	mu sync.Mutex

	curriculumFn func(domain.CurriculumRequest) (*domain.CurriculumDraft, error)
	stoneFn      func(domain.StoneRequest) (*domain.StoneResult, error)
	targetFn     func(domain.TargetRequest) (*domain.TargetResult, error)
	verdictFn    func(claimA, claimB string) (*domain.ContradictionVerdict, error)

	curriculumCalls int
	stoneCalls      int
	targetCalls     int
	verdictCalls    int
}

func (m *mockGenerator) GenerateCurriculum(_ context.Context, req domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
	m.mu.Lock()
	m.curriculumCalls++
	fn := m.curriculumFn
	m.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &domain.CurriculumDraft{
		Rationale: "test curriculum",
		Stones: []domain.StoneDraft{
			{Question: "What definitions anchor the target question?", TargetSkill: "decomposition", RelativeDifficulty: 0.3},
			{Question: "Which evidence sources disagree and why?", TargetSkill: "evidence_weighing", RelativeDifficulty: 0.6},
		},
	}, nil
}

func (m *mockGenerator) AttemptStone(_ context.Context, req domain.StoneRequest) (*domain.StoneResult, error) {
	m.mu.Lock()
	m.stoneCalls++
	fn := m.stoneFn
	m.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &domain.StoneResult{Answer: "stone answer", Confidence: 0.7, Entropy: 0.3}, nil
}

func (m *mockGenerator) AttemptTarget(_ context.Context, req domain.TargetRequest) (*domain.TargetResult, error) {
	m.mu.Lock()
	m.targetCalls++
	fn := m.targetFn
	m.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &domain.TargetResult{Analysis: "target analysis", Confidence: 0.8, Entropy: 0.2, Dissonance: 0.1}, nil
}

func (m *mockGenerator) VerifyContradiction(_ context.Context, claimA, claimB string) (*domain.ContradictionVerdict, error) {
	m.mu.Lock()
	m.verdictCalls++
	fn := m.verdictFn
	m.mu.Unlock()
	if fn != nil {
		return fn(claimA, claimB)
	}
	return &domain.ContradictionVerdict{Contradicts: false, Confidence: 0.1, Type: domain.ContradictionLogical}, nil
}

func (m *mockGenerator) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.curriculumCalls + m.stoneCalls + m.targetCalls + m.verdictCalls
}

func hardAnalysis() domain.QueryAnalysis {
	return domain.QueryAnalysis{
		Query:           "Does consciousness emerge from purely physical processes, or is it irreducible?",
		Domain:          "philosophy",
		QuestionType:    domain.QuestionMetaAnalytical,
		ComplexityScore: 0.9,
	}
}

func strugglingBaseline() *domain.SignalSnapshot {
	return &domain.SignalSnapshot{
		Confidence:         0.3,
		Entropy:            0.7,
		Dissonance:         0.5,
		HealthScore:        domain.HealthFromSignals(0.7, 0.5),
		PersistenceEntropy: 0.7,
	}
}

func TestRun_Disabled(t *testing.T) {
	orch := NewOrchestrator(nil, testLogger())
	cfg := domain.DefaultConfig()
	cfg.Enabled = false

	_, err := orch.Run(context.Background(), RunRequest{
		Analysis: hardAnalysis(),
		Baseline: strugglingBaseline(),
		Mode:     domain.ModeOffline,
		Config:   cfg,
	})
	if !errors.Is(err, domain.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	orch := NewOrchestrator(nil, testLogger())
	cfg := domain.DefaultConfig()
	cfg.StonesPerCurriculum = 0

	_, err := orch.Run(context.Background(), RunRequest{
		Analysis: hardAnalysis(),
		Baseline: strugglingBaseline(),
		Mode:     domain.ModeOffline,
		Config:   cfg,
	})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRun_NotAtEdgeShortCircuits(t *testing.T) {
	gen := &mockGenerator{}
	orch := NewOrchestrator(gen, testLogger())

	// Easy query, healthy baseline: the probe must keep the loop shut and no
	// generator call may happen.
	session, err := orch.Run(context.Background(), RunRequest{
		Analysis: domain.QueryAnalysis{
			Query:           "What is the boiling point of water at sea level?",
			QuestionType:    domain.QuestionFactual,
			ComplexityScore: 0.1,
		},
		Baseline: &domain.SignalSnapshot{Confidence: 0.9, Entropy: 0.1, Dissonance: 0.05, HealthScore: 0.9},
		Mode:     domain.ModeFull,
		Config:   domain.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.Status != domain.StatusComplete {
		t.Errorf("expected status complete, got %s", session.Status)
	}
	if session.IterationsCompleted != 0 {
		t.Errorf("expected zero iterations, got %d", session.IterationsCompleted)
	}
	if gen.totalCalls() != 0 {
		t.Errorf("expected zero generator calls, got %d", gen.totalCalls())
	}
	if session.Probe == nil || session.Probe.AtEdge {
		t.Error("expected a recorded probe with at_edge false")
	}
	if session.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
}

func TestRun_TemplateModeFullSession(t *testing.T) {
	orch := NewOrchestrator(nil, testLogger())

	session, err := orch.Run(context.Background(), RunRequest{
		Analysis: hardAnalysis(),
		Baseline: strugglingBaseline(),
		Mode:     domain.ModeOffline,
		Config:   domain.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if session.Status != domain.StatusComplete {
		t.Errorf("expected status complete, got %s", session.Status)
	}
	// Offline caps: at most 2 iterations, 2 stones per curriculum.
	if session.IterationsCompleted < 1 || session.IterationsCompleted > 2 {
		t.Errorf("expected 1-2 iterations in offline mode, got %d", session.IterationsCompleted)
	}
	if len(session.Curricula) != session.IterationsCompleted {
		t.Errorf("expected %d curricula, got %d", session.IterationsCompleted, len(session.Curricula))
	}
	for _, c := range session.Curricula {
		if len(c.Stones) > 2 {
			t.Errorf("offline mode allows at most 2 stones, got %d", len(c.Stones))
		}
		for _, stone := range c.Stones {
			if stone.StructuralQuality == nil {
				t.Error("expected structural quality to be assessed for every stone")
			}
			if stone.WasUseful == nil {
				t.Error("expected usefulness to be assigned retroactively")
			}
		}
	}
	if len(session.FinalAttempts) != session.IterationsCompleted {
		t.Errorf("expected %d final attempts, got %d", session.IterationsCompleted, len(session.FinalAttempts))
	}
	if len(session.Rewards) != session.IterationsCompleted {
		t.Errorf("expected %d rewards, got %d", session.IterationsCompleted, len(session.Rewards))
	}
	if session.FinalAnalysis == "" {
		t.Error("expected a final analysis to be selected")
	}
	if session.ContradictionScan == nil {
		t.Error("expected a contradiction scan on the final attempt")
	}
	if session.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
}

func TestRun_FirstIterationImprovesTemplateBaseline(t *testing.T) {
	orch := NewOrchestrator(nil, testLogger())

	session, err := orch.Run(context.Background(), RunRequest{
		Analysis: hardAnalysis(),
		Baseline: strugglingBaseline(),
		Mode:     domain.ModeOffline,
		Config:   domain.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(session.Rewards) == 0 {
		t.Fatal("expected at least one reward")
	}
	if !session.Rewards[0].Improved {
		t.Errorf("template mode should beat a struggling baseline on iteration 1, composite %f", session.Rewards[0].Composite)
	}
	if !session.OverallImproved {
		t.Error("expected overall improvement")
	}
	if session.FinalSignals == nil {
		t.Fatal("expected final signals after an improving iteration")
	}
	if session.FinalSignals.Confidence <= session.BaselineSignals.Confidence {
		t.Errorf("expected final confidence %f above baseline %f",
			session.FinalSignals.Confidence, session.BaselineSignals.Confidence)
	}
}

func TestRun_IterationCapIsMinimum(t *testing.T) {
	gen := &mockGenerator{}
	orch := NewOrchestrator(gen, testLogger())

	cfg := domain.DefaultConfig()
	cfg.MaxIterations = 1

	session, err := orch.Run(context.Background(), RunRequest{
		Analysis: hardAnalysis(),
		Baseline: strugglingBaseline(),
		Mode:     domain.ModeFull,
		Config:   cfg,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// Recommended depth is 3 and the full-mode cap is 3, but the configured
	// maximum wins.
	if session.IterationsCompleted != 1 {
		t.Errorf("expected 1 iteration, got %d", session.IterationsCompleted)
	}
	if session.MaxIterations != 1 {
		t.Errorf("expected max iterations 1, got %d", session.MaxIterations)
	}
}

func TestRun_EarlyStopOnSecondNonImprovingIteration(t *testing.T) {
	baseline := strugglingBaseline()
	gen := &mockGenerator{
		// Every target attempt lands exactly on the baseline: zero reward.
		targetFn: func(domain.TargetRequest) (*domain.TargetResult, error) {
			return &domain.TargetResult{
				Analysis:   "no movement",
				Confidence: baseline.Confidence,
				Entropy:    baseline.Entropy,
				Dissonance: baseline.Dissonance,
			}, nil
		},
	}
	orch := NewOrchestrator(gen, testLogger())

	cfg := domain.DefaultConfig()
	cfg.ContradictionDetection = false

	session, err := orch.Run(context.Background(), RunRequest{
		Analysis: hardAnalysis(),
		Baseline: baseline,
		Mode:     domain.ModeFull,
		Config:   cfg,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Depth 3 is available, but the first non-improving iteration gets one
	// more chance and the second one stops the loop.
	if session.IterationsCompleted != 2 {
		t.Errorf("expected early stop after 2 iterations, got %d", session.IterationsCompleted)
	}
	if gen.curriculumCalls != 2 {
		t.Errorf("expected 2 curriculum calls, got %d", gen.curriculumCalls)
	}
	if session.OverallImproved {
		t.Error("expected no overall improvement")
	}
	if session.FinalSignals != nil {
		t.Error("expected no final signals without an improving iteration")
	}
	if session.FinalAnalysis == "" {
		t.Error("expected the best attempt's analysis to be published regardless")
	}
}

func TestRun_CancelledContextAborts(t *testing.T) {
	orch := NewOrchestrator(nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := orch.Run(ctx, RunRequest{
		Analysis: hardAnalysis(),
		Baseline: strugglingBaseline(),
		Mode:     domain.ModeOffline,
		Config:   domain.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("cancellation should finalize the session, not error: %v", err)
	}
	if session.Status != domain.StatusAborted {
		t.Errorf("expected status aborted, got %s", session.Status)
	}
	if session.CompletedAt == nil {
		t.Error("expected CompletedAt to be set on abort")
	}
}

func TestRun_GeneratorTimeoutAborts(t *testing.T) {
	gen := &mockGenerator{
		curriculumFn: func(domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
			return nil, context.DeadlineExceeded
		},
	}
	orch := NewOrchestrator(gen, testLogger())

	session, err := orch.Run(context.Background(), RunRequest{
		Analysis: hardAnalysis(),
		Baseline: strugglingBaseline(),
		Mode:     domain.ModeOffline,
		Config:   domain.DefaultConfig(),
	})
	if !errors.Is(err, domain.ErrGeneratorTimeout) {
		t.Fatalf("expected ErrGeneratorTimeout, got %v", err)
	}
	if session == nil {
		t.Fatal("expected partial session alongside the error")
	}
	if session.Status != domain.StatusAborted {
		t.Errorf("expected status aborted, got %s", session.Status)
	}
}

func TestRun_OmittedBaselineUsesProxySignals(t *testing.T) {
	orch := NewOrchestrator(nil, testLogger())

	// No baseline supplied: the proxy maps must stand in, so a hard query
	// still trips the edge vote and enters the loop.
	session, err := orch.Run(context.Background(), RunRequest{
		Analysis: hardAnalysis(),
		Mode:     domain.ModeOffline,
		Config:   domain.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if session.Probe == nil || !session.Probe.AtEdge {
		t.Fatal("expected the proxy signals to put a hard query at the edge")
	}
	if session.IterationsCompleted == 0 {
		t.Error("expected the loop to run without a caller baseline")
	}
	want := ProxySignals(session.Probe.EstimatedDifficulty)
	if session.BaselineSignals != want {
		t.Errorf("expected proxy-derived baseline %+v, got %+v", want, session.BaselineSignals)
	}
}

func TestRun_ForcedDepthWithAutoDetectOff(t *testing.T) {
	orch := NewOrchestrator(nil, testLogger())

	cfg := domain.DefaultConfig()
	cfg.AutoDetect = false

	// Easy query: the probe recommends no iterations, but with auto-detection
	// off the caller explicitly asked for the loop.
	session, err := orch.Run(context.Background(), RunRequest{
		Analysis: domain.QueryAnalysis{
			Query:           "What is the boiling point of water at sea level?",
			QuestionType:    domain.QuestionFactual,
			ComplexityScore: 0.1,
		},
		Baseline: &domain.SignalSnapshot{Confidence: 0.9, Entropy: 0.1, Dissonance: 0.05, HealthScore: 0.9},
		Mode:     domain.ModeOffline,
		Config:   cfg,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.IterationsCompleted == 0 {
		t.Error("expected forced iterations with auto-detection off")
	}
}

func TestRun_ProgressEventsEmitted(t *testing.T) {
	orch := NewOrchestrator(nil, testLogger())

	var mu sync.Mutex
	stages := map[domain.ProgressStage]int{}

	_, err := orch.Run(context.Background(), RunRequest{
		Analysis: hardAnalysis(),
		Baseline: strugglingBaseline(),
		Mode:     domain.ModeOffline,
		Config:   domain.DefaultConfig(),
		OnProgress: func(ev domain.ProgressEvent) {
			mu.Lock()
			stages[ev.Stage]++
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, stage := range []domain.ProgressStage{
		domain.ProgressProbeComplete,
		domain.ProgressTeachingStart,
		domain.ProgressStoneComplete,
		domain.ProgressRewardComputed,
		domain.ProgressIterationComplete,
		domain.ProgressSessionComplete,
	} {
		if stages[stage] == 0 {
			t.Errorf("expected at least one %s event", stage)
		}
	}
}

func TestProbe_NoSideEffects(t *testing.T) {
	gen := &mockGenerator{}
	orch := NewOrchestrator(gen, testLogger())

	probe := orch.Probe(hardAnalysis(), nil, domain.DefaultConfig())
	if !probe.AtEdge {
		t.Error("expected hard query at edge")
	}
	if gen.totalCalls() != 0 {
		t.Errorf("probe must not call the generator, got %d calls", gen.totalCalls())
	}
}
