package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soarlabs/soar/internal/domain"
)

// Dissonance blending weights: the contradiction scan refines the pipeline's
// own estimate, it never fully overrides it.
const (
	PipelineDissonanceWeight = 0.6
	MeasuredDissonanceWeight = 0.4

	// ForcedRunDepth is used when auto-detection is off and the probe
	// recommends no iterations: the caller asked for the loop, so it gets
	// the shallow depth rather than a no-op.
	ForcedRunDepth = 2
)

// RunRequest carries everything one session needs. The generator connection
// is owned by the caller and injected at construction, never built here. A nil
// Baseline means the caller has no live signals; the detector's proxy maps
// stand in for both the probe vote and the reward baseline.
type RunRequest struct {
	Analysis   domain.QueryAnalysis
	Baseline   *domain.SignalSnapshot
	Mode       domain.InferenceMode
	Config     domain.Config
	OnProgress domain.ProgressFunc
}

// Orchestrator sequences the detector, teacher, student, reward, and
// contradiction scanner through the probing → teaching → learning →
// evaluating loop. One session per Run call; no shared mutable state.
type Orchestrator struct {
	teacher *CurriculumTeacher
	student *Student
	scanner *ContradictionScanner
	logger  *zap.Logger
}

func NewOrchestrator(generator domain.Generator, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		teacher: NewCurriculumTeacher(generator, logger),
		student: NewStudent(generator, logger),
		scanner: NewContradictionScanner(generator, logger),
		logger:  logger,
	}
}

// Probe runs only the learnability detector: no side effects, no generator
// calls. Intended for UI/status display.
func (o *Orchestrator) Probe(analysis domain.QueryAnalysis, prior *domain.SignalSnapshot, cfg domain.Config) domain.LearnabilityProbe {
	return ProbeLearnability(analysis, prior, cfg.Thresholds)
}

// Run executes one full SOAR session and returns the completed record. Every
// exit path sets Status and CompletedAt. On cancellation the session is
// finalized as aborted with partial results intact and a nil error; generator
// timeouts abort the session and are also returned to the caller.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*domain.Session, error) {
	if !req.Config.Enabled {
		return nil, domain.ErrDisabled
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}

	probe := ProbeLearnability(req.Analysis, req.Baseline, req.Config.Thresholds)

	baseline := ProxySignals(probe.EstimatedDifficulty)
	if req.Baseline != nil {
		baseline = *req.Baseline
	}

	session := &domain.Session{
		ID:              uuid.New(),
		TargetQuery:     req.Analysis.Query,
		Mode:            req.Mode,
		Curricula:       []domain.Curriculum{},
		StoneAttempts:   []domain.StoneAttempt{},
		FinalAttempts:   []domain.FinalAttempt{},
		Rewards:         []domain.Reward{},
		BaselineSignals: baseline,
		Status:          domain.StatusProbing,
		StartedAt:       time.Now().UTC(),
	}
	session.Probe = &probe
	o.emit(req.OnProgress, session, domain.ProgressProbeComplete, 0, map[string]any{
		"at_edge":    probe.AtEdge,
		"difficulty": probe.EstimatedDifficulty,
	})

	if !probe.AtEdge && req.Config.AutoDetect {
		// Cheapest path: most queries never enter the loop.
		o.finalize(session, domain.StatusComplete)
		o.emit(req.OnProgress, session, domain.ProgressSessionComplete, 0, nil)
		return session, nil
	}

	depth := probe.RecommendedDepth
	if depth == 0 && !req.Config.AutoDetect {
		depth = ForcedRunDepth
	}

	caps := req.Mode.Caps()
	iterations := minInt(depth, caps.MaxIterations, req.Config.MaxIterations)
	stonesPerCurriculum := req.Config.StonesPerCurriculum
	if stonesPerCurriculum > caps.MaxStones {
		stonesPerCurriculum = caps.MaxStones
	}
	session.MaxIterations = iterations

	o.logger.Info("soar session starting",
		zap.String("session_id", session.ID.String()),
		zap.String("mode", string(req.Mode)),
		zap.Int("iterations", iterations),
		zap.Int("stones_per_curriculum", stonesPerCurriculum),
		zap.Float64("difficulty", probe.EstimatedDifficulty))

	// The baseline advances only on improving iterations, so gains compound
	// and regressions show up immediately against the best state so far.
	anyImproved := false

	for i := 0; i < iterations; i++ {
		if ctx.Err() != nil {
			return o.abort(req.OnProgress, session, i), nil
		}

		if err := o.runIteration(ctx, req, session, i, stonesPerCurriculum, baseline); err != nil {
			if ctx.Err() != nil {
				return o.abort(req.OnProgress, session, i), nil
			}
			o.logger.Warn("iteration failed, aborting session",
				zap.String("session_id", session.ID.String()),
				zap.Int("iteration", i),
				zap.Error(err))
			return o.abort(req.OnProgress, session, i), err
		}

		reward := session.Rewards[len(session.Rewards)-1]
		session.IterationsCompleted = i + 1
		o.emit(req.OnProgress, session, domain.ProgressIterationComplete, i, map[string]any{
			"composite": reward.Composite,
			"improved":  reward.Improved,
		})

		if reward.Improved {
			anyImproved = true
			baseline = session.FinalAttempts[len(session.FinalAttempts)-1].Signals
		} else if i > 0 {
			// Diminishing returns: a second non-improving pass is not
			// worth paying for.
			o.logger.Debug("early stop on non-improving iteration",
				zap.String("session_id", session.ID.String()),
				zap.Int("iteration", i))
			break
		}
	}

	o.scanAndBlend(ctx, req, session)
	o.selectRepresentative(session, anyImproved)

	sum := 0.0
	for _, r := range session.Rewards {
		sum += r.Composite
	}
	session.OverallImproved = sum > RewardEpsilon

	o.finalize(session, domain.StatusComplete)
	o.emit(req.OnProgress, session, domain.ProgressSessionComplete, session.IterationsCompleted, map[string]any{
		"overall_improved": session.OverallImproved,
	})
	return session, nil
}

// runIteration executes teaching → learning → evaluating for one iteration
// and appends the curriculum, attempts, and reward to the session.
func (o *Orchestrator) runIteration(ctx context.Context, req RunRequest, session *domain.Session, iteration, stonesPerCurriculum int, baseline domain.SignalSnapshot) error {
	if err := session.Transition(domain.StatusTeaching); err != nil {
		return fmt.Errorf("iteration %d: %w", iteration, err)
	}
	o.emit(req.OnProgress, session, domain.ProgressTeachingStart, iteration, nil)

	var previous *domain.Reward
	if len(session.Rewards) > 0 {
		previous = &session.Rewards[len(session.Rewards)-1]
	}

	curriculum, err := o.teacher.Generate(ctx, req.Analysis, stonesPerCurriculum, iteration, previous)
	if err != nil {
		return fmt.Errorf("iteration %d: %w", iteration, err)
	}

	for s := range curriculum.Stones {
		quality := AssessStructuralQuality(curriculum.Stones[s].Question, req.Analysis.Query)
		curriculum.Stones[s].StructuralQuality = &quality
	}
	session.Curricula = append(session.Curricula, *curriculum)
	o.emit(req.OnProgress, session, domain.ProgressTeachingComplete, iteration, map[string]any{
		"stones": len(curriculum.Stones),
	})

	if err := session.Transition(domain.StatusLearning); err != nil {
		return fmt.Errorf("iteration %d: %w", iteration, err)
	}
	var prior []domain.PriorAttempt
	for _, stone := range curriculum.Stones {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.emit(req.OnProgress, session, domain.ProgressStoneStart, iteration, map[string]any{
			"stone_id": stone.ID.String(),
		})

		attempt, err := o.student.AttemptStone(ctx, stone, prior, req.Analysis.Query)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}
		session.StoneAttempts = append(session.StoneAttempts, *attempt)
		if attempt.ContributedToContext {
			prior = append(prior, domain.PriorAttempt{Question: stone.Question, Answer: attempt.Answer})
		}
		o.emit(req.OnProgress, session, domain.ProgressStoneComplete, iteration, map[string]any{
			"stone_id":   stone.ID.String(),
			"confidence": attempt.ConfidenceAfter,
		})
	}

	if err := session.Transition(domain.StatusEvaluating); err != nil {
		return fmt.Errorf("iteration %d: %w", iteration, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	o.emit(req.OnProgress, session, domain.ProgressFinalAttemptStart, iteration, nil)

	attempt, err := o.student.AttemptTarget(ctx, req.Analysis, prior)
	if err != nil {
		return fmt.Errorf("iteration %d: %w", iteration, err)
	}
	attempt.Iteration = iteration
	session.FinalAttempts = append(session.FinalAttempts, *attempt)
	o.emit(req.OnProgress, session, domain.ProgressFinalAttemptDone, iteration, map[string]any{
		"confidence": attempt.Signals.Confidence,
	})

	reward := ComputeReward(baseline, attempt.Signals, req.Config.RewardWeights)
	session.Rewards = append(session.Rewards, reward)
	o.emit(req.OnProgress, session, domain.ProgressRewardComputed, iteration, map[string]any{
		"composite": reward.Composite,
		"improved":  reward.Improved,
	})

	// Usefulness is a property of the iteration's aggregate outcome, set in
	// a second pass once the reward is known, never per-stone.
	markedCurriculum := &session.Curricula[len(session.Curricula)-1]
	for s := range markedCurriculum.Stones {
		useful := reward.Improved
		markedCurriculum.Stones[s].WasUseful = &useful
	}

	return nil
}

// scanAndBlend measures dissonance on the most recent attempt and blends it
// into that attempt's figure with fixed weights.
func (o *Orchestrator) scanAndBlend(ctx context.Context, req RunRequest, session *domain.Session) {
	if !req.Config.ContradictionDetection || len(session.FinalAttempts) == 0 {
		return
	}

	latest := &session.FinalAttempts[len(session.FinalAttempts)-1]
	o.emit(req.OnProgress, session, domain.ProgressScanStart, session.IterationsCompleted, nil)

	scan, err := o.scanner.Scan(ctx, latest.Analysis, req.Config.MaxContradictionClaims, DefaultRecordThreshold)
	if err != nil {
		o.logger.Warn("contradiction scan failed", zap.Error(err))
		return
	}
	session.ContradictionScan = scan
	latest.Signals.Dissonance = PipelineDissonanceWeight*latest.Signals.Dissonance +
		MeasuredDissonanceWeight*scan.ComputedDissonance

	o.emit(req.OnProgress, session, domain.ProgressScanComplete, session.IterationsCompleted, map[string]any{
		"contradictions":      len(scan.Contradictions),
		"computed_dissonance": scan.ComputedDissonance,
	})
}

// selectRepresentative picks the highest-confidence attempt across all
// iterations as the session's result, not necessarily the last one. Final
// signals are published only once an improving iteration exists; otherwise
// the caller's baseline remains authoritative.
func (o *Orchestrator) selectRepresentative(session *domain.Session, anyImproved bool) {
	if len(session.FinalAttempts) == 0 {
		return
	}
	best := 0
	for i := 1; i < len(session.FinalAttempts); i++ {
		if session.FinalAttempts[i].Signals.Confidence > session.FinalAttempts[best].Signals.Confidence {
			best = i
		}
	}
	session.FinalAnalysis = session.FinalAttempts[best].Analysis
	if anyImproved {
		signals := session.FinalAttempts[best].Signals
		session.FinalSignals = &signals
	}
}

func (o *Orchestrator) abort(onProgress domain.ProgressFunc, session *domain.Session, iteration int) *domain.Session {
	o.finalize(session, domain.StatusAborted)
	o.emit(onProgress, session, domain.ProgressSessionAborted, iteration, nil)
	return session
}

func (o *Orchestrator) finalize(session *domain.Session, status domain.SessionStatus) {
	now := time.Now().UTC()
	if err := session.Transition(status); err != nil {
		// Already terminal; keep the first terminal status.
		o.logger.Warn("session already finalized", zap.Error(err))
	}
	session.CompletedAt = &now
	session.DurationMs = now.Sub(session.StartedAt).Milliseconds()
}

func (o *Orchestrator) emit(fn domain.ProgressFunc, session *domain.Session, stage domain.ProgressStage, iteration int, detail map[string]any) {
	if fn == nil {
		return
	}
	fn(domain.ProgressEvent{
		SessionID: session.ID,
		Stage:     stage,
		Iteration: iteration,
		Detail:    detail,
	})
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
