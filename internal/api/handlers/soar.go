package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/soarlabs/soar/internal/domain"
	"github.com/soarlabs/soar/internal/service"
)

// SOARHandler exposes the probe and the full reasoning loop over HTTP.
type SOARHandler struct {
	svc     *service.SOARService
	baseCfg domain.Config
	mode    domain.InferenceMode
	logger  *zap.Logger
}

func NewSOARHandler(svc *service.SOARService, baseCfg domain.Config, mode domain.InferenceMode, logger *zap.Logger) *SOARHandler {
	return &SOARHandler{svc: svc, baseCfg: baseCfg, mode: mode, logger: logger}
}

type queryRequest struct {
	Query           string                 `json:"query"`
	Domain          string                 `json:"domain,omitempty"`
	QuestionType    string                 `json:"question_type,omitempty"`
	ComplexityScore float64                `json:"complexity_score,omitempty"`
	Entities        []string               `json:"entities,omitempty"`
	RequiresContext bool                   `json:"requires_context,omitempty"`
	IsAmbiguous     bool                   `json:"is_ambiguous,omitempty"`
	Baseline        *domain.SignalSnapshot `json:"baseline,omitempty"`
}

type runRequest struct {
	queryRequest

	Mode                   string `json:"mode,omitempty"`
	MaxIterations          *int   `json:"max_iterations,omitempty"`
	StonesPerCurriculum    *int   `json:"stones_per_curriculum,omitempty"`
	AutoDetect             *bool  `json:"auto_detect,omitempty"`
	ContradictionDetection *bool  `json:"contradiction_detection,omitempty"`
}

// abortedRunResponse carries the partial session alongside the abort reason.
type abortedRunResponse struct {
	Error   string          `json:"error"`
	Session *domain.Session `json:"session,omitempty"`
}

func (q *queryRequest) toAnalysis() (domain.QueryAnalysis, error) {
	if strings.TrimSpace(q.Query) == "" {
		return domain.QueryAnalysis{}, errors.New("query is required")
	}

	qt := q.QuestionType
	if qt == "" {
		qt = string(domain.QuestionFactual)
	}
	if !domain.ValidQuestionType(qt) {
		return domain.QueryAnalysis{}, errors.New("invalid question_type")
	}

	return domain.QueryAnalysis{
		Query:           q.Query,
		Domain:          q.Domain,
		QuestionType:    domain.QuestionType(qt),
		ComplexityScore: domain.Clamp01(q.ComplexityScore),
		Entities:        q.Entities,
		RequiresContext: q.RequiresContext,
		IsAmbiguous:     q.IsAmbiguous,
	}, nil
}

// baselineSignals returns the caller's clamped baseline, or nil when none was
// supplied so the detector's proxy maps engage downstream.
func (q *queryRequest) baselineSignals() *domain.SignalSnapshot {
	if q.Baseline == nil {
		return nil
	}
	b := *q.Baseline
	b.Confidence = domain.Clamp01(b.Confidence)
	b.Entropy = domain.Clamp01(b.Entropy)
	b.Dissonance = domain.Clamp01(b.Dissonance)
	if b.HealthScore == 0 {
		b.HealthScore = domain.HealthFromSignals(b.Entropy, b.Dissonance)
	}
	return &b
}

// Probe runs the learnability detector only. No generator calls are made.
func (h *SOARHandler) Probe(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := req.toAnalysis()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	probe := h.svc.Probe(analysis, req.baselineSignals(), h.baseCfg)
	writeJSON(w, http.StatusOK, probe)
}

// Run executes a full session and returns the completed record.
func (h *SOARHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := req.toAnalysis()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := h.baseCfg
	if req.MaxIterations != nil {
		cfg.MaxIterations = *req.MaxIterations
	}
	if req.StonesPerCurriculum != nil {
		cfg.StonesPerCurriculum = *req.StonesPerCurriculum
	}
	if req.AutoDetect != nil {
		cfg.AutoDetect = *req.AutoDetect
	}
	if req.ContradictionDetection != nil {
		cfg.ContradictionDetection = *req.ContradictionDetection
	}

	mode := h.mode
	if req.Mode != "" {
		switch domain.InferenceMode(req.Mode) {
		case domain.ModeOffline, domain.ModeHybrid, domain.ModeFull:
			mode = domain.InferenceMode(req.Mode)
		default:
			writeError(w, http.StatusBadRequest, "invalid mode")
			return
		}
	}

	session, err := h.svc.Run(r.Context(), service.RunRequest{
		Analysis: analysis,
		Baseline: req.baselineSignals(),
		Mode:     mode,
		Config:   cfg,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDisabled):
			writeError(w, http.StatusServiceUnavailable, "reasoning loop is disabled")
		case errors.Is(err, domain.ErrInvalidConfig):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrGeneratorTimeout):
			writeJSON(w, http.StatusGatewayTimeout, abortedRunResponse{
				Error:   "generator timed out; session aborted",
				Session: session,
			})
		default:
			h.logger.Error("session run failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, abortedRunResponse{
				Error:   "session run failed",
				Session: session,
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, session)
}
