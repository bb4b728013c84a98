package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soarlabs/soar/internal/domain"
)

// SOARService is the serving-layer wrapper around the orchestrator: it runs
// sessions and, when a store is configured, records the completed record with
// an embedding of the target query for similar-session lookup. The core never
// persists anything itself.
type SOARService struct {
	orchestrator    *Orchestrator
	sessionStore    domain.SessionStore
	embeddingClient domain.EmbeddingClient
	logger          *zap.Logger
}

func NewSOARService(orchestrator *Orchestrator, sessionStore domain.SessionStore, embeddingClient domain.EmbeddingClient, logger *zap.Logger) *SOARService {
	return &SOARService{
		orchestrator:    orchestrator,
		sessionStore:    sessionStore,
		embeddingClient: embeddingClient,
		logger:          logger,
	}
}

func (s *SOARService) Probe(analysis domain.QueryAnalysis, prior *domain.SignalSnapshot, cfg domain.Config) domain.LearnabilityProbe {
	return s.orchestrator.Probe(analysis, prior, cfg)
}

// Run executes a session and records it best-effort. A store or embedding
// failure never fails the run; the session record is already complete.
func (s *SOARService) Run(ctx context.Context, req RunRequest) (*domain.Session, error) {
	session, err := s.orchestrator.Run(ctx, req)
	if err != nil {
		return session, err
	}

	if s.sessionStore != nil {
		var embedding []float32
		if s.embeddingClient != nil {
			embedding, err = s.embeddingClient.Embed(ctx, session.TargetQuery)
			if err != nil {
				s.logger.Warn("failed to embed target query", zap.Error(err))
				embedding = nil
			}
		}
		if err := s.sessionStore.Create(ctx, session, embedding); err != nil {
			s.logger.Warn("failed to record session",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
		}
	}

	return session, nil
}

func (s *SOARService) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.sessionStore.GetByID(ctx, id)
}

func (s *SOARService) ListSessions(ctx context.Context, opts domain.SessionListOpts) ([]domain.Session, error) {
	return s.sessionStore.List(ctx, opts)
}

// FindSimilar returns past sessions whose target queries are nearest to the
// given session's query embedding.
func (s *SOARService) FindSimilar(ctx context.Context, id uuid.UUID, topK int) ([]domain.SessionWithScore, error) {
	if s.embeddingClient == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	session, err := s.sessionStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	embedding, err := s.embeddingClient.Embed(ctx, session.TargetQuery)
	if err != nil {
		return nil, err
	}
	return s.sessionStore.FindSimilar(ctx, embedding, topK)
}

// Persistent reports whether sessions are being recorded.
func (s *SOARService) Persistent() bool {
	return s.sessionStore != nil
}
