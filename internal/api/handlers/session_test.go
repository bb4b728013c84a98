package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soarlabs/soar/internal/domain"
	"github.com/soarlabs/soar/internal/service"
	"github.com/soarlabs/soar/internal/store"
)

// memorySessionStore backs handler tests without a database.
type memorySessionStore struct {
	sessions map[uuid.UUID]*domain.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[uuid.UUID]*domain.Session{}}
}

func (s *memorySessionStore) Create(_ context.Context, session *domain.Session, _ []float32) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *memorySessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return session, nil
}

func (s *memorySessionStore) List(_ context.Context, _ domain.SessionListOpts) ([]domain.Session, error) {
	var out []domain.Session
	for _, session := range s.sessions {
		out = append(out, *session)
	}
	return out, nil
}

func (s *memorySessionStore) FindSimilar(_ context.Context, _ []float32, _ int) ([]domain.SessionWithScore, error) {
	return nil, nil
}

func newTestService(sessionStore domain.SessionStore, embeddingClient domain.EmbeddingClient) *service.SOARService {
	logger := zap.NewNop()
	return service.NewSOARService(service.NewOrchestrator(nil, logger), sessionStore, embeddingClient, logger)
}

func sessionRouter(h *SessionHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/sessions/{id}/similar", h.Similar)
	r.Get("/sessions/{id}", h.GetByID)
	return r
}

func TestSimilar_NoEmbeddingClient(t *testing.T) {
	id := uuid.New()
	sessionStore := newMemorySessionStore()
	sessionStore.sessions[id] = &domain.Session{ID: id, TargetQuery: "stored query"}

	h := NewSessionHandler(newTestService(sessionStore, nil))
	r := sessionRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id.String()+"/similar", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an embedding client, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSimilar_UnknownSession(t *testing.T) {
	h := NewSessionHandler(newTestService(newMemorySessionStore(), stubEmbedder{}))
	r := sessionRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+uuid.NewString()+"/similar", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetByID_NoPersistence(t *testing.T) {
	h := NewSessionHandler(newTestService(nil, nil))
	r := sessionRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without persistence, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

// stubEmbedder returns a fixed vector.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}
