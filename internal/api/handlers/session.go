package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/soarlabs/soar/internal/domain"
	"github.com/soarlabs/soar/internal/service"
	"github.com/soarlabs/soar/internal/store"
)

// SessionHandler serves stored session records. All endpoints require
// persistence to be configured.
type SessionHandler struct {
	svc *service.SOARService
}

func NewSessionHandler(svc *service.SOARService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

const defaultSimilarTopK = 5

func (h *SessionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Persistent() {
		writeError(w, http.StatusServiceUnavailable, "session persistence is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Persistent() {
		writeError(w, http.StatusServiceUnavailable, "session persistence is not configured")
		return
	}

	opts := domain.SessionListOpts{}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}
	opts.OnlyImproved = r.URL.Query().Get("improved") == "true"

	sessions, err := h.svc.ListSessions(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
}

// Similar returns past sessions with the nearest target queries.
func (h *SessionHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Persistent() {
		writeError(w, http.StatusServiceUnavailable, "session persistence is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	topK := defaultSimilarTopK
	if k, err := strconv.Atoi(r.URL.Query().Get("top_k")); err == nil && k > 0 {
		topK = k
	}

	results, err := h.svc.FindSimilar(r.Context(), id, topK)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "embedding provider is not configured")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to find similar sessions")
		return
	}
	if results == nil {
		results = []domain.SessionWithScore{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}
