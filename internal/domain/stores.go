package domain

import (
	"context"

	"github.com/google/uuid"
)

// SessionWithScore is a stored session plus its similarity to a reference
// query embedding.
type SessionWithScore struct {
	Session    Session `json:"session"`
	Similarity float64 `json:"similarity"`
}

type SessionListOpts struct {
	Limit        int
	OnlyImproved bool
}

// SessionStore persists completed session records. Persistence is the serving
// layer's concern; the orchestrator itself never touches a store.
type SessionStore interface {
	Create(ctx context.Context, session *Session, embedding []float32) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	List(ctx context.Context, opts SessionListOpts) ([]Session, error)
	FindSimilar(ctx context.Context, embedding []float32, topK int) ([]SessionWithScore, error)
}
