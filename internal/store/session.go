package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/soarlabs/soar/internal/domain"
)

// SessionStore persists completed reasoning sessions. The full session record
// is stored as JSONB; the columns pulled out alongside it exist for listing
// filters and the query embedding for similarity lookups.
type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

const defaultListLimit = 50

func (s *SessionStore) Create(ctx context.Context, session *domain.Session, embedding []float32) error {
	record, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO soar_sessions (id, target_query, mode, status, overall_improved, iterations_completed, record, query_embedding, started_at, completed_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		session.ID, session.TargetQuery, session.Mode, session.Status, session.OverallImproved,
		session.IterationsCompleted, record, vec, session.StartedAt, session.CompletedAt, session.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var record []byte
	err := s.db.QueryRow(ctx,
		`SELECT record FROM soar_sessions WHERE id = $1`,
		id,
	).Scan(&record)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(record, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) List(ctx context.Context, opts domain.SessionListOpts) ([]domain.Session, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}

	query := `SELECT record FROM soar_sessions`
	if opts.OnlyImproved {
		query += ` WHERE overall_improved`
	}
	query += ` ORDER BY started_at DESC LIMIT $1`

	rows, err := s.db.Query(ctx, query, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions query: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		var session domain.Session
		if err := json.Unmarshal(record, &session); err != nil {
			return nil, fmt.Errorf("unmarshal session record: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SessionStore) FindSimilar(ctx context.Context, embedding []float32, topK int) ([]domain.SessionWithScore, error) {
	if topK <= 0 {
		topK = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT record, 1 - (query_embedding <=> $1) AS similarity
		 FROM soar_sessions
		 WHERE query_embedding IS NOT NULL
		 ORDER BY query_embedding <=> $1
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("find similar query: %w", err)
	}
	defer rows.Close()

	var results []domain.SessionWithScore
	for rows.Next() {
		var record []byte
		var sws domain.SessionWithScore
		if err := rows.Scan(&record, &sws.Similarity); err != nil {
			return nil, fmt.Errorf("scan similar row: %w", err)
		}
		if err := json.Unmarshal(record, &sws.Session); err != nil {
			return nil, fmt.Errorf("unmarshal session record: %w", err)
		}
		results = append(results, sws)
	}
	return results, rows.Err()
}

var _ domain.SessionStore = (*SessionStore)(nil)
