package llm

import (
	"context"
	"sync"

	"github.com/soarlabs/soar/internal/domain"
)

// MockClient is a configurable Generator for tests.
type MockClient struct {
	mu sync.Mutex

	CurriculumResponse *domain.CurriculumDraft
	StoneResponse      *domain.StoneResult
	TargetResponse     *domain.TargetResult
	VerdictResponse    *domain.ContradictionVerdict

	CurriculumError error
	StoneError      error
	TargetError     error
	VerdictError    error

	// Call tracking
	CurriculumCalls []domain.CurriculumRequest
	StoneCalls      []domain.StoneRequest
	TargetCalls     []domain.TargetRequest
	VerdictCalls    [][2]string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) GenerateCurriculum(_ context.Context, req domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CurriculumCalls = append(m.CurriculumCalls, req)
	if m.CurriculumError != nil {
		return nil, m.CurriculumError
	}
	if m.CurriculumResponse != nil {
		return m.CurriculumResponse, nil
	}
	return &domain.CurriculumDraft{
		Rationale: "mock curriculum",
		Stones: []domain.StoneDraft{
			{Question: "What are the key terms in the target query?", TargetSkill: "decomposition", RelativeDifficulty: 0.3},
			{Question: "What evidence bears on the target query?", TargetSkill: "evidence_weighing", RelativeDifficulty: 0.6},
		},
	}, nil
}

func (m *MockClient) AttemptStone(_ context.Context, req domain.StoneRequest) (*domain.StoneResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoneCalls = append(m.StoneCalls, req)
	if m.StoneError != nil {
		return nil, m.StoneError
	}
	if m.StoneResponse != nil {
		return m.StoneResponse, nil
	}
	return &domain.StoneResult{
		Answer:     "Mock answer to: " + req.Question,
		Confidence: 0.7,
		Entropy:    0.3,
	}, nil
}

func (m *MockClient) AttemptTarget(_ context.Context, req domain.TargetRequest) (*domain.TargetResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TargetCalls = append(m.TargetCalls, req)
	if m.TargetError != nil {
		return nil, m.TargetError
	}
	if m.TargetResponse != nil {
		return m.TargetResponse, nil
	}
	return &domain.TargetResult{
		Analysis:   "Mock analysis of: " + req.Query,
		Confidence: 0.65,
		Entropy:    0.35,
		Dissonance: 0.2,
	}, nil
}

func (m *MockClient) VerifyContradiction(_ context.Context, claimA, claimB string) (*domain.ContradictionVerdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerdictCalls = append(m.VerdictCalls, [2]string{claimA, claimB})
	if m.VerdictError != nil {
		return nil, m.VerdictError
	}
	if m.VerdictResponse != nil {
		return m.VerdictResponse, nil
	}
	return &domain.ContradictionVerdict{Contradicts: false, Confidence: 0.1, Type: domain.ContradictionLogical}, nil
}

// TotalCalls returns the number of generator calls made across all methods.
func (m *MockClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CurriculumCalls) + len(m.StoneCalls) + len(m.TargetCalls) + len(m.VerdictCalls)
}

// Reset clears all configured responses and call tracking.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CurriculumResponse = nil
	m.StoneResponse = nil
	m.TargetResponse = nil
	m.VerdictResponse = nil
	m.CurriculumError = nil
	m.StoneError = nil
	m.TargetError = nil
	m.VerdictError = nil
	m.CurriculumCalls = nil
	m.StoneCalls = nil
	m.TargetCalls = nil
	m.VerdictCalls = nil
}
