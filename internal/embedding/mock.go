package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockClient produces deterministic embeddings without network calls.
// The same text always maps to the same vector, so similarity lookups
// behave consistently in tests and local runs.
type MockClient struct {
	EmbedError error
	Calls      []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls = append(m.Calls, text)
	if m.EmbedError != nil {
		return nil, m.EmbedError
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, Dimensions)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float32(int64(seed>>33))/float32(math.MaxInt32) - 1
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func (m *MockClient) Reset() {
	m.EmbedError = nil
	m.Calls = nil
}
