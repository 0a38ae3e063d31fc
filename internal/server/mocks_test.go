package server

import (
	"context"
	"errors"
	"sync"

	"dispute-notepad/internal/interfaces"
)

// MockRecommender is a mock implementation of Recommender for testing
type MockRecommender struct {
	mu             sync.Mutex
	name           string
	recommendation *interfaces.Recommendation
	recommendErr   error
	healthErr      error
	initErr        error
	initCalls      int
	lastInput      string
}

func (m *MockRecommender) Name() string {
	if m.name == "" {
		return interfaces.StrategyKeyword
	}
	return m.name
}

func (m *MockRecommender) Recommend(ctx context.Context, input string) (*interfaces.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastInput = input
	if m.recommendErr != nil {
		return nil, m.recommendErr
	}
	if m.recommendation != nil {
		return m.recommendation, nil
	}
	return &interfaces.Recommendation{
		Strategy: m.Name(),
		Advisories: []interfaces.Advisory{
			{Trigger: "backup read", Advisory: "Check backup reads for rate calculation."},
		},
	}, nil
}

func (m *MockRecommender) HealthCheck(ctx context.Context) error {
	return m.healthErr
}

func (m *MockRecommender) GetStats() map[string]interface{} {
	return map[string]interface{}{"strategy": m.Name()}
}

// MockInitRecommender also implements the initializer interface
type MockInitRecommender struct {
	MockRecommender
}

func (m *MockInitRecommender) Initialize(ctx context.Context) error {
	m.initCalls++
	return m.initErr
}

// MockVectorDB is a mock implementation of VectorDB for testing
type MockVectorDB struct {
	shouldError bool
	closed      bool
}

func (m *MockVectorDB) Store(ctx context.Context, documents []interfaces.Document) error {
	return nil
}

func (m *MockVectorDB) Search(ctx context.Context, query string, limit int) ([]interfaces.VectorSearchResult, error) {
	return nil, nil
}

func (m *MockVectorDB) HealthCheck(ctx context.Context) error {
	if m.shouldError {
		return errors.New("vector db unavailable")
	}
	return nil
}

func (m *MockVectorDB) Close() error {
	m.closed = true
	return nil
}

// MockLLMClient is a mock implementation of LLMClient for testing
type MockLLMClient struct {
	shouldError bool
	closed      bool
}

func (m *MockLLMClient) Generate(ctx context.Context, request interfaces.LLMRequest) (*interfaces.LLMResponse, error) {
	return &interfaces.LLMResponse{Text: "ok"}, nil
}

func (m *MockLLMClient) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{1}, nil
}

func (m *MockLLMClient) GetModelInfo() (*interfaces.ModelInfo, error) {
	return &interfaces.ModelInfo{Name: "test-model", Provider: "mock", Status: "available"}, nil
}

func (m *MockLLMClient) HealthCheck(ctx context.Context) error {
	if m.shouldError {
		return errors.New("llm unavailable")
	}
	return nil
}

func (m *MockLLMClient) Close() error {
	m.closed = true
	return nil
}
