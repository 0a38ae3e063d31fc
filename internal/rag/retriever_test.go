package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"dispute-notepad/internal/interfaces"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/rs/zerolog"
)

// MockVectorDB is a mock implementation of VectorDB for testing
type MockVectorDB struct {
	mu            sync.Mutex
	stored        []interfaces.Document
	storeCalls    int
	searchCalls   int
	searchResults []interfaces.VectorSearchResult
	storeError    error
	searchError   error
	lastQuery     string
}

func (m *MockVectorDB) Store(ctx context.Context, documents []interfaces.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeCalls++
	if m.storeError != nil {
		return m.storeError
	}
	m.stored = append(m.stored, documents...)
	return nil
}

func (m *MockVectorDB) Search(ctx context.Context, query string, limit int) ([]interfaces.VectorSearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.lastQuery = query
	if m.searchError != nil {
		return nil, m.searchError
	}
	if len(m.searchResults) > limit {
		return m.searchResults[:limit], nil
	}
	return m.searchResults, nil
}

func (m *MockVectorDB) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockVectorDB) Close() error {
	return nil
}

// MockLLMClient is a mock implementation of LLMClient for testing
type MockLLMClient struct {
	mu               sync.Mutex
	generateCalls    int
	generateResponse *interfaces.LLMResponse
	generateError    error
	lastRequest      interfaces.LLMRequest
}

func (m *MockLLMClient) Generate(ctx context.Context, request interfaces.LLMRequest) (*interfaces.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateCalls++
	m.lastRequest = request
	if m.generateError != nil {
		return nil, m.generateError
	}
	if m.generateResponse != nil {
		return m.generateResponse, nil
	}
	return &interfaces.LLMResponse{
		Text:   "Average the two backup reads and rebill.",
		Tokens: 10,
	}, nil
}

func (m *MockLLMClient) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{0.1, 0.2, 0.3}, nil
}

func (m *MockLLMClient) GetModelInfo() (*interfaces.ModelInfo, error) {
	return &interfaces.ModelInfo{
		Name:     "test-model",
		Provider: "mock",
		Status:   "available",
	}, nil
}

func (m *MockLLMClient) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockLLMClient) Close() error {
	return nil
}

const testInstructions = `Backup reads: when the disputed read is estimated, take two backup reads and average them to calculate COS.

Supplier disputes: verify the supplier cost rate difference before adjusting the bill.

Escalation: if the data mismatch persists after rebilling, escalate to the billing supervisor.`

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dispute_instructions.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write instruction document: %v", err)
	}
	return path
}

func testConfig(path string) *RetrieverConfig {
	config := DefaultRetrieverConfig()
	config.DocumentPath = path
	config.PassageSize = 120
	config.PassageOverlap = 0
	return config
}

func searchResult(content string, score float64) interfaces.VectorSearchResult {
	return interfaces.VectorSearchResult{
		Document: interfaces.Document{ID: chroma.DocumentID(content), Content: content},
		Score:    score,
		Distance: 1 - score,
	}
}

func TestNewRetriever_Defaults(t *testing.T) {
	retriever := NewRetriever(&MockVectorDB{}, &MockLLMClient{}, nil, zerolog.Nop())

	if retriever.config == nil {
		t.Fatal("Expected config to be initialized with defaults")
	}

	if retriever.config.DocumentPath != "dispute_instructions.txt" {
		t.Errorf("Expected default document path, got %s", retriever.config.DocumentPath)
	}

	if retriever.Name() != interfaces.StrategyRetrieval {
		t.Errorf("Expected strategy name %s, got %s", interfaces.StrategyRetrieval, retriever.Name())
	}
}

func TestRetriever_MissingDocument(t *testing.T) {
	index := &MockVectorDB{}
	llm := &MockLLMClient{}
	path := filepath.Join(t.TempDir(), "dispute_instructions.txt")
	retriever := NewRetriever(index, llm, testConfig(path), zerolog.Nop())

	_, err := retriever.Recommend(context.Background(), "backup read needed")
	if !errors.Is(err, interfaces.ErrMissingResource) {
		t.Fatalf("Expected ErrMissingResource, got: %v", err)
	}

	if !strings.Contains(err.Error(), "dispute_instructions.txt") {
		t.Errorf("Expected error to name the expected file, got: %v", err)
	}

	if index.storeCalls != 0 || index.searchCalls != 0 || llm.generateCalls != 0 {
		t.Errorf("Expected no external calls, got store=%d search=%d generate=%d",
			index.storeCalls, index.searchCalls, llm.generateCalls)
	}
}

func TestRetriever_MissingDocumentTakesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispute_instructions.txt")
	retriever := NewRetriever(nil, nil, testConfig(path), zerolog.Nop())

	_, err := retriever.Recommend(context.Background(), "   ")
	if !errors.Is(err, interfaces.ErrMissingResource) {
		t.Fatalf("Expected ErrMissingResource before other failures, got: %v", err)
	}
}

func TestRetriever_MissingProvider(t *testing.T) {
	index := &MockVectorDB{}
	retriever := NewRetriever(index, nil, testConfig(writeDocument(t, testInstructions)), zerolog.Nop())

	_, err := retriever.Recommend(context.Background(), "backup read needed")
	if !errors.Is(err, interfaces.ErrMissingConfiguration) {
		t.Fatalf("Expected ErrMissingConfiguration, got: %v", err)
	}

	// Blank input still reports the configuration problem first
	_, err = retriever.Recommend(context.Background(), "")
	if !errors.Is(err, interfaces.ErrMissingConfiguration) {
		t.Fatalf("Expected ErrMissingConfiguration for blank input, got: %v", err)
	}

	if index.storeCalls != 0 || index.searchCalls != 0 {
		t.Errorf("Expected no index calls, got store=%d search=%d", index.storeCalls, index.searchCalls)
	}
}

func TestRetriever_BlankInput(t *testing.T) {
	index := &MockVectorDB{}
	llm := &MockLLMClient{}
	retriever := NewRetriever(index, llm, testConfig(writeDocument(t, testInstructions)), zerolog.Nop())

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := retriever.Recommend(context.Background(), input)
		if !errors.Is(err, interfaces.ErrEmptyInput) {
			t.Errorf("Expected ErrEmptyInput for %q, got: %v", input, err)
		}
	}

	if index.searchCalls != 0 || llm.generateCalls != 0 {
		t.Errorf("Expected no query calls, got search=%d generate=%d", index.searchCalls, llm.generateCalls)
	}
}

func TestRetriever_Success(t *testing.T) {
	index := &MockVectorDB{
		searchResults: []interfaces.VectorSearchResult{
			searchResult("take two backup reads and average them", 0.9),
			searchResult("verify the supplier cost rate difference", 0.4),
		},
	}
	llm := &MockLLMClient{}
	retriever := NewRetriever(index, llm, testConfig(writeDocument(t, testInstructions)), zerolog.Nop())

	recommendation, err := retriever.Recommend(context.Background(), "Customer says the read was estimated")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if recommendation.Strategy != interfaces.StrategyRetrieval {
		t.Errorf("Expected retrieval strategy, got %s", recommendation.Strategy)
	}

	if recommendation.Answer != "Average the two backup reads and rebill." {
		t.Errorf("Unexpected answer: %q", recommendation.Answer)
	}

	if len(recommendation.Passages) != 2 {
		t.Errorf("Expected 2 passages, got %d", len(recommendation.Passages))
	}

	wantQuery := "Given this dispute text, what should I do? Customer says the read was estimated"
	if index.lastQuery != wantQuery {
		t.Errorf("Expected query %q, got %q", wantQuery, index.lastQuery)
	}

	if !strings.Contains(llm.lastRequest.Prompt, wantQuery) {
		t.Error("Expected prompt to contain the query")
	}

	if !strings.Contains(llm.lastRequest.Context, "[1] take two backup reads") {
		t.Errorf("Expected numbered context, got %q", llm.lastRequest.Context)
	}
}

func TestRetriever_IndexBuiltOnce(t *testing.T) {
	index := &MockVectorDB{searchResults: []interfaces.VectorSearchResult{searchResult("p", 1)}}
	llm := &MockLLMClient{}
	retriever := NewRetriever(index, llm, testConfig(writeDocument(t, testInstructions)), zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := retriever.Recommend(context.Background(), "supplier dispute"); err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		}()
	}
	wg.Wait()

	if index.storeCalls != 1 {
		t.Errorf("Expected index to be built once, got %d builds", index.storeCalls)
	}

	if len(index.stored) != 3 {
		t.Errorf("Expected 3 passages stored, got %d", len(index.stored))
	}

	if llm.generateCalls != 5 {
		t.Errorf("Expected 5 generate calls, got %d", llm.generateCalls)
	}
}

func TestRetriever_DeterministicPassageIDs(t *testing.T) {
	path := writeDocument(t, testInstructions)

	first := &MockVectorDB{}
	second := &MockVectorDB{}
	if err := NewRetriever(first, &MockLLMClient{}, testConfig(path), zerolog.Nop()).Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := NewRetriever(second, &MockLLMClient{}, testConfig(path), zerolog.Nop()).Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	for i := range first.stored {
		if first.stored[i].ID != second.stored[i].ID {
			t.Errorf("Expected stable ID for passage %d", i)
		}
		source, ok := first.stored[i].Metadata.GetString("source")
		if !ok || source != "dispute_instructions.txt" {
			t.Errorf("Expected source metadata, got %q", source)
		}
	}
}

func TestRetriever_ProviderErrors(t *testing.T) {
	tests := []struct {
		name  string
		index *MockVectorDB
		llm   *MockLLMClient
	}{
		{
			name:  "index build failure",
			index: &MockVectorDB{storeError: errors.New("embedding quota exceeded")},
			llm:   &MockLLMClient{},
		},
		{
			name:  "search failure",
			index: &MockVectorDB{searchError: errors.New("connection refused")},
			llm:   &MockLLMClient{},
		},
		{
			name:  "generate failure",
			index: &MockVectorDB{},
			llm:   &MockLLMClient{generateError: errors.New("invalid api key")},
		},
		{
			name:  "provider reported error",
			index: &MockVectorDB{},
			llm:   &MockLLMClient{generateResponse: &interfaces.LLMResponse{Error: "blocked"}},
		},
		{
			name:  "empty answer",
			index: &MockVectorDB{},
			llm:   &MockLLMClient{generateResponse: &interfaces.LLMResponse{Text: "  "}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := NewRetriever(tt.index, tt.llm, testConfig(writeDocument(t, testInstructions)), zerolog.Nop())

			_, err := retriever.Recommend(context.Background(), "meter exchange")
			if !errors.Is(err, interfaces.ErrProvider) {
				t.Fatalf("Expected ErrProvider, got: %v", err)
			}
		})
	}
}

func TestRetriever_ProviderErrorNotCached(t *testing.T) {
	llm := &MockLLMClient{generateError: errors.New("timeout")}
	retriever := NewRetriever(&MockVectorDB{}, llm, testConfig(writeDocument(t, testInstructions)), zerolog.Nop())

	if _, err := retriever.Recommend(context.Background(), "rebill"); err == nil {
		t.Fatal("Expected first query to fail")
	}

	llm.generateError = nil
	if _, err := retriever.Recommend(context.Background(), "rebill"); err != nil {
		t.Fatalf("Expected second query to succeed, got: %v", err)
	}
}

func TestRetriever_RetriesFailedIndexBuild(t *testing.T) {
	index := &MockVectorDB{
		storeError:    errors.New("embedding quota exceeded"),
		searchResults: []interfaces.VectorSearchResult{searchResult("take two backup reads", 0.8)},
	}
	llm := &MockLLMClient{}
	retriever := NewRetriever(index, llm, testConfig(writeDocument(t, testInstructions)), zerolog.Nop())

	if _, err := retriever.Recommend(context.Background(), "estimated read"); !errors.Is(err, interfaces.ErrProvider) {
		t.Fatalf("Expected ErrProvider, got: %v", err)
	}

	stats := retriever.GetStats()
	if stats["status"] != "unavailable" {
		t.Errorf("Expected unavailable after failed build, got %v", stats["status"])
	}
	if _, ok := stats["last_build_error"]; !ok {
		t.Error("Expected last_build_error in stats")
	}

	index.storeError = nil
	if _, err := retriever.Recommend(context.Background(), "estimated read"); err != nil {
		t.Fatalf("Expected query after recovery to succeed, got: %v", err)
	}
	if _, err := retriever.Recommend(context.Background(), "estimated read"); err != nil {
		t.Fatalf("Expected third query to succeed, got: %v", err)
	}

	if index.storeCalls != 2 {
		t.Errorf("Expected one failed and one successful build, got %d builds", index.storeCalls)
	}
	if llm.generateCalls != 2 {
		t.Errorf("Expected 2 generate calls, got %d", llm.generateCalls)
	}

	stats = retriever.GetStats()
	if stats["status"] != "ready" {
		t.Errorf("Expected ready after recovery, got %v", stats["status"])
	}
	if _, ok := stats["last_build_error"]; ok {
		t.Error("Expected last_build_error to be cleared")
	}
}

func TestRetriever_KeepsCause(t *testing.T) {
	llm := &MockLLMClient{generateError: context.DeadlineExceeded}
	retriever := NewRetriever(&MockVectorDB{}, llm, testConfig(writeDocument(t, testInstructions)), zerolog.Nop())

	_, err := retriever.Recommend(context.Background(), "rebill")
	if !errors.Is(err, interfaces.ErrProvider) {
		t.Errorf("Expected ErrProvider, got: %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded in chain, got: %v", err)
	}
}

func TestRetriever_DefaultThresholdKeepsAllPassages(t *testing.T) {
	index := &MockVectorDB{
		searchResults: []interfaces.VectorSearchResult{
			searchResult("take two backup reads and average them", 0.3),
			searchResult("verify the supplier cost rate difference", -0.2),
		},
	}
	llm := &MockLLMClient{}
	retriever := NewRetriever(index, llm, testConfig(writeDocument(t, testInstructions)), zerolog.Nop())

	recommendation, err := retriever.Recommend(context.Background(), "supplier dispute")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(recommendation.Passages) != 2 {
		t.Errorf("Expected 2 passages, got %d", len(recommendation.Passages))
	}
}

func TestRetriever_FilterBySimilarity(t *testing.T) {
	config := DefaultRetrieverConfig()
	config.SimilarityThreshold = 0.5

	retriever := NewRetriever(&MockVectorDB{}, &MockLLMClient{}, config, zerolog.Nop())

	results := []interfaces.VectorSearchResult{
		{Score: 0.9}, // Should be included
		{Score: 0.6}, // Should be included
		{Score: 0.4}, // Should be filtered out
		{Score: 0.3}, // Should be filtered out
	}

	filtered := retriever.filterBySimilarity(results)

	if len(filtered) != 2 {
		t.Errorf("Expected 2 filtered results, got %d", len(filtered))
	}
}

func TestRetriever_GetStats(t *testing.T) {
	path := writeDocument(t, testInstructions)
	retriever := NewRetriever(&MockVectorDB{}, &MockLLMClient{}, testConfig(path), zerolog.Nop())

	if status := retriever.GetStats()["status"]; status != "not_initialized" {
		t.Errorf("Expected not_initialized before first use, got %v", status)
	}

	if err := retriever.HealthCheck(context.Background()); err != nil {
		t.Fatalf("Expected health check to pass, got error: %v", err)
	}

	stats := retriever.GetStats()
	if stats["status"] != "ready" {
		t.Errorf("Expected ready, got %v", stats["status"])
	}
	if stats["passages"] != 3 {
		t.Errorf("Expected 3 passages, got %v", stats["passages"])
	}
}

func TestRetriever_StatsDocumentMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")
	retriever := NewRetriever(&MockVectorDB{}, &MockLLMClient{}, testConfig(path), zerolog.Nop())

	if err := retriever.HealthCheck(context.Background()); !errors.Is(err, interfaces.ErrMissingResource) {
		t.Fatalf("Expected ErrMissingResource, got: %v", err)
	}

	if status := retriever.GetStats()["status"]; status != "document_missing" {
		t.Errorf("Expected document_missing, got %v", status)
	}
}
