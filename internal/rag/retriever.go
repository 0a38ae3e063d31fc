// Package rag implements the single-document retrieval strategy: one static
// instruction document, indexed once, used to ground a generative answer.
package rag

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dispute-notepad/internal/interfaces"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// passageNamespace seeds the deterministic passage IDs
var passageNamespace = uuid.MustParse("6f1c2a4e-8d3b-4f7a-9c21-5e0b7d9a3c18")

// Retriever answers "what should I do" questions about a pasted dispute from
// one instruction document
type Retriever struct {
	index     interfaces.VectorDB
	llmClient interfaces.LLMClient
	config    *RetrieverConfig
	logger    zerolog.Logger

	loadOnce sync.Once
	document atomic.Pointer[documentState]

	// buildMu serializes index builds; built is set once a build succeeds
	buildMu  sync.Mutex
	built    atomic.Pointer[indexState]
	buildErr atomic.Pointer[error]
}

// RetrieverConfig holds configuration for the retriever
type RetrieverConfig struct {
	DocumentPath        string
	PassageSize         int
	PassageOverlap      int
	MaxPassages         int
	SimilarityThreshold float64
	MaxResponseTokens   int
	Temperature         float64
	ResponseTimeout     time.Duration
}

// DefaultRetrieverConfig returns default configuration for the retriever
func DefaultRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		DocumentPath:        "dispute_instructions.txt",
		PassageSize:         800,
		PassageOverlap:      100,
		MaxPassages:         3,
		SimilarityThreshold: 0,
		MaxResponseTokens:   1024,
		Temperature:         0.2,
		ResponseTimeout:     60 * time.Second,
	}
}

// documentState is fixed once the document has been read
type documentState struct {
	err      error
	passages []string
	loadedAt time.Time
}

// indexState describes a successful index build
type indexState struct {
	passages int
	builtAt  time.Time
}

// NewRetriever creates a retriever. A nil llmClient means no provider
// credential was configured; the retriever then reports a configuration error
// on every query instead of failing here.
func NewRetriever(index interfaces.VectorDB, llmClient interfaces.LLMClient, config *RetrieverConfig, logger zerolog.Logger) *Retriever {
	if config == nil {
		config = DefaultRetrieverConfig()
	}

	return &Retriever{
		index:     index,
		llmClient: llmClient,
		config:    config,
		logger:    logger.With().Str("component", "retriever").Logger(),
	}
}

// Initialize loads the instruction document and builds the similarity index.
// The document is read once per Retriever. A missing document does not fail
// startup: the retriever stays unavailable and every query reports the missing
// file. A failed index build is not kept; the next call tries again.
func (r *Retriever) Initialize(ctx context.Context) error {
	doc := r.loadDocument()
	if doc.err != nil {
		return doc.err
	}

	if r.llmClient == nil || r.index == nil {
		return errProviderNotConfigured
	}

	return r.ensureIndex(ctx, doc)
}

// loadDocument reads and splits the document on first use
func (r *Retriever) loadDocument() *documentState {
	r.loadOnce.Do(func() {
		r.document.Store(r.readDocument())
	})
	return r.document.Load()
}

func (r *Retriever) readDocument() *documentState {
	state := &documentState{loadedAt: time.Now()}
	name := filepath.Base(r.config.DocumentPath)

	content, err := os.ReadFile(r.config.DocumentPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			state.err = fmt.Errorf("%w: instruction document %s not found", interfaces.ErrMissingResource, name)
		} else {
			state.err = fmt.Errorf("%w: instruction document %s unreadable: %v", interfaces.ErrMissingResource, name, err)
		}
		r.logger.Warn().Err(state.err).Str("path", r.config.DocumentPath).Msg("Retriever unavailable")
		return state
	}

	state.passages = SplitPassages(string(content), r.config.PassageSize, r.config.PassageOverlap)
	if len(state.passages) == 0 {
		state.err = fmt.Errorf("%w: instruction document %s is empty", interfaces.ErrMissingResource, name)
		r.logger.Warn().Err(state.err).Msg("Retriever unavailable")
		return state
	}

	r.logger.Info().Int("passages", len(state.passages)).Str("document", name).Msg("Instruction document loaded")
	return state
}

// ensureIndex builds the index unless a build already succeeded
func (r *Retriever) ensureIndex(ctx context.Context, doc *documentState) error {
	if r.built.Load() != nil {
		return nil
	}

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	if r.built.Load() != nil {
		return nil
	}

	start := time.Now()
	if err := r.index.Store(ctx, r.passagesToDocuments(doc.passages)); err != nil {
		buildErr := fmt.Errorf("%w: failed to build similarity index: %w", interfaces.ErrProvider, err)
		r.buildErr.Store(&buildErr)
		r.logger.Error().Err(err).Msg("Similarity index build failed")
		return buildErr
	}

	r.built.Store(&indexState{passages: len(doc.passages), builtAt: time.Now()})
	r.buildErr.Store(nil)
	r.logger.Info().
		Int("passages", len(doc.passages)).
		Dur("duration", time.Since(start)).
		Msg("Similarity index built")
	return nil
}

var errProviderNotConfigured = fmt.Errorf("%w: no generative provider credential configured", interfaces.ErrMissingConfiguration)

// passagesToDocuments converts passages to index documents with stable IDs
func (r *Retriever) passagesToDocuments(passages []string) []interfaces.Document {
	source := filepath.Base(r.config.DocumentPath)
	documents := make([]interfaces.Document, 0, len(passages))

	for i, p := range passages {
		metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
			"source":  source,
			"passage": strconv.Itoa(i),
		})
		if err != nil {
			metadata = chroma.NewDocumentMetadata()
		}

		id := uuid.NewSHA1(passageNamespace, []byte(source+"\x00"+p))
		documents = append(documents, interfaces.Document{
			ID:       chroma.DocumentID(id.String()),
			Content:  p,
			Metadata: metadata,
		})
	}

	return documents
}

// Name returns the strategy name
func (r *Retriever) Name() string {
	return interfaces.StrategyRetrieval
}

// Recommend answers the fixed question for the given dispute text. Failures
// are checked in order: missing document, missing provider, blank input,
// provider error. Provider errors are returned as they are, never cached.
func (r *Retriever) Recommend(ctx context.Context, input string) (*interfaces.Recommendation, error) {
	doc := r.loadDocument()
	if doc.err != nil {
		return nil, doc.err
	}

	if r.llmClient == nil || r.index == nil {
		return nil, errProviderNotConfigured
	}

	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: enter dispute details before asking for a recommendation", interfaces.ErrEmptyInput)
	}

	if err := r.ensureIndex(ctx, doc); err != nil {
		return nil, err
	}

	query := BuildQuery(input)
	r.logger.Debug().Int("input_length", len(input)).Msg("Processing retrieval query")
	start := time.Now()

	results, err := r.index.Search(ctx, query, r.config.MaxPassages)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search failed: %w", interfaces.ErrProvider, err)
	}

	passages := make([]string, 0, len(results))
	for _, result := range r.filterBySimilarity(results) {
		passages = append(passages, result.Document.Content)
	}

	passageContext := buildContext(passages)
	genCtx := ctx
	if r.config.ResponseTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, r.config.ResponseTimeout)
		defer cancel()
	}

	response, err := r.llmClient.Generate(genCtx, interfaces.LLMRequest{
		Prompt:      buildPrompt(query, passageContext),
		Context:     passageContext,
		MaxTokens:   r.config.MaxResponseTokens,
		Temperature: r.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrProvider, err)
	}

	if response.Error != "" {
		return nil, fmt.Errorf("%w: provider returned error: %s", interfaces.ErrProvider, response.Error)
	}

	answer := strings.TrimSpace(response.Text)
	if answer == "" {
		return nil, fmt.Errorf("%w: provider returned an empty answer", interfaces.ErrProvider)
	}

	r.logger.Info().
		Int("passages", len(passages)).
		Dur("duration", time.Since(start)).
		Msg("Retrieval query answered")

	return &interfaces.Recommendation{
		Strategy: interfaces.StrategyRetrieval,
		Answer:   answer,
		Passages: passages,
	}, nil
}

// filterBySimilarity drops results below the similarity threshold. A
// threshold of zero or less keeps every result.
func (r *Retriever) filterBySimilarity(results []interfaces.VectorSearchResult) []interfaces.VectorSearchResult {
	if r.config.SimilarityThreshold <= 0 {
		return results
	}

	filtered := make([]interfaces.VectorSearchResult, 0, len(results))

	for _, result := range results {
		if result.Score >= r.config.SimilarityThreshold {
			filtered = append(filtered, result)
		}
	}

	return filtered
}

// HealthCheck reports the first unmet precondition, then checks the backends
func (r *Retriever) HealthCheck(ctx context.Context) error {
	if err := r.Initialize(ctx); err != nil {
		return err
	}

	if err := r.index.HealthCheck(ctx); err != nil {
		return fmt.Errorf("similarity index health check failed: %w", err)
	}

	if err := r.llmClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("LLM client health check failed: %w", err)
	}

	return nil
}

// GetStats returns statistics about the retriever
func (r *Retriever) GetStats() map[string]interface{} {
	stats := make(map[string]interface{})
	stats["strategy"] = interfaces.StrategyRetrieval
	stats["document"] = filepath.Base(r.config.DocumentPath)
	stats["max_passages"] = r.config.MaxPassages
	stats["similarity_threshold"] = r.config.SimilarityThreshold
	stats["response_timeout"] = r.config.ResponseTimeout.String()

	doc := r.document.Load()
	if doc == nil {
		stats["status"] = "not_initialized"
		return stats
	}

	stats["passages"] = len(doc.passages)
	stats["loaded_at"] = doc.loadedAt.Format(time.RFC3339)

	built := r.built.Load()
	if built != nil {
		stats["indexed_at"] = built.builtAt.Format(time.RFC3339)
	}
	if buildErr := r.buildErr.Load(); buildErr != nil {
		stats["last_build_error"] = (*buildErr).Error()
	}

	switch {
	case doc.err != nil:
		stats["status"] = "document_missing"
	case built != nil:
		stats["status"] = "ready"
	default:
		stats["status"] = "unavailable"
	}

	return stats
}
