package commands

import (
	"context"
	"fmt"

	"dispute-notepad/internal/chromadb"
	"dispute-notepad/internal/config"
	"dispute-notepad/internal/gemini"
	"dispute-notepad/internal/interfaces"
	"dispute-notepad/internal/keywords"
	"dispute-notepad/internal/memindex"
	"dispute-notepad/internal/ollama"
	"dispute-notepad/internal/rag"

	"github.com/rs/zerolog"
)

// components are the dependencies of the configured strategy. vectorDB and
// llmClient stay nil for the keyword strategy or without a credential.
type components struct {
	recommender interfaces.Recommender
	vectorDB    interfaces.VectorDB
	llmClient   interfaces.LLMClient
	retriever   *rag.Retriever
}

// close releases the backends
func (c *components) close() {
	if c.vectorDB != nil {
		c.vectorDB.Close()
	}
	if c.llmClient != nil {
		c.llmClient.Close()
	}
}

// buildComponents constructs the recommender selected by configuration
func buildComponents(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*components, error) {
	switch cfg.Recommender.Strategy {
	case interfaces.StrategyKeyword:
		return buildKeywordComponents(cfg, logger)
	case interfaces.StrategyRetrieval:
		return buildRetrievalComponents(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Recommender.Strategy)
	}
}

func buildKeywordComponents(cfg *config.Config, logger zerolog.Logger) (*components, error) {
	entries := keywords.DefaultEntries()
	if cfg.Keywords.File != "" {
		loaded, err := keywords.LoadEntries(cfg.Keywords.File)
		if err != nil {
			return nil, err
		}
		entries = loaded
	}

	matcher, err := keywords.NewMatcher(entries)
	if err != nil {
		return nil, fmt.Errorf("build keyword matcher: %w", err)
	}

	logger.Info().Int("entries", len(entries)).Msg("Keyword strategy selected")
	return &components{recommender: matcher}, nil
}

func buildRetrievalComponents(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*components, error) {
	c := &components{}

	llmClient, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.llmClient = llmClient

	switch cfg.Index.Backend {
	case "chroma":
		client, err := chromadb.NewClient(&chromadb.Config{
			Host:           cfg.Index.Chroma.Host,
			Port:           cfg.Index.Chroma.Port,
			CollectionName: cfg.Index.Chroma.CollectionName,
			Timeout:        cfg.Index.Chroma.Timeout,
		}, logger)
		if err != nil {
			c.close()
			return nil, err
		}
		c.vectorDB = client
	default:
		// the in-memory index embeds through the provider
		if c.llmClient != nil {
			c.vectorDB = memindex.New(c.llmClient)
		}
	}

	c.retriever = rag.NewRetriever(c.vectorDB, c.llmClient, &rag.RetrieverConfig{
		DocumentPath:        cfg.Retrieval.DocumentPath,
		PassageSize:         cfg.Retrieval.PassageSize,
		PassageOverlap:      cfg.Retrieval.PassageOverlap,
		MaxPassages:         cfg.Retrieval.MaxPassages,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		MaxResponseTokens:   cfg.Provider.MaxTokens,
		Temperature:         cfg.Provider.Temperature,
		ResponseTimeout:     cfg.Provider.Timeout,
	}, logger)
	c.recommender = c.retriever

	logger.Info().
		Str("provider", cfg.Provider.Name).
		Str("index", cfg.Index.Backend).
		Str("document", cfg.Retrieval.DocumentPath).
		Bool("credential", c.llmClient != nil).
		Msg("Retrieval strategy selected")
	return c, nil
}

// buildProvider returns nil without error when the provider has no credential
func buildProvider(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (interfaces.LLMClient, error) {
	if !cfg.HasCredential() {
		logger.Warn().Str("provider", cfg.Provider.Name).Msg("No provider credential configured")
		return nil, nil
	}

	switch cfg.Provider.Name {
	case "ollama":
		return ollama.NewClient(ollama.Config{
			BaseURL:        cfg.Provider.OllamaURL,
			Model:          cfg.Provider.Model,
			EmbeddingModel: cfg.Provider.EmbeddingModel,
			Timeout:        cfg.Provider.Timeout,
		}), nil
	default:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:         cfg.Provider.APIKey,
			Model:          cfg.Provider.Model,
			EmbeddingModel: cfg.Provider.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return client, nil
	}
}
