// Package gemini is the hosted generative provider backed by the Google GenAI
// SDK. It answers prompts and produces embeddings for the in-memory index.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dispute-notepad/internal/interfaces"

	"google.golang.org/genai"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultEmbeddingModel = "text-embedding-004"
)

// ErrNoAPIKey is returned by NewClient when no API key is configured
var ErrNoAPIKey = errors.New("gemini API key is required")

// modelsAPI is the subset of genai.Models the client calls
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Config holds Gemini client settings. Empty models use defaults.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
}

// Client implements the LLMClient interface for Gemini
type Client struct {
	models         modelsAPI
	model          string
	embeddingModel string
}

// NewClient creates a Gemini client. It fails with ErrNoAPIKey when the key
// is empty.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newClient(client.Models, config), nil
}

func newClient(models modelsAPI, config Config) *Client {
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = defaultEmbeddingModel
	}

	return &Client{
		models:         models,
		model:          config.Model,
		embeddingModel: config.EmbeddingModel,
	}
}

// Generate sends the prompt and returns the model's text answer
func (c *Client) Generate(ctx context.Context, request interfaces.LLMRequest) (*interfaces.LLMResponse, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(request.Temperature)),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("GenAI returned no candidates")
	}

	text := resp.Text()
	tokens := len(strings.Fields(text))
	if resp.UsageMetadata != nil && resp.UsageMetadata.CandidatesTokenCount > 0 {
		tokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &interfaces.LLMResponse{
		Text:   text,
		Tokens: tokens,
		Metadata: map[string]string{
			"model":    c.model,
			"provider": "gemini",
		},
	}, nil
}

// Embedding task types of the Gemini API
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Embed returns the embedding of a passage to be indexed
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	return c.embed(ctx, text, taskRetrievalDocument)
}

// EmbedQuery returns the embedding of a search query
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return c.embed(ctx, text, taskRetrievalQuery)
}

func (c *Client) embed(ctx context.Context, text, taskType string) ([]float64, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := c.models.EmbedContent(ctx,
		c.embeddingModel,
		contents,
		&genai.EmbedContentConfig{
			TaskType: taskType,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := result.Embeddings[0].Values
	vector := make([]float64, len(values))
	for i, v := range values {
		vector[i] = float64(v)
	}
	return vector, nil
}

// GetModelInfo returns the configured model
func (c *Client) GetModelInfo() (*interfaces.ModelInfo, error) {
	return &interfaces.ModelInfo{
		Name:     c.model,
		Provider: "gemini",
		Status:   "configured",
	}, nil
}

// HealthCheck reports whether the client was constructed. The hosted API is
// not called.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.models == nil {
		return fmt.Errorf("gemini client not initialized")
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing
func (c *Client) Close() error {
	return nil
}
