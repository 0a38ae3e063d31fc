// Package ollama is the local generative provider: an HTTP client for an
// Ollama server. It needs no credential.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dispute-notepad/internal/interfaces"
)

const (
	defaultOllamaURL      = "http://localhost:11434"
	defaultModel          = "llama3.2"
	defaultEmbeddingModel = "nomic-embed-text"
	requestTimeout        = 60 * time.Second
)

// Client implements the LLMClient interface for Ollama
type Client struct {
	baseURL        string
	httpClient     *http.Client
	modelName      string
	embeddingModel string
}

// Config holds Ollama client settings. Empty fields use defaults.
type Config struct {
	BaseURL        string
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
}

// NewClient creates a new Ollama client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultOllamaURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = defaultEmbeddingModel
	}
	if config.Timeout <= 0 {
		config.Timeout = requestTimeout
	}

	return &Client{
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: config.Timeout},
		modelName:      config.Model,
		embeddingModel: config.EmbeddingModel,
	}
}

// OllamaGenerateRequest represents a request to Ollama's generate API
type OllamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options *OllamaOptions `json:"options,omitempty"`
}

// OllamaOptions carries sampling options
type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// OllamaGenerateResponse represents a response from Ollama's generate API
type OllamaGenerateResponse struct {
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count,omitempty"`
	Error     string `json:"error,omitempty"`
}

// OllamaEmbedRequest represents a request to Ollama's embed API
type OllamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// OllamaEmbedResponse represents a response from Ollama's embed API
type OllamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// OllamaModelInfo represents model information from Ollama
type OllamaModelInfo struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
	Digest     string `json:"digest"`
}

// OllamaListResponse represents the response from listing models
type OllamaListResponse struct {
	Models []OllamaModelInfo `json:"models"`
}

// Generate generates text based on the given request
func (c *Client) Generate(ctx context.Context, request interfaces.LLMRequest) (*interfaces.LLMResponse, error) {
	ollamaReq := OllamaGenerateRequest{
		Model:  c.modelName,
		Prompt: request.Prompt,
		Stream: false,
		Options: &OllamaOptions{
			Temperature: request.Temperature,
			NumPredict:  request.MaxTokens,
		},
	}

	var ollamaResp OllamaGenerateResponse
	if err := c.postJSON(ctx, "/api/generate", ollamaReq, &ollamaResp); err != nil {
		return nil, err
	}

	if ollamaResp.Error != "" {
		return nil, fmt.Errorf("Ollama error: %s", ollamaResp.Error)
	}

	tokens := ollamaResp.EvalCount
	if tokens == 0 {
		tokens = len(strings.Fields(ollamaResp.Response)) // Rough token count
	}

	return &interfaces.LLMResponse{
		Text:   ollamaResp.Response,
		Tokens: tokens,
		Metadata: map[string]string{
			"model":    c.modelName,
			"provider": "ollama",
		},
	}, nil
}

// Embed generates embeddings for the given text
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	ollamaReq := OllamaEmbedRequest{
		Model: c.embeddingModel,
		Input: text,
	}

	var ollamaResp OllamaEmbedResponse
	if err := c.postJSON(ctx, "/api/embed", ollamaReq, &ollamaResp); err != nil {
		return nil, err
	}

	if ollamaResp.Error != "" {
		return nil, fmt.Errorf("Ollama error: %s", ollamaResp.Error)
	}

	if len(ollamaResp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return ollamaResp.Embeddings[0], nil
}

// postJSON sends body to path and decodes the JSON reply into out
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("request timeout exceeded: %w", ctx.Err())
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP error: %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// GetModelInfo returns information about the configured generation model
func (c *Client) GetModelInfo() (*interfaces.ModelInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	models, err := c.listModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	for _, model := range models {
		if model.Name == c.modelName || strings.TrimSuffix(model.Name, ":latest") == c.modelName {
			return &interfaces.ModelInfo{
				Name:     c.modelName,
				Provider: "ollama",
				Status:   "available",
			}, nil
		}
	}

	return nil, fmt.Errorf("model %s not found", c.modelName)
}

// listModels returns the models available locally
func (c *Client) listModels(ctx context.Context) ([]OllamaModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var listResp OllamaListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return listResp.Models, nil
}

// HealthCheck verifies the Ollama service is available and responsive
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama service is not responding: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama service returned status %d", resp.StatusCode)
	}

	return nil
}

// Close closes the Ollama client connection
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
