package interfaces

import "context"

// LLMRequest represents a request to the language model
type LLMRequest struct {
	Prompt      string            `json:"prompt"`
	Context     string            `json:"context,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// LLMResponse represents a response from the language model
type LLMResponse struct {
	Text     string            `json:"text"`
	Tokens   int               `json:"tokens"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// ModelInfo represents information about the configured model
type ModelInfo struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Status   string `json:"status"`
}

// LLMClient defines the interface for the hosted generative-answer provider
type LLMClient interface {
	// Generate produces a single free-text answer for the request
	Generate(ctx context.Context, request LLMRequest) (*LLMResponse, error)

	// Embed generates an embedding for the given text
	Embed(ctx context.Context, text string) ([]float64, error)

	// GetModelInfo returns information about the configured model
	GetModelInfo() (*ModelInfo, error)

	// HealthCheck verifies the provider is reachable
	HealthCheck(ctx context.Context) error

	// Close releases the client
	Close() error
}
