package interfaces

import (
	"context"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
)

// Document represents a passage stored in the similarity index
type Document struct {
	ID       chroma.DocumentID       `json:"id"`
	Content  string                  `json:"content"`
	Metadata chroma.DocumentMetadata `json:"metadata"`
	Vector   []float64               `json:"vector,omitempty"`
}

// VectorSearchResult represents a result from vector similarity search
type VectorSearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
	Distance float64  `json:"distance"`
}

// VectorDB defines the interface for the similarity index backends
type VectorDB interface {
	// Store makes documents the indexed set, dropping passages absent from it
	Store(ctx context.Context, documents []Document) error

	// Search performs semantic search and returns similar documents
	Search(ctx context.Context, query string, limit int) ([]VectorSearchResult, error)

	// HealthCheck verifies the backend is working
	HealthCheck(ctx context.Context) error

	// Close closes the backend connection
	Close() error
}
