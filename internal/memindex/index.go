// Package memindex is an in-process similarity index: passages are embedded
// through the generative provider and ranked by cosine similarity.
package memindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"dispute-notepad/internal/interfaces"
)

// Embedder produces embedding vectors; interfaces.LLMClient satisfies it
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// queryEmbedder is implemented by embedders that distinguish search queries
// from indexed passages
type queryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// Index implements interfaces.VectorDB in memory
type Index struct {
	embedder  Embedder
	mu        sync.RWMutex
	documents []interfaces.Document
}

// New creates an empty index
func New(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// Store makes documents the indexed set. Documents already indexed under the
// same ID keep their vectors; IDs absent from documents are dropped.
func (ix *Index) Store(ctx context.Context, documents []interfaces.Document) error {
	if len(documents) == 0 {
		return nil
	}

	ix.mu.RLock()
	existing := make(map[string][]float64, len(ix.documents))
	for _, doc := range ix.documents {
		existing[string(doc.ID)] = doc.Vector
	}
	ix.mu.RUnlock()

	seen := make(map[string]bool, len(documents))
	embedded := make([]interfaces.Document, 0, len(documents))
	for _, doc := range documents {
		if seen[string(doc.ID)] {
			continue
		}
		seen[string(doc.ID)] = true

		if len(doc.Vector) == 0 {
			doc.Vector = existing[string(doc.ID)]
		}
		if len(doc.Vector) == 0 {
			v, err := ix.embedder.Embed(ctx, doc.Content)
			if err != nil {
				return fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
			}
			doc.Vector = v
		}
		embedded = append(embedded, doc)
	}

	ix.mu.Lock()
	ix.documents = embedded
	ix.mu.Unlock()

	return nil
}

// Search embeds the query and returns the limit most similar documents
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]interfaces.VectorSearchResult, error) {
	embed := ix.embedder.Embed
	if qe, ok := ix.embedder.(queryEmbedder); ok {
		embed = qe.EmbedQuery
	}

	queryVector, err := embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	ix.mu.RLock()
	results := make([]interfaces.VectorSearchResult, 0, len(ix.documents))
	for _, doc := range ix.documents {
		score := cosine(queryVector, doc.Vector)
		results = append(results, interfaces.VectorSearchResult{
			Document: doc,
			Score:    score,
			Distance: 1 - score,
		})
	}
	ix.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Len returns the number of indexed documents
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.documents)
}

// HealthCheck always succeeds
func (ix *Index) HealthCheck(ctx context.Context) error {
	return nil
}

// Close drops the indexed documents
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.documents = nil
	return nil
}

// cosine returns the cosine similarity of a and b, or 0 when the vectors are
// empty, zero or of different length
func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
