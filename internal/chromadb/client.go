// Package chromadb is the ChromaDB similarity index backend. Embeddings are
// computed server-side by the collection's embedding function.
package chromadb

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"dispute-notepad/internal/interfaces"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/rs/zerolog"
)

// Client implements the VectorDB interface for ChromaDB
type Client struct {
	client     chroma.Client
	httpClient *http.Client
	config     *Config
	logger     zerolog.Logger

	mu         sync.Mutex
	collection chroma.Collection
	space      embeddings.DistanceMetric
}

// Config holds ChromaDB client configuration
type Config struct {
	Host           string
	Port           int
	CollectionName string
	Timeout        time.Duration
	BatchSize      int
	// Space is the distance metric of a newly created collection
	Space embeddings.DistanceMetric
}

// DefaultConfig returns a default ChromaDB configuration
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           8000,
		CollectionName: "dispute_instructions",
		Timeout:        30 * time.Second,
		BatchSize:      100,
		Space:          embeddings.COSINE,
	}
}

// BaseURL returns the server URL
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// NewClient creates a new ChromaDB client. No connection is made until the
// first call that needs the collection.
func NewClient(config *Config, logger zerolog.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.Space == "" {
		config.Space = DefaultConfig().Space
	}

	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(config.BaseURL()))
	if err != nil {
		return nil, fmt.Errorf("failed to create ChromaDB client: %w", err)
	}

	return &Client{
		client:     client,
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger.With().Str("component", "chromadb").Str("collection", config.CollectionName).Logger(),
	}, nil
}

// getOrCreateCollection returns the configured collection, creating it on the
// server when needed. A collection created earlier keeps its own metric.
func (c *Client) getOrCreateCollection(ctx context.Context) (chroma.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.collection != nil {
		return c.collection, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	collection, err := c.client.GetOrCreateCollection(ctx, c.config.CollectionName,
		chroma.WithHNSWSpaceCreate(c.config.Space),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %s: %w", c.config.CollectionName, err)
	}

	c.setCollection(collection)
	c.logger.Debug().Str("space", string(c.space)).Msg("Using ChromaDB collection")
	return collection, nil
}

// setCollection records the collection and the metric its distances use
func (c *Client) setCollection(collection chroma.Collection) {
	c.collection = collection
	c.space = embeddings.L2
	if metadata := collection.Metadata(); metadata != nil {
		if space, ok := metadata.GetString(chroma.HNSWSpace); ok && space != "" {
			c.space = embeddings.DistanceMetric(space)
		}
	}
}

// Store makes documents the indexed set of the collection. Passages already
// present are kept as they are, passages missing from documents are deleted
// and new ones are added in batches. An empty set is a no-op.
func (c *Client) Store(ctx context.Context, documents []interfaces.Document) error {
	if len(documents) == 0 {
		return nil
	}

	collection, err := c.getOrCreateCollection(ctx)
	if err != nil {
		return err
	}

	existing, err := c.storedIDs(ctx, collection)
	if err != nil {
		return err
	}

	wanted := make(map[chroma.DocumentID]bool, len(documents))
	for _, doc := range documents {
		wanted[doc.ID] = true
	}

	var stale []chroma.DocumentID
	present := make(map[chroma.DocumentID]bool, len(existing))
	for _, id := range existing {
		present[id] = true
		if !wanted[id] {
			stale = append(stale, id)
		}
	}

	if len(stale) > 0 {
		deleteCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		err := collection.Delete(deleteCtx, chroma.WithIDsDelete(stale...))
		cancel()
		if err != nil {
			return fmt.Errorf("failed to delete stale documents: %w", err)
		}
	}

	fresh := make([]interfaces.Document, 0, len(documents))
	for _, doc := range documents {
		if present[doc.ID] {
			continue
		}
		present[doc.ID] = true
		fresh = append(fresh, doc)
	}

	for _, batch := range batches(fresh, c.config.BatchSize) {
		ids := make([]chroma.DocumentID, 0, len(batch))
		texts := make([]string, 0, len(batch))
		metadatas := make([]chroma.DocumentMetadata, 0, len(batch))

		for _, doc := range batch {
			ids = append(ids, doc.ID)
			texts = append(texts, doc.Content)
			metadatas = append(metadatas, doc.Metadata)
		}

		addCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		err := collection.Add(addCtx,
			chroma.WithIDs(ids...),
			chroma.WithTexts(texts...),
			chroma.WithMetadatas(metadatas...),
		)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to add documents: %w", err)
		}
	}

	c.logger.Info().
		Int("added", len(fresh)).
		Int("removed", len(stale)).
		Int("kept", len(documents)-len(fresh)).
		Msg("Synced documents in ChromaDB")
	return nil
}

// storedIDs lists the IDs currently in the collection
func (c *Client) storedIDs(ctx context.Context, collection chroma.Collection) ([]chroma.DocumentID, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := collection.Get(ctx, chroma.WithIncludeGet(chroma.IncludeMetadatas))
	if err != nil {
		return nil, fmt.Errorf("failed to list stored documents: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.GetIDs(), nil
}

// batches splits documents into slices of at most size elements
func batches(documents []interfaces.Document, size int) [][]interfaces.Document {
	if size <= 0 {
		size = len(documents)
	}

	var out [][]interfaces.Document
	for start := 0; start < len(documents); start += size {
		end := start + size
		if end > len(documents) {
			end = len(documents)
		}
		out = append(out, documents[start:end])
	}
	return out
}

// Search performs semantic search and returns similar documents
func (c *Client) Search(ctx context.Context, query string, limit int) ([]interfaces.VectorSearchResult, error) {
	collection, err := c.getOrCreateCollection(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	// No include list: the server then returns documents, metadatas and distances
	results, err := collection.Query(ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	c.mu.Lock()
	space := c.space
	c.mu.Unlock()

	return convertQueryResults(results, space), nil
}

// similarity maps a distance in the given metric onto a score where 1 is an
// exact match. Squared l2 distances of normalized embeddings lie in [0, 4].
func similarity(distance float64, space embeddings.DistanceMetric) float64 {
	if space == embeddings.L2 {
		return 1.0 - distance/4.0
	}
	return 1.0 - distance
}

// convertQueryResults converts the first result group of a ChromaDB query
func convertQueryResults(results chroma.QueryResult, space embeddings.DistanceMetric) []interfaces.VectorSearchResult {
	var searchResults []interfaces.VectorSearchResult
	if results == nil {
		return searchResults
	}

	documentsGroups := results.GetDocumentsGroups()
	if len(documentsGroups) == 0 {
		return searchResults
	}

	documents := documentsGroups[0]
	var metadatas []chroma.DocumentMetadata
	var ids []chroma.DocumentID
	var distances []float64

	if groups := results.GetMetadatasGroups(); len(groups) > 0 {
		metadatas = groups[0]
	}
	if groups := results.GetIDGroups(); len(groups) > 0 {
		ids = groups[0]
	}
	if groups := results.GetDistancesGroups(); len(groups) > 0 {
		for _, d := range groups[0] {
			distances = append(distances, float64(d))
		}
	}

	for i := range documents {
		document := interfaces.Document{Content: documents[i].ContentString()}
		if i < len(ids) {
			document.ID = ids[i]
		}
		if i < len(metadatas) {
			document.Metadata = metadatas[i]
		}

		var distance float64
		if i < len(distances) {
			distance = distances[i]
		}

		searchResults = append(searchResults, interfaces.VectorSearchResult{
			Document: document,
			Score:    similarity(distance, space),
			Distance: distance,
		})
	}

	return searchResults
}

// HealthCheck checks the server heartbeat
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL()+"/api/v2/heartbeat", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ChromaDB health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ChromaDB health check failed: status %d", resp.StatusCode)
	}

	return nil
}

// Close releases the underlying client
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close ChromaDB client: %w", err)
	}
	c.logger.Debug().Msg("ChromaDB client closed")
	return nil
}
