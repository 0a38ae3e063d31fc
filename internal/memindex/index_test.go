package memindex

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"dispute-notepad/internal/interfaces"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto a tiny fixed vocabulary
type keywordEmbedder struct {
	vocabulary []string
	err        error
	calls      int
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	text = strings.ToLower(text)
	vector := make([]float64, len(e.vocabulary))
	for i, word := range e.vocabulary {
		vector[i] = float64(strings.Count(text, word))
	}
	return vector, nil
}

func doc(id, content string) interfaces.Document {
	return interfaces.Document{ID: chroma.DocumentID(id), Content: content}
}

func TestIndex_SearchRanksBySimilarity(t *testing.T) {
	embedder := &keywordEmbedder{vocabulary: []string{"backup", "supplier", "meter"}}
	ix := New(embedder)

	require.NoError(t, ix.Store(context.Background(), []interfaces.Document{
		doc("a", "Supplier cost rate rules"),
		doc("b", "Backup read averaging: two backup reads"),
		doc("c", "Meter exchange procedure"),
	}))
	assert.Equal(t, 3, ix.Len())

	results, err := ix.Search(context.Background(), "what about the backup read", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, chroma.DocumentID("b"), results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-9)
}

func TestIndex_StoreReplacesIndexedSet(t *testing.T) {
	embedder := &keywordEmbedder{vocabulary: []string{"x"}}
	ix := New(embedder)

	require.NoError(t, ix.Store(context.Background(), []interfaces.Document{doc("a", "x"), doc("old", "x x x")}))
	require.Equal(t, 2, embedder.calls)

	require.NoError(t, ix.Store(context.Background(), []interfaces.Document{doc("a", "x"), doc("b", "x x"), doc("b", "x x")}))
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, 3, embedder.calls, "only the new passage is embedded")

	results, err := ix.Search(context.Background(), "x", 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, chroma.DocumentID("old"), r.Document.ID)
	}
}

// retrievalEmbedder records which embedding task each call used
type retrievalEmbedder struct {
	keywordEmbedder
	queryCalls int
}

func (e *retrievalEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	e.queryCalls++
	return e.keywordEmbedder.Embed(ctx, text)
}

func TestIndex_SearchUsesQueryEmbedding(t *testing.T) {
	embedder := &retrievalEmbedder{keywordEmbedder: keywordEmbedder{vocabulary: []string{"backup", "meter"}}}
	ix := New(embedder)

	require.NoError(t, ix.Store(context.Background(), []interfaces.Document{doc("a", "backup read"), doc("b", "meter exchange")}))
	assert.Equal(t, 0, embedder.queryCalls)

	results, err := ix.Search(context.Background(), "backup", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chroma.DocumentID("a"), results[0].Document.ID)
	assert.Equal(t, 1, embedder.queryCalls)
	assert.Equal(t, 3, embedder.calls)
}

func TestIndex_EmbedErrors(t *testing.T) {
	embedder := &keywordEmbedder{err: errors.New("quota exceeded")}
	ix := New(embedder)

	err := ix.Store(context.Background(), []interfaces.Document{doc("a", "x")})
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = ix.Search(context.Background(), "x", 1)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestIndex_PrecomputedVectorsAreNotReembedded(t *testing.T) {
	embedder := &keywordEmbedder{vocabulary: []string{"x"}}
	ix := New(embedder)

	d := doc("a", "x")
	d.Vector = []float64{1}
	require.NoError(t, ix.Store(context.Background(), []interfaces.Document{d}))
	assert.Equal(t, 0, embedder.calls)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine(nil, nil))
	assert.Equal(t, 0.0, cosine([]float64{1}, []float64{1, 2}))
	assert.Equal(t, 0.0, cosine([]float64{0, 0}, []float64{1, 1}))
	assert.False(t, math.IsNaN(cosine([]float64{0}, []float64{0})))
}
