package ranker

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchlab/postsearch/internal/index"
	"github.com/searchlab/postsearch/internal/store"
	"github.com/searchlab/postsearch/internal/weight"
)

func fields(text string) []string {
	return strings.Fields(text)
}

func buildIndex(t *testing.T, docs []store.Document) *index.Index {
	t.Helper()
	idx, err := index.NewBuilder(fields, 1).Build(context.Background(), docs)
	require.NoError(t, err)
	weight.ComputeVectors(idx)
	return idx
}

func rankQuery(idx *index.Index, query string, k int) ([]ScoredDoc, int) {
	vec, norm := weight.QueryVector(idx, fields(query))
	return Rank(idx, vec, norm, k)
}

func TestRank_KnownCorpus(t *testing.T) {
	idx := buildIndex(t, []store.Document{
		{ID: "doc1", Text: "cat dog cat"},
		{ID: "doc2", Text: "dog bird"},
		{ID: "doc3", Text: ""},
	})

	results, matched := rankQuery(idx, "cat dog", 10)
	require.Len(t, results, 2)
	assert.Equal(t, 2, matched)
	assert.Equal(t, "doc1", results[0].DocID)
	assert.Equal(t, "doc2", results[1].DocID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.InDelta(t, 0.985, results[0].Score, 0.01)
	// "dog" appears in 2 of 3 documents so its idf is small; doc2 matches
	// on dog alone and scores far below doc1.
	assert.Less(t, results[1].Score, 0.2)
}

func TestRank_EmptyDocumentNeverReturned(t *testing.T) {
	idx := buildIndex(t, []store.Document{
		{ID: "a", Text: "cat"},
		{ID: "empty", Text: ""},
	})

	results, _ := rankQuery(idx, "cat", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].DocID)
}

func TestRank_UnknownQueryYieldsNothing(t *testing.T) {
	idx := buildIndex(t, []store.Document{{ID: "a", Text: "cat dog"}})

	results, matched := rankQuery(idx, "unicorn", 10)
	assert.Empty(t, results)
	assert.Equal(t, 0, matched)
}

func TestRank_EmptyQueryVector(t *testing.T) {
	idx := buildIndex(t, []store.Document{{ID: "a", Text: "cat"}})

	results, matched := Rank(idx, index.Vector{}, 0, 10)
	assert.Empty(t, results)
	assert.Equal(t, 0, matched)
}

func TestRank_ScaleInvariance(t *testing.T) {
	// Cosine similarity ignores document length: a document repeating the
	// same proportions at twice the length scores identically.
	idx := buildIndex(t, []store.Document{
		{ID: "short", Text: "cat dog"},
		{ID: "long", Text: "cat dog cat dog"},
		{ID: "other", Text: "bird"},
	})

	results, _ := rankQuery(idx, "cat dog", 10)
	require.Len(t, results, 2)
	assert.InDelta(t, results[0].Score, results[1].Score, 1e-12)
	// Equal scores fall back to document ID order.
	assert.Equal(t, "long", results[0].DocID)
	assert.Equal(t, "short", results[1].DocID)
}

func TestRank_SelfSimilarityIsOne(t *testing.T) {
	idx := buildIndex(t, []store.Document{
		{ID: "a", Text: "cat cat dog"},
		{ID: "b", Text: "bird"},
	})

	results, _ := rankQuery(idx, "cat cat dog", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestRank_TruncatesToK(t *testing.T) {
	docs := make([]store.Document, 30)
	for i := range docs {
		// Vary the share of "cat" so every document gets a distinct score.
		text := "cat" + strings.Repeat(" filler"+fmt.Sprint(i), i)
		docs[i] = store.Document{ID: fmt.Sprintf("doc%02d", i), Text: text}
	}
	// One document without "cat" keeps its idf above zero.
	docs = append(docs, store.Document{ID: "zz", Text: "bird"})
	idx := buildIndex(t, docs)

	results, matched := rankQuery(idx, "cat", 5)
	assert.Len(t, results, 5)
	assert.Equal(t, 30, matched, "matched count reports pre-truncation hits")
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRank_DefaultKWhenNonPositive(t *testing.T) {
	docs := make([]store.Document, DefaultTopK+10)
	for i := range docs {
		docs[i] = store.Document{
			ID:   fmt.Sprintf("doc%02d", i),
			Text: "cat" + strings.Repeat(" pad", i),
		}
	}
	docs = append(docs, store.Document{ID: "zz", Text: "bird"})
	idx := buildIndex(t, docs)

	results, _ := rankQuery(idx, "cat", 0)
	assert.Len(t, results, DefaultTopK)
}

func TestRank_DeterministicOrder(t *testing.T) {
	idx := buildIndex(t, []store.Document{
		{ID: "a", Text: "cat dog"},
		{ID: "b", Text: "dog cat"},
		{ID: "c", Text: "cat dog"},
		{ID: "z", Text: "bird"},
	})

	var first []ScoredDoc
	for i := 0; i < 20; i++ {
		results, _ := rankQuery(idx, "cat", 10)
		if first == nil {
			first = results
			continue
		}
		assert.Equal(t, first, results, "iteration %d", i)
	}
	// All three matches tie; IDs break the tie ascending.
	require.Len(t, first, 3)
	assert.Equal(t, "a", first[0].DocID)
	assert.Equal(t, "b", first[1].DocID)
	assert.Equal(t, "c", first[2].DocID)
}

func TestRank_ScoresWithinUnitInterval(t *testing.T) {
	idx := buildIndex(t, []store.Document{
		{ID: "a", Text: "cat dog bird"},
		{ID: "b", Text: "cat cat"},
		{ID: "c", Text: "dog fish"},
	})

	results, _ := rankQuery(idx, "cat dog", 10)
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0+1e-12)
		assert.False(t, math.IsNaN(r.Score))
	}
}
