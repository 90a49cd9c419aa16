package index

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchlab/postsearch/internal/store"
	pserrors "github.com/searchlab/postsearch/pkg/errors"
)

// fields splits on whitespace without stemming, so tests control the exact
// term space.
func fields(text string) []string {
	return strings.Fields(text)
}

func buildTestIndex(t *testing.T, workers int, docs []store.Document) *Index {
	t.Helper()
	idx, err := NewBuilder(fields, workers).Build(context.Background(), docs)
	require.NoError(t, err)
	return idx
}

func animalCorpus() []store.Document {
	return []store.Document{
		{ID: "doc1", Text: "cat dog cat"},
		{ID: "doc2", Text: "dog bird"},
		{ID: "doc3", Text: ""},
	}
}

func TestBuilder_CollectionStatistics(t *testing.T) {
	idx := buildTestIndex(t, 1, animalCorpus())

	assert.Equal(t, 3, idx.N)
	assert.Equal(t, 1, idx.DF("cat"))
	assert.Equal(t, 2, idx.DF("dog"))
	assert.Equal(t, 1, idx.DF("bird"))
	assert.Equal(t, 0, idx.DF("fish"))

	assert.Equal(t, 3, idx.DocLength["doc1"])
	assert.Equal(t, 2, idx.DocLength["doc2"])
	assert.Equal(t, 0, idx.DocLength["doc3"])
}

func TestBuilder_TermFrequencies(t *testing.T) {
	idx := buildTestIndex(t, 1, animalCorpus())

	catPostings := idx.PostingsFor("cat")
	require.Len(t, catPostings, 1)
	assert.Equal(t, Posting{DocID: "doc1", Frequency: 2}, catPostings[0])

	dogPostings := idx.PostingsFor("dog")
	require.Len(t, dogPostings, 2)
	assert.Equal(t, Posting{DocID: "doc1", Frequency: 1}, dogPostings[0])
	assert.Equal(t, Posting{DocID: "doc2", Frequency: 1}, dogPostings[1])
}

func TestBuilder_DFMatchesPostings(t *testing.T) {
	docs := []store.Document{
		{ID: "a", Text: "one two three two"},
		{ID: "b", Text: "two three four"},
		{ID: "c", Text: "four four four"},
	}
	idx := buildTestIndex(t, 4, docs)

	for term, postings := range idx.Postings {
		assert.Equal(t, len(postings), idx.DF(term), "df invariant for term %q", term)
		seen := map[string]bool{}
		for _, p := range postings {
			assert.False(t, seen[p.DocID], "duplicate posting for (%q, %q)", term, p.DocID)
			assert.Greater(t, p.Frequency, 0)
			seen[p.DocID] = true
		}
	}
}

func TestBuilder_EmptyDocumentIsMemberOfN(t *testing.T) {
	idx := buildTestIndex(t, 1, []store.Document{
		{ID: "empty", Text: ""},
	})
	assert.Equal(t, 1, idx.N)
	assert.Equal(t, 0, idx.DocLength["empty"])
	assert.Equal(t, 0, idx.TermCount())
}

func TestBuilder_EmptyIDFails(t *testing.T) {
	_, err := NewBuilder(fields, 1).Build(context.Background(), []store.Document{
		{ID: "", Text: "cat"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pserrors.ErrMalformedInput)
}

func TestBuilder_DuplicateIDFails(t *testing.T) {
	_, err := NewBuilder(fields, 1).Build(context.Background(), []store.Document{
		{ID: "dup", Text: "cat"},
		{ID: "dup", Text: "dog"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pserrors.ErrMalformedInput)
}

func TestBuilder_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := make([]store.Document, 500)
	for i := range docs {
		docs[i] = store.Document{ID: string(rune('a' + i%26)) + string(rune('0'+i/26)), Text: "cat dog"}
	}
	_, err := NewBuilder(fields, 4).Build(ctx, docs)
	assert.Error(t, err)
}

func TestBuilder_WorkerCountDoesNotChangeResult(t *testing.T) {
	docs := []store.Document{
		{ID: "p1", Text: "alpha beta gamma alpha"},
		{ID: "p2", Text: "beta beta delta"},
		{ID: "p3", Text: "gamma delta epsilon"},
		{ID: "p4", Text: ""},
	}
	serial := buildTestIndex(t, 1, docs)
	parallel := buildTestIndex(t, 8, docs)
	assert.Equal(t, serial, parallel)
}

func TestBuilder_MetadataPassthrough(t *testing.T) {
	idx := buildTestIndex(t, 1, []store.Document{
		{ID: "p1", Text: "cat", Metadata: store.Metadata{"likes": "10", "date": "2024-05-01"}},
	})
	require.Contains(t, idx.Metadata, "p1")
	assert.Equal(t, "10", idx.Metadata["p1"]["likes"])
	assert.Equal(t, "2024-05-01", idx.Metadata["p1"]["date"])
}

func TestBuilder_MaxTFStats(t *testing.T) {
	idx := buildTestIndex(t, 1, []store.Document{
		{ID: "p1", Text: "cat dog cat cat dog"},
		{ID: "p2", Text: "tie tie break break"},
	})
	assert.Equal(t, DocStats{MaxTFTerm: "cat", MaxTF: 3}, idx.Stats["p1"])
	// Equal counts resolve to the lexicographically smallest term.
	assert.Equal(t, DocStats{MaxTFTerm: "break", MaxTF: 2}, idx.Stats["p2"])
}

func TestIndex_Terms(t *testing.T) {
	idx := buildTestIndex(t, 1, animalCorpus())
	assert.Equal(t, []string{"bird", "cat", "dog"}, idx.Terms())
}
