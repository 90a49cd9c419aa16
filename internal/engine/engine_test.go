package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchlab/postsearch/internal/codec"
	"github.com/searchlab/postsearch/internal/store"
	"github.com/searchlab/postsearch/internal/tokenizer"
	pserrors "github.com/searchlab/postsearch/pkg/errors"
)

type fakeSource struct {
	docs []store.Document
	err  error
}

func (s *fakeSource) FetchAll(ctx context.Context) ([]store.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}

func animalCorpus() []store.Document {
	return []store.Document{
		{ID: "doc1", Text: "cat dog cat", Metadata: store.Metadata{"likes": "12"}},
		{ID: "doc2", Text: "dog bird"},
		{ID: "doc3", Text: ""},
	}
}

func builtEngine(t *testing.T, docs []store.Document) *Engine {
	t.Helper()
	e := New(tokenizer.Normalize, 2, 0)
	idx, err := e.Build(context.Background(), &fakeSource{docs: docs})
	require.NoError(t, err)
	e.Install(idx)
	return e
}

func TestEngine_SearchBeforeInstall(t *testing.T) {
	e := New(tokenizer.Normalize, 1, 0)
	_, err := e.Search(context.Background(), "cat", 10)
	assert.ErrorIs(t, err, pserrors.ErrNoIndex)
}

func TestEngine_BuildAndSearch(t *testing.T) {
	e := builtEngine(t, animalCorpus())

	resp, err := e.Search(context.Background(), "cat dog", 10)
	require.NoError(t, err)

	assert.Equal(t, "cat dog", resp.Query)
	assert.Equal(t, 2, resp.TotalHits)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "doc1", resp.Results[0].DocID)
	assert.Equal(t, "doc2", resp.Results[1].DocID)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
	assert.Equal(t, store.Metadata{"likes": "12"}, resp.Results[0].Metadata)
	assert.Nil(t, resp.Results[1].Metadata)
}

func TestEngine_SearchNormalizesQuery(t *testing.T) {
	e := builtEngine(t, []store.Document{
		{ID: "a", Text: "My cat is RUNNING around"},
		{ID: "b", Text: "the stock market crashed"},
	})

	// Casing, stopwords, mentions, and inflection all normalize away.
	resp, err := e.Search(context.Background(), "@alice CATS runs", 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "a", resp.Results[0].DocID)
}

func TestEngine_UnrecognizedQuery(t *testing.T) {
	e := builtEngine(t, animalCorpus())

	resp, err := e.Search(context.Background(), "zebra unicorn", 10)
	require.NoError(t, err, "unknown terms are not an error")
	assert.Equal(t, 0, resp.TotalHits)
	assert.Empty(t, resp.Results)
}

func TestEngine_EmptyQuery(t *testing.T) {
	e := builtEngine(t, animalCorpus())

	resp, err := e.Search(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestEngine_SearchCancelledContext(t *testing.T) {
	e := builtEngine(t, animalCorpus())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Search(ctx, "cat", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_BuildSourceFailure(t *testing.T) {
	e := New(tokenizer.Normalize, 1, 0)
	src := &fakeSource{err: pserrors.ErrSourceUnavailable}

	_, err := e.Build(context.Background(), src)
	assert.ErrorIs(t, err, pserrors.ErrSourceUnavailable)
}

func TestEngine_BuildMalformedCorpus(t *testing.T) {
	e := New(tokenizer.Normalize, 1, 0)
	src := &fakeSource{docs: []store.Document{
		{ID: "dup", Text: "one"},
		{ID: "dup", Text: "two"},
	}}

	_, err := e.Build(context.Background(), src)
	assert.ErrorIs(t, err, pserrors.ErrMalformedInput)
}

func TestEngine_PersistReloadRoundtrip(t *testing.T) {
	e := builtEngine(t, animalCorpus())
	path := filepath.Join(t.TempDir(), "posts.psix")
	require.NoError(t, codec.Write(path, e.Current()))

	fresh := New(tokenizer.Normalize, 1, 0)
	require.NoError(t, fresh.LoadFrom(path))

	want, err := e.Search(context.Background(), "cat dog", 10)
	require.NoError(t, err)
	got, err := fresh.Search(context.Background(), "cat dog", 10)
	require.NoError(t, err)
	assert.Equal(t, want, got, "a reloaded index answers identically")
}

func TestEngine_LoadFromCorruptKeepsCurrent(t *testing.T) {
	e := builtEngine(t, animalCorpus())
	before := e.Current()

	path := filepath.Join(t.TempDir(), "bad.psix")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an index"), 0644))

	err := e.LoadFrom(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, pserrors.ErrCorruptIndex)
	assert.Same(t, before, e.Current(), "a failed reload never evicts the served index")
}

func TestEngine_InstallSwapsIndex(t *testing.T) {
	e := builtEngine(t, animalCorpus())

	idx, err := e.Build(context.Background(), &fakeSource{docs: []store.Document{
		{ID: "x", Text: "quantum computing"},
		{ID: "y", Text: "gardening tips"},
	}})
	require.NoError(t, err)
	e.Install(idx)

	resp, err := e.Search(context.Background(), "quantum", 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "x", resp.Results[0].DocID)

	resp, err = e.Search(context.Background(), "cat", 10)
	require.NoError(t, err)
	assert.Empty(t, resp.Results, "the old corpus is gone after the swap")
}

func TestEngine_DefaultK(t *testing.T) {
	e := New(tokenizer.Normalize, 1, 3)
	docs := []store.Document{
		{ID: "a", Text: "coffee espresso"},
		{ID: "b", Text: "coffee latte"},
		{ID: "c", Text: "coffee mocha"},
		{ID: "d", Text: "coffee cappuccino"},
		{ID: "e", Text: "tea"},
	}
	idx, err := e.Build(context.Background(), &fakeSource{docs: docs})
	require.NoError(t, err)
	e.Install(idx)

	resp, err := e.Search(context.Background(), "coffee", 0)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
	assert.Equal(t, 4, resp.TotalHits)
}
