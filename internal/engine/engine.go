// Package engine ties the builder, weight model, ranker, and codec together.
// It owns the currently served index behind an atomic pointer: queries read
// it lock-free, and a rebuild or a publish notification swaps in a fresh
// index without interrupting in-flight searches.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/searchlab/postsearch/internal/codec"
	"github.com/searchlab/postsearch/internal/index"
	"github.com/searchlab/postsearch/internal/ranker"
	"github.com/searchlab/postsearch/internal/store"
	"github.com/searchlab/postsearch/internal/weight"
	pserrors "github.com/searchlab/postsearch/pkg/errors"
)

// Result is one ranked hit with its pass-through metadata.
type Result struct {
	DocID    string         `json:"doc_id"`
	Score    float64        `json:"score"`
	Metadata store.Metadata `json:"metadata,omitempty"`
}

// Response is a complete answer to one query.
type Response struct {
	Query     string   `json:"query"`
	TotalHits int      `json:"total_hits"`
	Results   []Result `json:"results"`
}

// PublishedEvent is the Kafka payload announcing a freshly published index.
type PublishedEvent struct {
	IndexPath string    `json:"index_path"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	BuiltAt   time.Time `json:"built_at"`
}

// Engine serves searches over the current index and rebuilds it on demand.
type Engine struct {
	current   atomic.Pointer[index.Index]
	normalize func(string) []string
	builder   *index.Builder
	defaultK  int
	logger    *slog.Logger
}

// New creates an Engine with no index loaded. normalize is the tokenizer
// applied to both documents and queries; defaultK <= 0 falls back to
// ranker.DefaultTopK.
func New(normalize func(string) []string, buildWorkers, defaultK int) *Engine {
	if defaultK <= 0 {
		defaultK = ranker.DefaultTopK
	}
	return &Engine{
		normalize: normalize,
		builder:   index.NewBuilder(normalize, buildWorkers),
		defaultK:  defaultK,
		logger:    slog.Default().With("component", "engine"),
	}
}

// Build fetches the full corpus from src and constructs a complete index:
// postings, statistics, document vectors, and magnitudes. The result is
// returned but not installed; callers persist it first and then swap it in.
func (e *Engine) Build(ctx context.Context, src store.Source) (*index.Index, error) {
	start := time.Now()
	docs, err := src.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching documents: %w", err)
	}
	idx, err := e.builder.Build(ctx, docs)
	if err != nil {
		return nil, err
	}
	weight.ComputeVectors(idx)
	e.logger.Info("build complete",
		"documents", idx.N,
		"terms", idx.TermCount(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return idx, nil
}

// Install atomically swaps the served index. In-flight searches finish on
// the index they started with.
func (e *Engine) Install(idx *index.Index) {
	e.current.Store(idx)
	e.logger.Info("index installed", "documents", idx.N, "terms", idx.TermCount())
}

// Current returns the served index, or nil before the first Install.
func (e *Engine) Current() *index.Index {
	return e.current.Load()
}

// LoadFrom reads a persisted index from path, validates it, and installs
// it. A corrupt file leaves the currently served index untouched.
func (e *Engine) LoadFrom(path string) error {
	idx, err := codec.Load(path)
	if err != nil {
		return err
	}
	e.Install(idx)
	return nil
}

// Search normalizes the query, builds its weight vector, and returns the
// top k results with metadata attached. A query with no recognized terms
// is not an error: it returns an empty result set. k <= 0 uses the
// engine's default; the caller caps k for transport-level limits.
func (e *Engine) Search(ctx context.Context, query string, k int) (*Response, error) {
	idx := e.current.Load()
	if idx == nil {
		return nil, pserrors.ErrNoIndex
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = e.defaultK
	}

	tokens := e.normalize(query)
	qvec, qnorm := weight.QueryVector(idx, tokens)
	scored, matched := ranker.Rank(idx, qvec, qnorm, k)

	results := make([]Result, 0, len(scored))
	for _, s := range scored {
		results = append(results, Result{
			DocID:    s.DocID,
			Score:    s.Score,
			Metadata: idx.Metadata[s.DocID],
		})
	}
	e.logger.Debug("search executed",
		"query", query,
		"terms", len(tokens),
		"recognized", len(qvec),
		"matched", matched,
		"returned", len(results),
	)
	return &Response{
		Query:     query,
		TotalHits: matched,
		Results:   results,
	}, nil
}
