package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/searchlab/postsearch/internal/store"
	pserrors "github.com/searchlab/postsearch/pkg/errors"
)

// Builder constructs an Index from a document collection in a single pass.
// Tokenization and per-document counting fan out across a worker pool;
// merging into the shared postings structure stays on one goroutine, so the
// final index is independent of worker scheduling.
type Builder struct {
	normalize func(string) []string
	workers   int
	logger    *slog.Logger
}

// NewBuilder creates a Builder using the given normalizer. workers <= 0
// selects GOMAXPROCS.
func NewBuilder(normalize func(string) []string, workers int) *Builder {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Builder{
		normalize: normalize,
		workers:   workers,
		logger:    slog.Default().With("component", "index-builder"),
	}
}

// docCounts is one worker's output for a single document.
type docCounts struct {
	id     string
	freq   map[string]int
	length int
	meta   store.Metadata
}

// Build processes the whole corpus and returns a complete Index without
// vectors or magnitudes; the weight model fills those in afterwards.
// Cancelling ctx aborts the build. A document with an empty ID or a
// duplicate ID fails the build with ErrMalformedInput.
func (b *Builder) Build(ctx context.Context, docs []store.Document) (*Index, error) {
	for i, doc := range docs {
		if doc.ID == "" {
			return nil, fmt.Errorf("%w: document at position %d has empty id", pserrors.ErrMalformedInput, i)
		}
	}

	counts := make([]docCounts, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc := docs[i]
			tokens := b.normalize(doc.Text)
			freq := make(map[string]int, len(tokens))
			for _, t := range tokens {
				freq[t]++
			}
			counts[i] = docCounts{
				id:     doc.ID,
				freq:   freq,
				length: len(tokens),
				meta:   doc.Metadata,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	// Merge is serialized; postings accumulation is commutative, so the
	// result does not depend on which worker finished first.
	idx := New()
	for _, dc := range counts {
		if idx.Has(dc.id) {
			return nil, fmt.Errorf("%w: duplicate document id %q", pserrors.ErrMalformedInput, dc.id)
		}
		idx.N++
		idx.DocLength[dc.id] = dc.length
		if dc.meta != nil {
			idx.Metadata[dc.id] = dc.meta
		}
		idx.Stats[dc.id] = maxTF(dc.freq)
		for term, tf := range dc.freq {
			idx.Postings[term] = append(idx.Postings[term], Posting{DocID: dc.id, Frequency: tf})
			idx.DocFreq[term]++
		}
	}
	idx.Canonicalize()

	b.logger.Info("index built",
		"documents", idx.N,
		"terms", idx.TermCount(),
		"workers", b.workers,
	)
	return idx, nil
}

// maxTF finds the most frequent term in one document's frequency table.
// Ties resolve to the lexicographically smallest term so rebuilds are
// deterministic.
func maxTF(freq map[string]int) DocStats {
	if len(freq) == 0 {
		return DocStats{}
	}
	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	best := DocStats{}
	for _, term := range terms {
		if freq[term] > best.MaxTF {
			best = DocStats{MaxTFTerm: term, MaxTF: freq[term]}
		}
	}
	return best
}
