// Package index holds the inverted index value and its builder. An Index is
// constructed in one bulk pass over the corpus and never mutated afterwards;
// query serving reads it without locks. A rebuild produces a fresh Index
// that replaces the old one by atomic swap.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/searchlab/postsearch/internal/store"
)

// Index is the immutable-after-build inverted index plus collection
// statistics, document vectors, and pass-through metadata.
type Index struct {
	// N is the total document count, empty documents included.
	N int `json:"n"`
	// Postings maps each term to the documents containing it.
	Postings map[string]PostingList `json:"postings"`
	// DocFreq maps each term to the number of distinct documents
	// containing it. Always equals len(Postings[term]).
	DocFreq map[string]int `json:"df"`
	// DocLength maps each document to its token count.
	DocLength map[string]int `json:"doc_length"`
	// Vectors holds the TF-IDF weight vector of every document,
	// computed at build time.
	Vectors map[string]Vector `json:"vectors"`
	// Magnitude holds the Euclidean norm of every document vector.
	Magnitude map[string]float64 `json:"magnitude"`
	// Metadata carries each document's opaque payload, unmodified.
	Metadata map[string]store.Metadata `json:"metadata"`
	// Stats holds derived per-document term statistics.
	Stats map[string]DocStats `json:"stats"`
}

// New returns an empty Index with all maps allocated.
func New() *Index {
	return &Index{
		Postings:  make(map[string]PostingList),
		DocFreq:   make(map[string]int),
		DocLength: make(map[string]int),
		Vectors:   make(map[string]Vector),
		Magnitude: make(map[string]float64),
		Metadata:  make(map[string]store.Metadata),
		Stats:     make(map[string]DocStats),
	}
}

// TermCount returns the number of distinct terms.
func (idx *Index) TermCount() int {
	return len(idx.Postings)
}

// DF returns the document frequency of term, 0 when absent.
func (idx *Index) DF(term string) int {
	return idx.DocFreq[term]
}

// PostingsFor returns the posting list for term, nil when absent.
func (idx *Index) PostingsFor(term string) PostingList {
	return idx.Postings[term]
}

// Has reports whether the document is part of the collection.
func (idx *Index) Has(docID string) bool {
	_, ok := idx.DocLength[docID]
	return ok
}

// Terms returns all indexed terms in ascending order.
func (idx *Index) Terms() []string {
	terms := make([]string, 0, len(idx.Postings))
	for term := range idx.Postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Canonicalize sorts every posting list by document ID. Posting order is
// irrelevant to scoring but must be fixed before encoding so that rebuilds
// of the same corpus produce identical bytes.
func (idx *Index) Canonicalize() {
	for _, postings := range idx.Postings {
		sort.Slice(postings, func(i, j int) bool {
			return postings[i].DocID < postings[j].DocID
		})
	}
}

// Validate checks the structural invariants that every well-formed Index
// satisfies. The codec refuses to return an Index that fails validation.
func (idx *Index) Validate() error {
	if idx.N < 0 {
		return fmt.Errorf("negative document count %d", idx.N)
	}
	if idx.N != len(idx.DocLength) {
		return fmt.Errorf("document count %d does not match doc_length entries %d", idx.N, len(idx.DocLength))
	}
	for docID, length := range idx.DocLength {
		if length < 0 {
			return fmt.Errorf("document %q has negative length %d", docID, length)
		}
		if _, ok := idx.Magnitude[docID]; !ok {
			return fmt.Errorf("document %q missing vector magnitude", docID)
		}
		if _, ok := idx.Vectors[docID]; !ok {
			return fmt.Errorf("document %q missing weight vector", docID)
		}
	}
	for docID, mag := range idx.Magnitude {
		if math.IsNaN(mag) || math.IsInf(mag, 0) || mag < 0 {
			return fmt.Errorf("document %q has invalid magnitude %f", docID, mag)
		}
	}
	for term, postings := range idx.Postings {
		df, ok := idx.DocFreq[term]
		if !ok {
			return fmt.Errorf("term %q missing document frequency", term)
		}
		if df != len(postings) {
			return fmt.Errorf("term %q df %d does not match postings length %d", term, df, len(postings))
		}
		if df <= 0 {
			return fmt.Errorf("term %q has non-positive df %d", term, df)
		}
		seen := make(map[string]struct{}, len(postings))
		for _, p := range postings {
			if p.Frequency <= 0 {
				return fmt.Errorf("term %q document %q has non-positive frequency %d", term, p.DocID, p.Frequency)
			}
			if !idx.Has(p.DocID) {
				return fmt.Errorf("term %q references unknown document %q", term, p.DocID)
			}
			if _, dup := seen[p.DocID]; dup {
				return fmt.Errorf("term %q has duplicate posting for document %q", term, p.DocID)
			}
			seen[p.DocID] = struct{}{}
		}
	}
	for term := range idx.DocFreq {
		if _, ok := idx.Postings[term]; !ok {
			return fmt.Errorf("term %q has df but no postings", term)
		}
	}
	for docID, vec := range idx.Vectors {
		if !idx.Has(docID) {
			return fmt.Errorf("vector for unknown document %q", docID)
		}
		for term, w := range vec {
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return fmt.Errorf("document %q term %q has invalid weight %f", docID, term, w)
			}
		}
	}
	return nil
}
