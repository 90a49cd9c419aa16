// Package weight implements the TF-IDF model over an index's collection
// statistics. Term frequency is normalized by document length and IDF uses
// the natural log of N/df, so a term present in every document weighs
// exactly zero.
package weight

import (
	"math"

	"github.com/searchlab/postsearch/internal/index"
)

// IDF returns ln(N/df) for the term, or 0 when the term is absent from the
// collection. Never negative: df ranges over [1, N] for indexed terms.
func IDF(idx *index.Index, term string) float64 {
	df := idx.DF(term)
	if df == 0 || idx.N == 0 {
		return 0
	}
	return math.Log(float64(idx.N) / float64(df))
}

// TF returns the length-normalized term frequency for one document, 0 for a
// zero-length document.
func TF(frequency, docLength int) float64 {
	if docLength == 0 {
		return 0
	}
	return float64(frequency) / float64(docLength)
}

// ComputeVectors derives the TF-IDF weight vector and its magnitude for
// every document, filling idx.Vectors and idx.Magnitude. Runs once at build
// time; the results are persisted with the index.
func ComputeVectors(idx *index.Index) {
	for docID := range idx.DocLength {
		idx.Vectors[docID] = index.Vector{}
		idx.Magnitude[docID] = 0
	}
	for term, postings := range idx.Postings {
		idf := IDF(idx, term)
		if idf == 0 {
			// Ubiquitous terms carry no signal; their weight is 0
			// everywhere and the sparse vectors omit them.
			continue
		}
		for _, p := range postings {
			w := TF(p.Frequency, idx.DocLength[p.DocID]) * idf
			if w > 0 {
				idx.Vectors[p.DocID][term] = w
			}
		}
	}
	for docID, vec := range idx.Vectors {
		var sum float64
		for _, w := range vec {
			sum += w * w
		}
		idx.Magnitude[docID] = math.Sqrt(sum)
	}
}

// QueryVector treats the query's token stream as a one-off document and
// returns its sparse TF-IDF vector plus magnitude. Terms unknown to the
// index are dropped: they cannot match any document. An all-unknown or
// empty query yields an empty vector with magnitude 0.
func QueryVector(idx *index.Index, tokens []string) (index.Vector, float64) {
	vec := index.Vector{}
	if len(tokens) == 0 {
		return vec, 0
	}
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	for term, count := range freq {
		idf := IDF(idx, term)
		if idf == 0 && idx.DF(term) == 0 {
			continue
		}
		w := TF(count, len(tokens)) * idf
		if w > 0 {
			vec[term] = w
		}
	}
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	return vec, math.Sqrt(sum)
}
