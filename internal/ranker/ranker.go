// Package ranker scores candidate documents against a query vector with
// cosine similarity and selects a deterministic top-K.
package ranker

import (
	"container/heap"

	"github.com/searchlab/postsearch/internal/index"
)

// DefaultTopK is the result-list size used when the caller does not ask for
// a specific K.
const DefaultTopK = 20

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Rank scores the query vector against every candidate document and returns
// the top k results, ordered by score descending with ties broken by
// document ID ascending, plus the total number of documents that matched
// with a nonzero score before truncation. Candidates are the union of the
// posting lists of the query's terms; any other document has similarity
// exactly 0 and is never visited. Zero-norm queries and zero-norm (empty)
// documents score 0 and produce no results. Pure function of
// (index, query vector, k).
func Rank(idx *index.Index, query index.Vector, queryNorm float64, k int) ([]ScoredDoc, int) {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(query) == 0 || queryNorm == 0 {
		return []ScoredDoc{}, 0
	}

	// Sparse dot product accumulated term by term over the postings of
	// the query's terms only.
	dots := make(map[string]float64)
	for term, qw := range query {
		for _, p := range idx.PostingsFor(term) {
			if dw, ok := idx.Vectors[p.DocID][term]; ok {
				dots[p.DocID] += qw * dw
			}
		}
	}

	matched := 0
	h := &scoredDocHeap{}
	heap.Init(h)
	for docID, dot := range dots {
		mag := idx.Magnitude[docID]
		if mag == 0 || dot == 0 {
			continue
		}
		matched++
		heap.Push(h, ScoredDoc{DocID: docID, Score: dot / (queryNorm * mag)})
		if h.Len() > k {
			heap.Pop(h)
		}
	}

	result := make([]ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ScoredDoc)
	}
	return result, matched
}

// scoredDocHeap is a min-heap keeping the current top-K: the worst result
// (lowest score, then highest doc ID) sits at the root and is evicted first.
type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocID > h[j].DocID
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
