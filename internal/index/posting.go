package index

// Posting records that a document contains a term, with its occurrence
// count. Document IDs are unique within one term's posting list.
type Posting struct {
	DocID     string `json:"d"`
	Frequency int    `json:"f"`
}

// PostingList is every document containing a given term.
type PostingList []Posting

// Vector is a sparse term-weight map. Only terms present in the document
// (or query) carry a weight.
type Vector map[string]float64

// DocStats holds derived per-document statistics: the most frequent term
// and its raw count.
type DocStats struct {
	MaxTFTerm string `json:"max_tf_term"`
	MaxTF     int    `json:"max_tf"`
}
