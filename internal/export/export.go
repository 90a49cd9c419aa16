// Package export serializes ranked results to the newline-delimited text
// form consumed by downstream tooling: one line per hit carrying rank,
// document ID, score, and a metadata summary.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/searchlab/postsearch/internal/engine"
)

// Write renders results as tab-separated lines:
//
//	rank<TAB>doc_id<TAB>score<TAB>key=value;key=value
//
// Pure serialization of the ranked sequence; ordering is taken as given.
func Write(w io.Writer, results []engine.Result) error {
	for i, r := range results {
		line := fmt.Sprintf("%d\t%s\t%.6f\t%s\n", i+1, r.DocID, r.Score, summarize(r.Metadata))
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("writing result line %d: %w", i+1, err)
		}
	}
	return nil
}

// summarize flattens the opaque metadata payload into a stable
// semicolon-separated key=value list, keys sorted.
func summarize(meta map[string]any) string {
	if len(meta) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, meta[k]))
	}
	return strings.Join(parts, ";")
}
