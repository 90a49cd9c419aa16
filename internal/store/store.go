// Package store supplies the document collection consumed by the index
// builder. Sources fetch the full corpus in one pass; the engine never
// touches connection or schema mechanics.
package store

import "context"

// Metadata is the opaque per-post payload (likes, comments, date, ...)
// carried through the index and returned with search results. The engine
// never interprets it.
type Metadata map[string]any

// Document is one post as delivered by a source. ID must be non-empty,
// unique, and stable across runs.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Source delivers the full document collection to the builder. A failed
// fetch surfaces as ErrSourceUnavailable and aborts the build; no partial
// index is ever published.
type Source interface {
	FetchAll(ctx context.Context) ([]Document, error)
}
