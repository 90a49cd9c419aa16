package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	pserrors "github.com/searchlab/postsearch/pkg/errors"
)

// FileSource reads documents from a newline-delimited JSON file, one
// Document per line. It lets the CLI build an index from a dataset dump
// without a database.
type FileSource struct {
	Path string
}

// NewFileSource creates a source over the given NDJSON file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// FetchAll reads and decodes every line. A missing file or an undecodable
// line makes the whole fetch fail; the builder never sees a partial corpus.
func (s *FileSource) FetchAll(ctx context.Context) ([]Document, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", pserrors.ErrSourceUnavailable, s.Path, err)
	}
	defer f.Close()

	var docs []Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", pserrors.ErrSourceUnavailable, s.Path, line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", pserrors.ErrSourceUnavailable, s.Path, err)
	}
	return docs, nil
}
