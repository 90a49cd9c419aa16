// Package codec persists a built index to a single .psix file and loads it
// back. A file is a fixed little-endian header, a JSON payload, and a CRC32
// footer. Encoding is deterministic: the same index always produces the
// same bytes, so rebuilds of an unchanged corpus are byte-identical.
//
// Writes go to a temp file renamed into place on success, so a crashed
// build never leaves a partial index where queries can see it.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/searchlab/postsearch/internal/index"
	pserrors "github.com/searchlab/postsearch/pkg/errors"
)

const (
	// MagicBytes identifies a valid .psix index file.
	MagicBytes    uint32 = 0x50534958
	FormatVersion uint32 = 1
	HeaderSize    int    = 32
	FooterSize    int    = 4

	// maxPayloadSize bounds the payload length a header may claim. A
	// corrupt header must not drive the allocation below it.
	maxPayloadSize uint64 = 1 << 31
)

// Encode writes the index to w in the .psix format.
func Encode(w io.Writer, idx *index.Index) error {
	idx.Canonicalize()
	payload, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshaling index payload: %w", err)
	}

	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(header[8:16], uint64(idx.N))
	binary.LittleEndian.PutUint64(header[16:24], uint64(len(payload)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer, crc32.ChecksumIEEE(payload))
	if _, err := w.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	return nil
}

// Decode reads a .psix stream and reconstructs the index, validating every
// structural invariant. Any mismatch yields ErrCorruptIndex; a partial
// index is never returned.
func Decode(r io.Reader) (*index.Index, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", pserrors.ErrCorruptIndex, err)
	}
	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != MagicBytes {
		return nil, fmt.Errorf("%w: bad magic bytes %#x", pserrors.ErrCorruptIndex, magic)
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", pserrors.ErrCorruptIndex, version)
	}
	docCount := binary.LittleEndian.Uint64(header[8:16])
	payloadSize := binary.LittleEndian.Uint64(header[16:24])
	if payloadSize > maxPayloadSize {
		return nil, fmt.Errorf("%w: header claims payload of %d bytes", pserrors.ErrCorruptIndex, payloadSize)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: reading payload: %v", pserrors.ErrCorruptIndex, err)
	}
	footer := make([]byte, FooterSize)
	if _, err := io.ReadFull(r, footer); err != nil {
		return nil, fmt.Errorf("%w: reading footer: %v", pserrors.ErrCorruptIndex, err)
	}
	if sum := crc32.ChecksumIEEE(payload); sum != binary.LittleEndian.Uint32(footer) {
		return nil, fmt.Errorf("%w: payload checksum mismatch", pserrors.ErrCorruptIndex)
	}

	idx := index.New()
	if err := json.Unmarshal(payload, idx); err != nil {
		return nil, fmt.Errorf("%w: parsing payload: %v", pserrors.ErrCorruptIndex, err)
	}
	if uint64(idx.N) != docCount {
		return nil, fmt.Errorf("%w: header document count %d does not match payload %d", pserrors.ErrCorruptIndex, docCount, idx.N)
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pserrors.ErrCorruptIndex, err)
	}
	return idx, nil
}

// Write atomically publishes the index at path: it encodes to a .tmp file
// in the same directory and renames on success.
func Write(path string, idx *index.Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	if err := Encode(f, idx); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing index file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("publishing index file: %w", err)
	}
	return nil
}

// Load reads and validates the index at path.
func Load(path string) (*index.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file %s: %w", path, err)
	}
	idx, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loading index file %s: %w", path, err)
	}
	return idx, nil
}
