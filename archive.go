package testract

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/ozmorph/testract/internal/ba2"
	"github.com/ozmorph/testract/internal/binread"
	"github.com/ozmorph/testract/internal/bsa"
	"github.com/ozmorph/testract/internal/codec"
)

// Archive magics. Morrowind's magic is a little-endian version constant
// rather than an ASCII tag.
var (
	magicBSA       = []byte{'B', 'S', 'A', 0x00}
	magicMorrowind = []byte{0x00, 0x01, 0x00, 0x00}
	magicBA2       = []byte{'B', 'T', 'D', 'X'}
)

// Archive is a fully parsed BSA or BA2 index. The backing file is not held
// open; extraction reopens it per call, so an Archive is safe for concurrent
// reads.
type Archive struct {
	path    string
	header  Header
	entries map[string]Entry
	logger  *slog.Logger
}

// Extraction pairs an entry's normalized path with its extracted contents.
type Extraction struct {
	Path string
	Data []byte
}

// Open reads and parses all metadata of the archive at path. The layout is
// chosen by the leading magic bytes; unrecognized magics return ErrParse.
func Open(path string, opts ...Option) (*Archive, error) {
	a := &Archive{path: path}
	for _, opt := range opts {
		opt(a)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := binread.New(f)
	magic, err := r.Bytes(4)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	switch {
	case bytes.Equal(magic, magicBSA):
		a.header, a.entries, err = bsa.DecodeOblivion(r)
	case bytes.Equal(magic, magicMorrowind):
		a.header, a.entries, err = bsa.DecodeMorrowind(r)
	case bytes.Equal(magic, magicBA2):
		a.header, a.entries, err = ba2.Decode(r)
	default:
		err = fmt.Errorf("%w: unrecognized magic % x", ErrParse, magic)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	a.log().Debug("archive opened",
		"path", path,
		"variant", a.header.Variant.String(),
		"files", a.header.FileCount,
	)
	return a, nil
}

// Path returns the filesystem path the archive was opened from.
func (a *Archive) Path() string { return a.path }

// Header returns the archive-wide metadata.
func (a *Archive) Header() Header { return a.header }

// Len returns the number of indexed entries.
func (a *Archive) Len() int { return len(a.entries) }

// Entry looks up the entry for a normalized slash-separated path.
func (a *Archive) Entry(name string) (Entry, bool) {
	e, ok := a.entries[name]
	return e, ok
}

// Entries iterates over all entries in unspecified order.
func (a *Archive) Entries() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for name, e := range a.entries {
			if !yield(name, e) {
				return
			}
		}
	}
}

// Extract reads and decodes the named entry's contents. The name must be in
// normalized form: slash-separated, as produced by the index. Texture
// entries return ErrUnsupported.
func (a *Archive) Extract(name string) ([]byte, error) {
	e, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("extract %s: %w", name, ErrNotFound)
	}

	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	defer f.Close()

	data, err := extractEntry(f, e)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	return data, nil
}

// ExtractByExtension extracts every entry whose extension the set matches,
// in sorted path order. A failed entry yields its error and iteration
// continues with the next match. The backing file is opened once, at the
// first match, and shared across the iteration; the sequence is
// single-use and not safe for concurrent iteration.
func (a *Archive) ExtractByExtension(set ExtensionSet) iter.Seq2[Extraction, error] {
	return func(yield func(Extraction, error) bool) {
		var f *os.File
		defer func() {
			if f != nil {
				f.Close()
			}
		}()

		for _, name := range slices.Sorted(maps.Keys(a.entries)) {
			if !set.Match(name) {
				continue
			}
			if f == nil {
				var err error
				f, err = os.Open(a.path)
				if err != nil {
					yield(Extraction{}, fmt.Errorf("extract %s: %w", name, err))
					return
				}
			}

			data, err := extractEntry(f, a.entries[name])
			if err != nil {
				a.log().Warn("entry extraction failed", "path", name, "error", err)
				if !yield(Extraction{Path: name}, fmt.Errorf("extract %s: %w", name, err)) {
					return
				}
				continue
			}
			if !yield(Extraction{Path: name, Data: data}, nil) {
				return
			}
		}
	}
}

// extractEntry reads one entry's stored block from r and decodes it. The
// block may carry a leading embedded file name (Skyrim-era BSAs) and, when
// compressed, a four-byte uncompressed-length field ahead of the codec
// stream. BA2 records store that length in the record instead, so it is
// reattached before decoding.
func extractEntry(r io.ReadSeeker, e Entry) ([]byte, error) {
	if e.Texture != nil {
		return nil, fmt.Errorf("%w: texture entry extraction", ErrUnsupported)
	}

	stored := e.Size
	if e.PackedSize != 0 {
		stored = e.PackedSize
	}
	if _, err := r.Seek(int64(e.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	block := make([]byte, stored)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, fmt.Errorf("%w: wanted %d bytes at offset %d", ErrShortRead, stored, e.Offset)
	}

	if e.NameEmbedded {
		if len(block) == 0 {
			return nil, fmt.Errorf("%w: empty block with embedded name", ErrParse)
		}
		n := int(block[0]) + 1
		if n > len(block) {
			return nil, fmt.Errorf("%w: embedded name overruns the file block", ErrParse)
		}
		block = block[n:]
	}

	switch {
	case e.Compression == CompressionNone && e.PackedSize == 0:
		return block, nil
	case e.PackedSize != 0:
		// BA2 blocks are the bare codec stream.
		framed := make([]byte, 4, 4+len(block))
		binary.LittleEndian.PutUint32(framed, e.Size)
		block = append(framed, block...)
	}
	return codec.Decompress(e.Compression, block)
}

// log returns the configured logger or a discarding fallback.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}
