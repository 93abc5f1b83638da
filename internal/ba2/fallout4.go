// Package ba2 decodes Fallout 4 BA2 archives, both the general-file flavor
// and the chunked texture flavor, into the normalized archive model. The
// decoder is strict: a bad version, type tag, or record sentinel aborts the
// parse with no partial result.
package ba2

import (
	"fmt"
	"io"

	"github.com/ozmorph/testract/internal/binread"
	"github.com/ozmorph/testract/internal/tesfmt"
)

// BA2 layout, after the 4-byte "BTDX" magic:
//
//	header          20 B             version, type tag, file count, name table offset
//	file records    36 B (GNRL) or 24 B header + 24 B per chunk (DX10)
//	data            payloads, zlib-compressed when a packed size is set
//	name table      long bstrings, one per file, at the header's offset
const (
	ba2HeaderLen = 20

	typeGeneral = "GNRL"
	typeTexture = "DX10"
)

// recordSentinel terminates every general record and every texture chunk.
const recordSentinel = 0xBAADF00D

type ba2Header struct {
	Version         uint32
	Type            [4]byte
	FileCount       uint32
	NameTableOffset uint64
}

type generalRecord struct {
	NameHash   uint32
	Extension  [4]byte
	DirHash    uint32
	Flags      uint32
	Offset     uint64
	PackedSize uint32
	Size       uint32
	Sentinel   uint32
}

type textureHeader struct {
	NameHash        uint32
	Extension       [4]byte
	DirHash         uint32
	_               uint8
	ChunkCount      uint8
	ChunkHeaderSize uint16
	Height          uint16
	Width           uint16
	MipCount        uint8
	Format          uint8
	_               uint16
}

type chunkRecord struct {
	Offset     uint64
	PackedSize uint32
	Size       uint32
	MipFirst   uint16
	MipLast    uint16
	Sentinel   uint32
}

// Decode parses a BA2 positioned just past its "BTDX" magic. The name table
// sits at the end of the archive, so the cursor jumps there first and comes
// back before walking the record table.
func Decode(r *binread.Reader) (tesfmt.Header, map[string]tesfmt.Entry, error) {
	var hdr ba2Header
	if err := r.ReadInto(&hdr); err != nil {
		return tesfmt.Header{}, nil, fmt.Errorf("ba2 header: %w", err)
	}
	if hdr.Version != 1 {
		return tesfmt.Header{}, nil, fmt.Errorf("%w: unrecognized BA2 version %d", tesfmt.ErrParse, hdr.Version)
	}

	var variant tesfmt.Variant
	switch string(hdr.Type[:]) {
	case typeGeneral:
		variant = tesfmt.VariantFallout4
	case typeTexture:
		variant = tesfmt.VariantFallout4DX10
	default:
		return tesfmt.Header{}, nil, fmt.Errorf("%w: unrecognized BA2 type %q", tesfmt.ErrParse, hdr.Type)
	}
	count := int(hdr.FileCount)

	names, err := readNameTable(r, hdr.NameTableOffset, count)
	if err != nil {
		return tesfmt.Header{}, nil, err
	}

	entries := make(map[string]tesfmt.Entry, count)
	for i := range count {
		var entry tesfmt.Entry
		switch variant {
		case tesfmt.VariantFallout4:
			entry, err = readGeneralRecord(r)
		default:
			entry, err = readTextureRecord(r)
		}
		if err != nil {
			return tesfmt.Header{}, nil, fmt.Errorf("ba2 record %d: %w", i, err)
		}
		entries[tesfmt.NormalizePath(names[i])] = entry
	}

	header := tesfmt.Header{
		Variant:   variant,
		FileCount: count,
	}
	return header, entries, nil
}

// readNameTable jumps to the trailing name table, reads one long bstring per
// file, and restores the cursor to the first record.
func readNameTable(r *binread.Reader, offset uint64, count int) ([]string, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("ba2 name table: %w", err)
	}
	names := make([]string, count)
	for i := range names {
		name, err := r.LongBString()
		if err != nil {
			return nil, fmt.Errorf("ba2 name table entry %d: %w", i, err)
		}
		names[i] = name
	}
	if _, err := r.Seek(ba2HeaderLen+4, io.SeekStart); err != nil {
		return nil, fmt.Errorf("ba2 record table: %w", err)
	}
	return names, nil
}

// readGeneralRecord reads one 36-byte general file record. A zero packed
// size marks the payload as stored uncompressed.
func readGeneralRecord(r *binread.Reader) (tesfmt.Entry, error) {
	var rec generalRecord
	if err := r.ReadInto(&rec); err != nil {
		return tesfmt.Entry{}, err
	}
	if rec.Sentinel != recordSentinel {
		return tesfmt.Entry{}, fmt.Errorf(
			"%w: record sentinel 0x%08x", tesfmt.ErrParse, rec.Sentinel)
	}

	compression := tesfmt.CompressionNone
	if rec.PackedSize != 0 {
		compression = tesfmt.CompressionZlib
	}
	return tesfmt.Entry{
		Offset:      rec.Offset,
		Size:        rec.Size,
		PackedSize:  rec.PackedSize,
		Compression: compression,
	}, nil
}

// readTextureRecord reads one texture file record and its chunk table. The
// chunk layout is indexed but not extractable.
func readTextureRecord(r *binread.Reader) (tesfmt.Entry, error) {
	var hdr textureHeader
	if err := r.ReadInto(&hdr); err != nil {
		return tesfmt.Entry{}, err
	}

	chunks := make([]chunkRecord, hdr.ChunkCount)
	if err := r.ReadInto(chunks); err != nil {
		return tesfmt.Entry{}, err
	}

	texture := &tesfmt.Texture{
		Width:    hdr.Width,
		Height:   hdr.Height,
		MipCount: hdr.MipCount,
		Format:   hdr.Format,
		Chunks:   make([]tesfmt.TextureChunk, 0, len(chunks)),
	}
	var total uint32
	for _, c := range chunks {
		if c.Sentinel != recordSentinel {
			return tesfmt.Entry{}, fmt.Errorf(
				"%w: chunk sentinel 0x%08x", tesfmt.ErrParse, c.Sentinel)
		}
		texture.Chunks = append(texture.Chunks, tesfmt.TextureChunk{
			Offset:     c.Offset,
			PackedSize: c.PackedSize,
			Size:       c.Size,
		})
		total += c.Size
	}

	return tesfmt.Entry{
		Size:    total,
		Texture: texture,
	}, nil
}
