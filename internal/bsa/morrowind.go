// Package bsa decodes the two BSA layout families into the normalized
// archive model: the Morrowind-era layout and the Oblivion/Skyrim/Skyrim SE
// layout. Both decoders are strict: any magic, version, flag, or table
// mismatch aborts the parse with no partial result.
package bsa

import (
	"fmt"
	"io"

	"github.com/ozmorph/testract/internal/binread"
	"github.com/ozmorph/testract/internal/tesfmt"
)

// Morrowind-era layout, after the 4-byte magic:
//
//	header        8 B                hash table offset + file count
//	file records  8 B per file       size + offset into the data section
//	name offsets  4 B per file       unused, skipped
//	name block    hashOffset - 12*n  NUL-terminated names
//	hash block    8 B per file       unused
//	data          rest               raw uncompressed payloads
const (
	morrowindHeaderLen = 8
	morrowindRecordLen = 8
)

type morrowindHeader struct {
	HashOffset uint32
	FileCount  uint32
}

type morrowindRecord struct {
	Size   uint32
	Offset uint32
}

// DecodeMorrowind parses a Morrowind-era BSA positioned just past its magic
// bytes. Entries are never compressed and never carry embedded names.
func DecodeMorrowind(r *binread.Reader) (tesfmt.Header, map[string]tesfmt.Entry, error) {
	var hdr morrowindHeader
	if err := r.ReadInto(&hdr); err != nil {
		return tesfmt.Header{}, nil, fmt.Errorf("morrowind header: %w", err)
	}
	count := int(hdr.FileCount)

	records := make([]morrowindRecord, count)
	if err := r.ReadInto(records); err != nil {
		return tesfmt.Header{}, nil, fmt.Errorf("morrowind file records: %w", err)
	}

	// The name-offset table duplicates what the name block provides.
	if _, err := r.Seek(int64(4*count), io.SeekCurrent); err != nil {
		return tesfmt.Header{}, nil, fmt.Errorf("morrowind name offsets: %w", err)
	}

	if int(hdr.HashOffset) < 12*count {
		return tesfmt.Header{}, nil, fmt.Errorf(
			"%w: hash table offset %d overlaps the %d file records",
			tesfmt.ErrParse, hdr.HashOffset, count)
	}
	names, err := r.StringBlock(int(hdr.HashOffset) - 12*count)
	if err != nil {
		return tesfmt.Header{}, nil, fmt.Errorf("morrowind name block: %w", err)
	}
	if len(names) != count {
		return tesfmt.Header{}, nil, fmt.Errorf(
			"%w: name block holds %d names for %d file records",
			tesfmt.ErrParse, len(names), count)
	}

	// Record offsets are relative to the data section, which starts after
	// the hash block.
	dataBase := uint64(hdr.HashOffset) + uint64(morrowindRecordLen*count) + morrowindHeaderLen

	entries := make(map[string]tesfmt.Entry, count)
	for i, rec := range records {
		entries[tesfmt.NormalizePath(names[i])] = tesfmt.Entry{
			Offset:      dataBase + uint64(rec.Offset),
			Size:        rec.Size,
			Compression: tesfmt.CompressionNone,
		}
	}

	header := tesfmt.Header{
		Variant:   tesfmt.VariantMorrowind,
		FileCount: count,
	}
	return header, entries, nil
}
