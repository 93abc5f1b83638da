package bsa

import (
	"fmt"
	"path"

	"github.com/ozmorph/testract/internal/binread"
	"github.com/ozmorph/testract/internal/tesfmt"
)

// Oblivion-family layout, after the 4-byte magic:
//
//	header             32 B
//	folder records     16 B each (24 B for Skyrim SE)
//	folder blocks      bzstring folder name + 16 B file records per folder
//	file name block    NUL-terminated names, gated by FlagIncludeFileNames
//	data               payloads, optionally compressed per entry
const (
	oblivionHeaderLen       = 32
	oblivionFileRecordLen   = 16
	oblivionFolderRecordLen = 16
	sseFolderRecordLen      = 24
)

// Version tags accepted in the header.
const (
	versionOblivion = 0x67
	versionSkyrim   = 0x68
	versionSkyrimSE = 0x69
)

// Bit 30 of a file record's size field inverts the archive-wide compression
// default for that entry; the remaining bits hold the stored size.
const (
	compressionInvertBit = 1 << 30
	fileSizeMask         = compressionInvertBit - 1
)

type oblivionHeader struct {
	Version               uint32
	FolderRecordsOffset   uint32
	ArchiveFlags          uint32
	FolderCount           uint32
	FileCount             uint32
	TotalFolderNameLength uint32
	TotalFileNameLength   uint32
	FileFlags             uint16
	_                     uint16
}

type oblivionFolderRecord struct {
	NameHash  uint64
	FileCount uint32
	Offset    uint32
}

// Skyrim SE widens the folder record to 24 bytes with padding around the
// offset field; only the file count is consumed.
type sseFolderRecord struct {
	NameHash  uint64
	FileCount uint32
	_         uint32
	Offset    uint32
	_         uint32
}

type oblivionFileRecord struct {
	NameHash uint64
	Size     uint32
	Offset   uint32
}

// folderBlock pairs a folder name with the file records it owns, in the
// exact order they appear on disk.
type folderBlock struct {
	name    string
	records []oblivionFileRecord
}

// DecodeOblivion parses an Oblivion-family BSA positioned just past its
// "BSA\x00" magic. File names are re-paired with records positionally: the
// flat name list is consumed in the order produced by walking folders in
// record order and each folder's files contiguously.
func DecodeOblivion(r *binread.Reader) (tesfmt.Header, map[string]tesfmt.Entry, error) {
	var raw oblivionHeader
	if err := r.ReadInto(&raw); err != nil {
		return tesfmt.Header{}, nil, fmt.Errorf("bsa header: %w", err)
	}

	var variant tesfmt.Variant
	switch raw.Version {
	case versionOblivion:
		variant = tesfmt.VariantOblivion
	case versionSkyrim:
		variant = tesfmt.VariantSkyrim
	case versionSkyrimSE:
		variant = tesfmt.VariantSkyrimSE
	default:
		return tesfmt.Header{}, nil, fmt.Errorf("%w: unrecognized BSA version 0x%x", tesfmt.ErrParse, raw.Version)
	}

	archiveFlags := tesfmt.ArchiveFlag(raw.ArchiveFlags)
	if !archiveFlags.Valid() {
		return tesfmt.Header{}, nil, fmt.Errorf("%w: unknown archive flag bits 0x%x", tesfmt.ErrParse, raw.ArchiveFlags)
	}
	fileFlags := tesfmt.FileFlag(raw.FileFlags)
	if !fileFlags.Valid() {
		return tesfmt.Header{}, nil, fmt.Errorf("%w: unknown file flag bits 0x%x", tesfmt.ErrParse, raw.FileFlags)
	}

	folders, err := readFolderBlocks(r, variant, int(raw.FolderCount))
	if err != nil {
		return tesfmt.Header{}, nil, err
	}

	total := 0
	for _, f := range folders {
		total += len(f.records)
	}
	if total != int(raw.FileCount) {
		return tesfmt.Header{}, nil, fmt.Errorf(
			"%w: folder records hold %d files, header declares %d",
			tesfmt.ErrParse, total, raw.FileCount)
	}

	if !archiveFlags.Has(tesfmt.FlagIncludeFileNames) {
		return tesfmt.Header{}, nil, fmt.Errorf(
			"%w: BSA archives without a file name block", tesfmt.ErrUnsupported)
	}
	names, err := r.StringBlock(int(raw.TotalFileNameLength))
	if err != nil {
		return tesfmt.Header{}, nil, fmt.Errorf("bsa file name block: %w", err)
	}
	if len(names) != total {
		return tesfmt.Header{}, nil, fmt.Errorf(
			"%w: name block holds %d names for %d file records",
			tesfmt.ErrParse, len(names), total)
	}

	header := tesfmt.Header{
		Variant:      variant,
		ArchiveFlags: archiveFlags,
		FileFlags:    fileFlags,
		FileCount:    int(raw.FileCount),
	}
	return header, buildIndex(header, folders, names), nil
}

// readFolderBlocks reads the folder metadata table, then each folder's name
// and file records. Folders must be traversed in table order and each
// folder's records contiguously, or later name pairing silently shifts.
func readFolderBlocks(r *binread.Reader, variant tesfmt.Variant, folderCount int) ([]folderBlock, error) {
	counts := make([]int, folderCount)
	if variant == tesfmt.VariantSkyrimSE {
		metadata := make([]sseFolderRecord, folderCount)
		if err := r.ReadInto(metadata); err != nil {
			return nil, fmt.Errorf("bsa folder records: %w", err)
		}
		for i, m := range metadata {
			counts[i] = int(m.FileCount)
		}
	} else {
		metadata := make([]oblivionFolderRecord, folderCount)
		if err := r.ReadInto(metadata); err != nil {
			return nil, fmt.Errorf("bsa folder records: %w", err)
		}
		for i, m := range metadata {
			counts[i] = int(m.FileCount)
		}
	}

	folders := make([]folderBlock, 0, folderCount)
	for i, count := range counts {
		name, err := r.BZString()
		if err != nil {
			return nil, fmt.Errorf("bsa folder %d name: %w", i, err)
		}
		records := make([]oblivionFileRecord, count)
		if err := r.ReadInto(records); err != nil {
			return nil, fmt.Errorf("bsa folder %q file records: %w", name, err)
		}
		folders = append(folders, folderBlock{name: name, records: records})
	}
	return folders, nil
}

// buildIndex zips the flat name list with (folder, record) pairs in
// traversal order and resolves each entry's effective compression state.
func buildIndex(header tesfmt.Header, folders []folderBlock, names []string) map[string]tesfmt.Entry {
	compressedDefault := header.ArchiveFlags.Has(tesfmt.FlagCompressedArchive)

	var codec tesfmt.Compression
	switch header.Variant {
	case tesfmt.VariantSkyrimSE:
		codec = tesfmt.CompressionLZ4
	default:
		codec = tesfmt.CompressionZlib
	}

	// Embedded names are documented for every version that sets the flag,
	// but official Oblivion archives set it without embedding names, so
	// version 0x67 always resolves to false.
	nameEmbedded := header.ArchiveFlags.Has(tesfmt.FlagEmbedFileNames) &&
		header.Variant != tesfmt.VariantOblivion

	entries := make(map[string]tesfmt.Entry, len(names))
	next := 0
	for _, folder := range folders {
		for _, rec := range folder.records {
			compressed := compressedDefault
			if rec.Size&compressionInvertBit != 0 {
				compressed = !compressed
			}
			compression := tesfmt.CompressionNone
			if compressed {
				compression = codec
			}

			key := path.Join(tesfmt.NormalizePath(folder.name), tesfmt.NormalizePath(names[next]))
			entries[key] = tesfmt.Entry{
				Offset:       uint64(rec.Offset),
				Size:         rec.Size & fileSizeMask,
				NameEmbedded: nameEmbedded,
				Compression:  compression,
			}
			next++
		}
	}
	return entries
}
