// Package testarchive builds synthetic BSA and BA2 archives in memory for
// decoder and extraction tests. Builders lay out every table the decoders
// read and place payloads exactly where the computed offsets point.
package testarchive

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// File holds one test file's archive path and contents.
type File struct {
	Name string
	Data []byte

	// Invert flips the archive-wide compression default for this file
	// (Oblivion-family only).
	Invert bool

	// Compress stores the payload zlib-compressed (general BA2 only).
	Compress bool
}

// Folder groups test files under one folder name (Oblivion-family only).
type Folder struct {
	Name  string
	Files []File
}

// le appends fixed-width little-endian values to a buffer.
type le struct {
	buf bytes.Buffer
}

func (w *le) u8(v uint8) { w.buf.WriteByte(v) } //nolint:errcheck // Buffer writes cannot fail

func (w *le) u16(v uint16) { binary.Write(&w.buf, binary.LittleEndian, v) } //nolint:errcheck // Buffer writes cannot fail

func (w *le) u32(v uint32) { binary.Write(&w.buf, binary.LittleEndian, v) } //nolint:errcheck // Buffer writes cannot fail

func (w *le) u64(v uint64) { binary.Write(&w.buf, binary.LittleEndian, v) } //nolint:errcheck // Buffer writes cannot fail

func (w *le) raw(b []byte) { w.buf.Write(b) }

func (w *le) str(s string) { w.buf.WriteString(s) }

func (w *le) len() int { return w.buf.Len() }

func (w *le) bytes() []byte { return w.buf.Bytes() }

// bzstring writes a one-byte length (including the terminator) followed by
// the string and a NUL.
func (w *le) bzstring(s string) {
	w.u8(uint8(len(s) + 1))
	w.str(s)
	w.u8(0)
}

// Zlib compresses data as a bare zlib stream.
func Zlib(tb testing.TB, data []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		tb.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

// LZ4 compresses data as an LZ4 frame.
func LZ4(tb testing.TB, data []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	lw := lz4.NewWriter(&buf)
	if _, err := lw.Write(data); err != nil {
		tb.Fatalf("lz4 write: %v", err)
	}
	if err := lw.Close(); err != nil {
		tb.Fatalf("lz4 close: %v", err)
	}
	return buf.Bytes()
}

// Morrowind serializes a Morrowind-era BSA. Payloads are written at the
// offsets the decoder derives from the hash table offset, so the bytes
// between the hash block and the first payload are part of the layout.
func Morrowind(tb testing.TB, files []File) []byte {
	tb.Helper()

	var nameBlock le
	for _, f := range files {
		nameBlock.str(f.Name)
		nameBlock.u8(0)
	}

	n := len(files)
	hashOffset := 12*n + nameBlock.len()
	// The decoder resolves payload offsets against this base.
	dataBase := hashOffset + 8*n + 8

	var w le
	w.raw([]byte{0x00, 0x01, 0x00, 0x00})
	w.u32(uint32(hashOffset))
	w.u32(uint32(n))

	// True data start is 12 (magic and header) + hashOffset + 8*n, which
	// sits 4 bytes past the decoder's base.
	rel := 12 + hashOffset + 8*n - dataBase
	for _, f := range files {
		w.u32(uint32(len(f.Data)))
		w.u32(uint32(rel))
		rel += len(f.Data)
	}
	for range files {
		w.u32(0) // name offset table, skipped
	}
	w.raw(nameBlock.bytes())
	for range files {
		w.u64(0) // hash block, skipped
	}
	for _, f := range files {
		w.raw(f.Data)
	}
	return w.bytes()
}

// OblivionConfig controls the Oblivion-family builder.
type OblivionConfig struct {
	Version      uint32
	ArchiveFlags uint32
	FileFlags    uint16
	Folders      []Folder
}

// Oblivion serializes an Oblivion-family BSA. Per-file blocks honor the
// config: an embedded name prefix when the flags and version call for one,
// and zlib or LZ4 framing with a leading uncompressed-length field when the
// effective compression state is on.
func Oblivion(tb testing.TB, cfg OblivionConfig) []byte {
	tb.Helper()

	const (
		flagIncludeFileNames = 1 << 1
		flagCompressed       = 1 << 2
		flagEmbedNames       = 1 << 8
	)

	fileCount := 0
	folderNameLen := 0
	fileNameLen := 0
	folderBlockLen := 0
	for _, folder := range cfg.Folders {
		fileCount += len(folder.Files)
		folderNameLen += len(folder.Name) + 1
		folderBlockLen += 2 + len(folder.Name) + 16*len(folder.Files)
		for _, f := range folder.Files {
			fileNameLen += len(f.Name) + 1
		}
	}

	folderRecordLen := 16
	if cfg.Version == 0x69 {
		folderRecordLen = 24
	}
	embed := cfg.ArchiveFlags&flagEmbedNames != 0 && cfg.Version != 0x67

	// Build every payload block first so record offsets are known.
	blocks := make([][]byte, 0, fileCount)
	sizes := make([]uint32, 0, fileCount)
	for _, folder := range cfg.Folders {
		for _, f := range folder.Files {
			compressed := cfg.ArchiveFlags&flagCompressed != 0
			if f.Invert {
				compressed = !compressed
			}

			var block le
			if embed {
				full := folder.Name + "\\" + f.Name
				block.u8(uint8(len(full)))
				block.str(full)
			}
			if compressed {
				block.u32(uint32(len(f.Data)))
				if cfg.Version == 0x69 {
					block.raw(LZ4(tb, f.Data))
				} else {
					block.raw(Zlib(tb, f.Data))
				}
			} else {
				block.raw(f.Data)
			}

			size := uint32(block.len())
			if f.Invert {
				size |= 1 << 30
			}
			blocks = append(blocks, block.bytes())
			sizes = append(sizes, size)
		}
	}

	dataStart := 4 + 32 + folderRecordLen*len(cfg.Folders) + folderBlockLen + fileNameLen

	var w le
	w.str("BSA\x00")
	w.u32(cfg.Version)
	w.u32(36) // folder records offset
	w.u32(cfg.ArchiveFlags)
	w.u32(uint32(len(cfg.Folders)))
	w.u32(uint32(fileCount))
	w.u32(uint32(folderNameLen))
	w.u32(uint32(fileNameLen))
	w.u16(cfg.FileFlags)
	w.u16(0)

	for _, folder := range cfg.Folders {
		w.u64(0) // name hash, unused
		w.u32(uint32(len(folder.Files)))
		if cfg.Version == 0x69 {
			w.u32(0)
			w.u32(0) // offset, unused
			w.u32(0)
		} else {
			w.u32(0) // offset, unused
		}
	}

	offset := dataStart
	i := 0
	for _, folder := range cfg.Folders {
		w.bzstring(folder.Name)
		for range folder.Files {
			w.u64(0) // name hash, unused
			w.u32(sizes[i])
			w.u32(uint32(offset))
			offset += len(blocks[i])
			i++
		}
	}

	if cfg.ArchiveFlags&flagIncludeFileNames != 0 {
		for _, folder := range cfg.Folders {
			for _, f := range folder.Files {
				w.str(f.Name)
				w.u8(0)
			}
		}
	}
	for _, block := range blocks {
		w.raw(block)
	}
	return w.bytes()
}

// GeneralBA2 serializes a general-file BA2. Compressed payloads are stored
// as bare zlib streams with the record carrying both sizes.
func GeneralBA2(tb testing.TB, files []File) []byte {
	tb.Helper()

	blocks := make([][]byte, len(files))
	for i, f := range files {
		if f.Compress {
			blocks[i] = Zlib(tb, f.Data)
		} else {
			blocks[i] = f.Data
		}
	}

	dataStart := 24 + 36*len(files)
	nameTableOffset := dataStart
	for _, b := range blocks {
		nameTableOffset += len(b)
	}

	var w le
	w.str("BTDX")
	w.u32(1)
	w.str("GNRL")
	w.u32(uint32(len(files)))
	w.u64(uint64(nameTableOffset))

	offset := dataStart
	for i, f := range files {
		w.u32(0) // name hash, unused
		w.raw(extensionTag(f.Name))
		w.u32(0) // dir hash, unused
		w.u32(0) // flags, unused
		w.u64(uint64(offset))
		if f.Compress {
			w.u32(uint32(len(blocks[i])))
		} else {
			w.u32(0)
		}
		w.u32(uint32(len(f.Data)))
		w.u32(0xBAADF00D)
		offset += len(blocks[i])
	}

	for _, b := range blocks {
		w.raw(b)
	}
	for _, f := range files {
		w.u16(uint16(len(f.Name)))
		w.str(f.Name)
	}
	return w.bytes()
}

// TextureFile describes one texture entry for the DX10 builder.
type TextureFile struct {
	Name   string
	Width  uint16
	Height uint16
	Mips   uint8
	Format uint8
	Chunks []uint32 // uncompressed size per chunk
}

// TextureBA2 serializes a texture BA2 with empty chunk payloads. Texture
// entries are indexed but never extracted, so only the metadata matters.
func TextureBA2(tb testing.TB, files []TextureFile) []byte {
	tb.Helper()

	recordsLen := 0
	for _, f := range files {
		recordsLen += 24 + 24*len(f.Chunks)
	}
	nameTableOffset := 24 + recordsLen

	var w le
	w.str("BTDX")
	w.u32(1)
	w.str("DX10")
	w.u32(uint32(len(files)))
	w.u64(uint64(nameTableOffset))

	for _, f := range files {
		w.u32(0) // name hash, unused
		w.raw(extensionTag(f.Name))
		w.u32(0) // dir hash, unused
		w.u8(0)
		w.u8(uint8(len(f.Chunks)))
		w.u16(24)
		w.u16(f.Height)
		w.u16(f.Width)
		w.u8(f.Mips)
		w.u8(f.Format)
		w.u16(0)
		for i, size := range f.Chunks {
			w.u64(0) // chunk payload offset, unused by the decoder
			w.u32(0) // packed size
			w.u32(size)
			w.u16(uint16(i))
			w.u16(uint16(i))
			w.u32(0xBAADF00D)
		}
	}

	for _, f := range files {
		w.u16(uint16(len(f.Name)))
		w.str(f.Name)
	}
	return w.bytes()
}

// extensionTag packs a file extension into the fixed 4-byte record field.
func extensionTag(name string) []byte {
	tag := make([]byte, 4)
	if i := bytes.LastIndexByte([]byte(name), '.'); i >= 0 {
		copy(tag, name[i+1:])
	}
	return tag
}
