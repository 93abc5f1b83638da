package tesfmt

import "strings"

// Entry describes one member file of an archive. Entries hold metadata only;
// file content is read from the backing archive file at extraction time and
// never cached.
type Entry struct {
	// Offset is the absolute byte position of the file block in the
	// archive file.
	Offset uint64

	// Size is the byte count of the file block stored at Offset. For BA2
	// general entries it is the uncompressed size, and PackedSize holds
	// the stored length when the entry is compressed.
	Size uint32

	// PackedSize is the compressed byte count of a BA2 general entry.
	// Zero means the block is stored at Size bytes. Always zero for BSA
	// entries: their compressed blocks embed the uncompressed length in
	// the payload instead.
	PackedSize uint32

	// NameEmbedded reports whether the file block begins with a
	// length-prefixed copy of the file name that must be stripped before
	// the payload is interpreted.
	NameEmbedded bool

	// Compression is the codec required to decode the file block,
	// resolved at parse time from the archive default and the per-entry
	// override bit.
	Compression Compression

	// Texture holds chunked texture metadata for BA2 DX10 entries and is
	// nil for every other entry shape.
	Texture *Texture
}

// Texture is the chunk layout of a BA2 DX10 texture entry.
type Texture struct {
	Width    uint16
	Height   uint16
	MipCount uint8
	Format   uint8 // DXGI pixel format
	Chunks   []TextureChunk
}

// TextureChunk locates one compressed slice of a texture payload.
type TextureChunk struct {
	// Offset is the absolute byte position of the chunk data.
	Offset uint64

	// PackedSize is the stored (compressed) byte count.
	PackedSize uint32

	// Size is the uncompressed byte count.
	Size uint32
}

// NormalizePath converts an on-disk archive name to the normalized key form:
// backslash separators become forward slashes. Archive name tables use
// Windows-style separators regardless of host platform.
func NormalizePath(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}
