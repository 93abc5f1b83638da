package testract

import "github.com/ozmorph/testract/internal/tesfmt"

// --- Re-exports from the format package ---

// Header holds the archive-wide metadata shared by every layout.
type Header = tesfmt.Header

// Entry locates one file inside an archive.
type Entry = tesfmt.Entry

// Texture holds the chunked layout of a BA2 texture entry.
type Texture = tesfmt.Texture

// TextureChunk locates one mip range of a texture entry.
type TextureChunk = tesfmt.TextureChunk

// Variant identifies which game's layout an archive uses.
type Variant = tesfmt.Variant

// Compression identifies the codec an entry's payload is stored with.
type Compression = tesfmt.Compression

// ArchiveFlag is the archive-wide flag field of Oblivion-family BSAs.
type ArchiveFlag = tesfmt.ArchiveFlag

// FileFlag is the content-kind flag field of Oblivion-family BSAs.
type FileFlag = tesfmt.FileFlag

// Variant constants.
const (
	VariantMorrowind    = tesfmt.VariantMorrowind
	VariantOblivion     = tesfmt.VariantOblivion
	VariantSkyrim       = tesfmt.VariantSkyrim
	VariantSkyrimSE     = tesfmt.VariantSkyrimSE
	VariantFallout4     = tesfmt.VariantFallout4
	VariantFallout4DX10 = tesfmt.VariantFallout4DX10
)

// Compression constants.
const (
	CompressionNone = tesfmt.CompressionNone
	CompressionZlib = tesfmt.CompressionZlib
	CompressionLZ4  = tesfmt.CompressionLZ4
)

// NormalizePath converts a backslash-separated archive path to the
// slash-separated form used as index keys.
var NormalizePath = tesfmt.NormalizePath
