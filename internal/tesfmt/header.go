// Package tesfmt defines the normalized data model shared by the per-variant
// archive decoders and the public testract package.
package tesfmt

// Variant identifies the on-disk archive layout family.
type Variant uint8

const (
	// VariantMorrowind is the oldest BSA layout (magic "\x00\x01\x00\x00").
	VariantMorrowind Variant = iota

	// VariantOblivion is the BSA layout with version tag 0x67.
	VariantOblivion

	// VariantSkyrim is the BSA layout with version tag 0x68, shared by
	// Fallout 3, Fallout New Vegas, and Skyrim.
	VariantSkyrim

	// VariantSkyrimSE is the Skyrim Special Edition BSA layout (version
	// tag 0x69). It widens folder records to 24 bytes and replaces zlib
	// with LZ4 frame compression.
	VariantSkyrimSE

	// VariantFallout4 is the BA2 layout holding general-purpose payloads
	// (type tag "GNRL").
	VariantFallout4

	// VariantFallout4DX10 is the BA2 layout holding chunked texture
	// payloads (type tag "DX10"). Extraction is not supported.
	VariantFallout4DX10
)

// String returns the human-readable name of the layout family.
func (v Variant) String() string {
	switch v {
	case VariantMorrowind:
		return "morrowind"
	case VariantOblivion:
		return "oblivion"
	case VariantSkyrim:
		return "skyrim"
	case VariantSkyrimSE:
		return "skyrimse"
	case VariantFallout4:
		return "fallout4"
	case VariantFallout4DX10:
		return "fallout4-dx10"
	default:
		return "unknown"
	}
}

// ArchiveFlag is the BSA archive-wide flag bitfield. Morrowind and BA2
// archives carry no flags; their headers normalize to zero.
type ArchiveFlag uint32

const (
	FlagIncludeDirNames ArchiveFlag = 1 << iota
	FlagIncludeFileNames
	// FlagCompressedArchive marks files as compressed by default; each
	// file record may invert the default for itself.
	FlagCompressedArchive
	FlagRetainDirNames
	FlagRetainFileNames
	FlagRetainFileNameOffsets
	FlagXbox360
	FlagRetainStartupStrings
	// FlagEmbedFileNames marks file blocks as beginning with a
	// length-prefixed copy of the file name.
	FlagEmbedFileNames
	FlagXMemCodec
	// FlagUnknownOblivion appears in official Oblivion archives; its
	// meaning is undocumented but it is accepted as a known bit.
	FlagUnknownOblivion
)

// archiveFlagMask covers every known archive flag bit. Any other bit in the
// header is a structural error.
const archiveFlagMask = FlagIncludeDirNames | FlagIncludeFileNames |
	FlagCompressedArchive | FlagRetainDirNames | FlagRetainFileNames |
	FlagRetainFileNameOffsets | FlagXbox360 | FlagRetainStartupStrings |
	FlagEmbedFileNames | FlagXMemCodec | FlagUnknownOblivion

// Valid reports whether the bitfield contains only known flag bits.
func (f ArchiveFlag) Valid() bool {
	return f&^archiveFlagMask == 0
}

// Has reports whether every bit of mask is set.
func (f ArchiveFlag) Has(mask ArchiveFlag) bool {
	return f&mask == mask
}

// FileFlag is the BSA content-category flag bitfield.
type FileFlag uint16

const (
	FileFlagMeshes FileFlag = 1 << iota
	FileFlagTextures
	FileFlagMenus
	FileFlagSounds
	FileFlagVoices
	FileFlagShaders
	FileFlagTrees
	FileFlagFonts
	FileFlagMisc
)

const fileFlagMask = FileFlagMeshes | FileFlagTextures | FileFlagMenus |
	FileFlagSounds | FileFlagVoices | FileFlagShaders | FileFlagTrees |
	FileFlagFonts | FileFlagMisc

// Valid reports whether the bitfield contains only known flag bits.
func (f FileFlag) Valid() bool {
	return f&^fileFlagMask == 0
}

// Header is the normalized archive header shared by every layout family.
type Header struct {
	// Variant is the on-disk layout family the archive was decoded from.
	Variant Variant

	// ArchiveFlags is the archive-wide flag bitfield (BSA only).
	ArchiveFlags ArchiveFlag

	// FileFlags is the content-category bitfield (BSA only).
	FileFlags FileFlag

	// FileCount is the number of files the header declares.
	FileCount int
}
