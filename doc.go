// Package testract reads Bethesda game archives: BSA files from Morrowind,
// Oblivion, Skyrim, and Skyrim Special Edition, and BA2 files from Fallout 4.
//
// [Open] parses an archive's full metadata up front and returns an [Archive]
// whose index maps normalized slash-separated paths to entries. File data is
// read lazily: [Archive.Extract] opens the archive file, seeks to the entry,
// and decompresses with the codec the archive variant dictates (zlib for
// Oblivion and Skyrim, LZ4 for Skyrim SE, zlib for BA2).
//
// # Quick Start
//
// Open an archive and extract one file:
//
//	archive, err := testract.Open("Skyrim - Meshes.bsa")
//	if err != nil {
//	    return err
//	}
//	data, err := archive.Extract("meshes/actors/bear/bear.nif")
//
// Bulk extraction filters by extension and streams results:
//
//	for ex, err := range archive.ExtractByExtension(testract.Extensions("nif", "dds")) {
//	    if err != nil {
//	        return err
//	    }
//	    write(ex.Path, ex.Data)
//	}
//
// Texture (DX10) BA2 archives can be opened and inspected, but extracting
// their chunked entries returns [ErrUnsupported].
package testract
