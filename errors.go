package testract

import "github.com/ozmorph/testract/internal/tesfmt"

// Errors re-exported from the format package. Match with errors.Is; every
// return site wraps them with the archive path or entry for context.
var (
	// ErrParse is returned when magic bytes, a version tag, a flag field, or
	// a record sentinel does not match any supported on-disk layout.
	ErrParse = tesfmt.ErrParse

	// ErrShortRead is returned when the archive ends before a fixed-size
	// field or declared table.
	ErrShortRead = tesfmt.ErrShortRead

	// ErrNotFound is returned when a requested file path has no entry.
	ErrNotFound = tesfmt.ErrNotFound

	// ErrUnsupported is returned for recognized but unimplemented layouts:
	// BSA archives without a file name block, and extraction of BA2 texture
	// entries.
	ErrUnsupported = tesfmt.ErrUnsupported

	// ErrDecompression is returned when an entry's compressed payload cannot
	// be decoded.
	ErrDecompression = tesfmt.ErrDecompression
)
