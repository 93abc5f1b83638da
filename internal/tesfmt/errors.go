package tesfmt

import "errors"

// Sentinel errors shared across the decoders and the public package.
// Callers match them with errors.Is; call sites wrap them with the offending
// path or field for context.
var (
	// ErrParse is returned when magic bytes, a version tag, a flag field,
	// or a required record sentinel does not match the on-disk layout.
	// Parse errors are archive-fatal: no Archive value is produced.
	ErrParse = errors.New("testract: malformed archive")

	// ErrShortRead is returned when fewer bytes were available than a
	// fixed-size field or declared table required.
	ErrShortRead = errors.New("testract: short read")

	// ErrNotFound is returned when a requested entry key has no record.
	ErrNotFound = errors.New("testract: file not found")

	// ErrUnsupported is returned for recognized but unimplemented on-disk
	// combinations: BSA archives without a file name block, and
	// extraction of BA2 texture entries.
	ErrUnsupported = errors.New("testract: unsupported archive feature")

	// ErrDecompression is returned when a codec cannot decode an entry's
	// compressed payload.
	ErrDecompression = errors.New("testract: decompression failed")
)
