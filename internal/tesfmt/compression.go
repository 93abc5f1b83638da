package tesfmt

// Compression identifies the codec required to decode a file block.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZlib
	CompressionLZ4
)

// String returns the human-readable name of the compression algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}
