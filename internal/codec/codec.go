// Package codec decodes the per-entry compressed file blocks found in BSA
// and BA2 archives. Every compressed block begins with a four-byte
// little-endian uncompressed-length field followed by the codec stream; the
// length is a preallocation hint only and never bounds decoding.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"

	"github.com/ozmorph/testract/internal/tesfmt"
)

// maxPrealloc caps the output buffer preallocated from the length hint so a
// corrupt hint cannot force a huge allocation.
const maxPrealloc = 64 << 20

// Decompress decodes a file block: the leading four bytes are the
// little-endian uncompressed length, the remainder is the codec stream.
// CompressionNone returns the remainder unchanged.
func Decompress(c tesfmt.Compression, block []byte) ([]byte, error) {
	if len(block) < 4 {
		return nil, fmt.Errorf("%w: block shorter than its length field", tesfmt.ErrDecompression)
	}
	hint := binary.LittleEndian.Uint32(block[:4])
	data := block[4:]

	switch c {
	case tesfmt.CompressionNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case tesfmt.CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", tesfmt.ErrDecompression, err)
		}
		defer zr.Close()
		return readAll(zr, hint, "zlib")
	case tesfmt.CompressionLZ4:
		return readAll(lz4.NewReader(bytes.NewReader(data)), hint, "lz4")
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", tesfmt.ErrDecompression, c)
	}
}

// readAll drains the decoder into a buffer sized from the length hint.
func readAll(r io.Reader, hint uint32, name string) ([]byte, error) {
	grow := int64(hint)
	if grow > maxPrealloc {
		grow = maxPrealloc
	}
	buf := bytes.NewBuffer(make([]byte, 0, grow))
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", tesfmt.ErrDecompression, name, err)
	}
	return buf.Bytes(), nil
}
