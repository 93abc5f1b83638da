// Package binread provides a little-endian cursor over a seekable byte
// source, with the string encodings used by Bethesda archive formats:
// length-prefixed (bstring), length-prefixed and NUL-terminated (bzstring),
// NUL-delimited (zstring), and packed NUL-separated name blocks.
//
// Strings are ISO-8859-1 encoded on disk; decoding maps each byte to its
// equivalent code point and cannot fail.
package binread

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/ozmorph/testract/internal/tesfmt"
)

// Reader is a sequential cursor over a random-access byte source. It is not
// safe for concurrent use; extraction paths open one Reader per cursor.
type Reader struct {
	r io.ReadSeeker
}

// New wraps a seekable byte source.
func New(r io.ReadSeeker) *Reader {
	return &Reader{r: r}
}

// Bytes reads exactly n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, shortRead(n, err)
	}
	return buf, nil
}

// ReadInto decodes little-endian fixed-layout data into v, which must be a
// fixed-size value supported by encoding/binary (typically a pointer to a
// struct of fixed-width fields, or a slice of such structs).
func (r *Reader) ReadInto(v any) error {
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		return shortRead(binary.Size(v), err)
	}
	return nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	buf, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Uint16 reads a little-endian 16-bit integer.
func (r *Reader) Uint16() (uint16, error) {
	buf, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// Uint32 reads a little-endian 32-bit integer.
func (r *Reader) Uint32() (uint32, error) {
	buf, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// Uint64 reads a little-endian 64-bit integer.
func (r *Reader) Uint64() (uint64, error) {
	buf, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// BString reads a string prefixed with a one-byte length. Not NUL-terminated.
func (r *Reader) BString() (string, error) {
	n, err := r.Uint8()
	if err != nil {
		return "", err
	}
	buf, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return DecodeLatin1(buf), nil
}

// LongBString reads a string prefixed with a two-byte length. Not
// NUL-terminated.
func (r *Reader) LongBString() (string, error) {
	n, err := r.Uint16()
	if err != nil {
		return "", err
	}
	buf, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return DecodeLatin1(buf), nil
}

// BZString reads a string prefixed with a one-byte length whose final byte
// must be a NUL terminator. The terminator is stripped.
func (r *Reader) BZString() (string, error) {
	n, err := r.Uint8()
	if err != nil {
		return "", err
	}
	buf, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	if n == 0 || buf[n-1] != 0 {
		return "", fmt.Errorf("%w: bzstring is missing its NUL terminator", tesfmt.ErrParse)
	}
	return DecodeLatin1(buf[:n-1]), nil
}

// ZString reads bytes until a NUL terminator, which is consumed and stripped.
func (r *Reader) ZString() (string, error) {
	var buf []byte
	one := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r.r, one); err != nil {
			return "", shortRead(len(buf)+1, err)
		}
		if one[0] == 0 {
			return DecodeLatin1(buf), nil
		}
		buf = append(buf, one[0])
	}
}

// StringBlock reads total raw bytes and splits them on NUL terminators into
// an ordered list of strings. A trailing terminator does not produce an empty
// final element. The order is preserved for positional pairing with
// independently-read record tables.
func (r *Reader) StringBlock(total int) ([]string, error) {
	buf, err := r.Bytes(total)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(DecodeLatin1(buf), "\x00")
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts, nil
}

// Seek repositions the cursor.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	return r.r.Seek(offset, whence)
}

// DecodeLatin1 converts ISO-8859-1 bytes to a string. Each byte maps 1:1 to
// a code point, so decoding cannot fail.
func DecodeLatin1(buf []byte) string {
	var b strings.Builder
	b.Grow(len(buf))
	for _, c := range buf {
		b.WriteRune(charmap.ISO8859_1.DecodeByte(c))
	}
	return b.String()
}

// shortRead maps EOF-style errors from a fixed-size read to ErrShortRead.
func shortRead(wanted int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: wanted %d bytes", tesfmt.ErrShortRead, wanted)
	}
	return err
}
