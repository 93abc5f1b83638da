package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozmorph/testract/internal/tesfmt"
	"github.com/ozmorph/testract/internal/testarchive"
)

// frame prepends the little-endian uncompressed length to a codec stream.
func frame(size int, stream []byte) []byte {
	block := make([]byte, 4, 4+len(stream))
	binary.LittleEndian.PutUint32(block, uint32(size))
	return append(block, stream...)
}

func TestDecompressZlib(t *testing.T) {
	t.Parallel()

	payload := []byte("zlib compressed archive payload")
	block := frame(len(payload), testarchive.Zlib(t, payload))

	got, err := Decompress(tesfmt.CompressionZlib, block)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecompressLZ4(t *testing.T) {
	t.Parallel()

	payload := []byte("lz4 compressed archive payload")
	block := frame(len(payload), testarchive.LZ4(t, payload))

	got, err := Decompress(tesfmt.CompressionLZ4, block)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecompressNoneStripsLengthField(t *testing.T) {
	t.Parallel()

	got, err := Decompress(tesfmt.CompressionNone, frame(3, []byte("raw")))
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), got)
}

func TestDecompressErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		c     tesfmt.Compression
		block []byte
	}{
		{
			name:  "block shorter than length field",
			c:     tesfmt.CompressionZlib,
			block: []byte{0x01, 0x02},
		},
		{
			name:  "corrupt zlib stream",
			c:     tesfmt.CompressionZlib,
			block: frame(16, []byte("not a zlib stream")),
		},
		{
			name:  "corrupt lz4 frame",
			c:     tesfmt.CompressionLZ4,
			block: frame(16, []byte("not an lz4 frame")),
		},
		{
			name:  "unknown codec",
			c:     tesfmt.Compression(99),
			block: frame(0, nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decompress(tt.c, tt.block)
			require.ErrorIs(t, err, tesfmt.ErrDecompression)
		})
	}
}

func TestDecompressOversizedHint(t *testing.T) {
	t.Parallel()

	// A corrupt hint must not drive the preallocation.
	payload := []byte("small payload")
	block := frame(1<<31-1, testarchive.Zlib(t, payload))

	got, err := Decompress(tesfmt.CompressionZlib, block)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecompressTruncatedZlibStream(t *testing.T) {
	t.Parallel()

	stream := testarchive.Zlib(t, []byte("payload that gets cut off midway"))
	block := frame(32, stream[:len(stream)/2])

	_, err := Decompress(tesfmt.CompressionZlib, block)
	require.ErrorIs(t, err, tesfmt.ErrDecompression)
}
