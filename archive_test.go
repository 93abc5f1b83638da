package testract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozmorph/testract/internal/testarchive"
)

// writeArchive stores raw archive bytes under a temp dir and returns the path.
func writeArchive(t *testing.T, name string, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestOpenDispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  func(t *testing.T) []byte
		want Variant
	}{
		{
			name: "morrowind",
			raw: func(t *testing.T) []byte {
				return testarchive.Morrowind(t, []testarchive.File{
					{Name: `meshes\door.nif`, Data: []byte("door")},
				})
			},
			want: VariantMorrowind,
		},
		{
			name: "oblivion family",
			raw: func(t *testing.T) []byte {
				return testarchive.Oblivion(t, testarchive.OblivionConfig{
					Version:      0x68,
					ArchiveFlags: 1<<0 | 1<<1,
					Folders: []testarchive.Folder{
						{Name: "meshes", Files: []testarchive.File{
							{Name: "door.nif", Data: []byte("door")},
						}},
					},
				})
			},
			want: VariantSkyrim,
		},
		{
			name: "ba2 general",
			raw: func(t *testing.T) []byte {
				return testarchive.GeneralBA2(t, []testarchive.File{
					{Name: `meshes\door.nif`, Data: []byte("door")},
				})
			},
			want: VariantFallout4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, err := Open(writeArchive(t, "test.archive", tt.raw(t)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Header().Variant)
			assert.Equal(t, 1, a.Len())
			assert.Contains(t, a.Path(), "test.archive")
		})
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "nope.bsa"))
		require.Error(t, err)
	})

	t.Run("unrecognized magic", func(t *testing.T) {
		t.Parallel()

		_, err := Open(writeArchive(t, "bad.bsa", []byte("JUNKJUNKJUNK")))
		require.ErrorIs(t, err, ErrParse)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		_, err := Open(writeArchive(t, "empty.bsa", nil))
		require.ErrorIs(t, err, ErrShortRead)
	})
}

func TestExtractMorrowind(t *testing.T) {
	t.Parallel()

	payload := []byte("raw morrowind payload")
	a, err := Open(writeArchive(t, "mw.bsa", testarchive.Morrowind(t, []testarchive.File{
		{Name: `meshes\door.nif`, Data: payload},
	})))
	require.NoError(t, err)

	got, err := a.Extract("meshes/door.nif")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestExtractOblivionFamily(t *testing.T) {
	t.Parallel()

	payload := []byte("mesh payload with enough bytes to survive compression")

	tests := []struct {
		name         string
		version      uint32
		archiveFlags uint32
		invert       bool
	}{
		{name: "uncompressed", version: 0x68, archiveFlags: 1 << 1},
		{name: "zlib", version: 0x68, archiveFlags: 1<<1 | 1<<2},
		{name: "lz4", version: 0x69, archiveFlags: 1<<1 | 1<<2},
		{name: "per file inversion", version: 0x68, archiveFlags: 1 << 1, invert: true},
		{name: "embedded names", version: 0x68, archiveFlags: 1<<1 | 1<<2 | 1<<8},
		{name: "embedded names uncompressed", version: 0x69, archiveFlags: 1<<1 | 1<<8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := testarchive.Oblivion(t, testarchive.OblivionConfig{
				Version:      tt.version,
				ArchiveFlags: tt.archiveFlags,
				Folders: []testarchive.Folder{
					{Name: `meshes\dungeon`, Files: []testarchive.File{
						{Name: "gate.nif", Data: payload, Invert: tt.invert},
					}},
				},
			})
			a, err := Open(writeArchive(t, "test.bsa", raw))
			require.NoError(t, err)

			got, err := a.Extract("meshes/dungeon/gate.nif")
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestExtractBA2(t *testing.T) {
	t.Parallel()

	payload := []byte("general ba2 payload with enough bytes to compress")

	for _, compress := range []bool{false, true} {
		name := "uncompressed"
		if compress {
			name = "zlib"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			raw := testarchive.GeneralBA2(t, []testarchive.File{
				{Name: `scripts\quest.pex`, Data: payload, Compress: compress},
			})
			a, err := Open(writeArchive(t, "test.ba2", raw))
			require.NoError(t, err)

			got, err := a.Extract("scripts/quest.pex")
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		a, err := Open(writeArchive(t, "mw.bsa", testarchive.Morrowind(t, []testarchive.File{
			{Name: `a.nif`, Data: []byte("a")},
		})))
		require.NoError(t, err)

		_, err = a.Extract("missing.nif")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("texture entry", func(t *testing.T) {
		t.Parallel()

		raw := testarchive.TextureBA2(t, []testarchive.TextureFile{
			{Name: `textures\brick.dds`, Width: 16, Height: 16, Mips: 1, Chunks: []uint32{256}},
		})
		a, err := Open(writeArchive(t, "tex.ba2", raw))
		require.NoError(t, err)

		_, err = a.Extract("textures/brick.dds")
		require.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("truncated data", func(t *testing.T) {
		t.Parallel()

		raw := testarchive.Morrowind(t, []testarchive.File{
			{Name: `a.nif`, Data: []byte("payload")},
		})
		a, err := Open(writeArchive(t, "cut.bsa", raw[:len(raw)-3]))
		require.NoError(t, err)

		_, err = a.Extract("a.nif")
		require.ErrorIs(t, err, ErrShortRead)
	})
}

func TestEntriesIteration(t *testing.T) {
	t.Parallel()

	a, err := Open(writeArchive(t, "mw.bsa", testarchive.Morrowind(t, []testarchive.File{
		{Name: `a.nif`, Data: []byte("a")},
		{Name: `b.dds`, Data: []byte("b")},
		{Name: `c.wav`, Data: []byte("c")},
	})))
	require.NoError(t, err)

	seen := map[string]Entry{}
	for name, e := range a.Entries() {
		seen[name] = e
	}
	assert.Len(t, seen, 3)

	e, ok := a.Entry("b.dds")
	require.True(t, ok)
	assert.Equal(t, uint32(1), e.Size)

	_, ok = a.Entry("d.nif")
	assert.False(t, ok)
}

func TestExtractByExtension(t *testing.T) {
	t.Parallel()

	raw := testarchive.Morrowind(t, []testarchive.File{
		{Name: `meshes\b.nif`, Data: []byte("bn")},
		{Name: `meshes\a.nif`, Data: []byte("an")},
		{Name: `textures\a.dds`, Data: []byte("ad")},
		{Name: `sounds\a.wav`, Data: []byte("aw")},
	})
	a, err := Open(writeArchive(t, "mw.bsa", raw))
	require.NoError(t, err)

	t.Run("filters and sorts", func(t *testing.T) {
		t.Parallel()

		var got []Extraction
		for ex, err := range a.ExtractByExtension(Extensions("nif", "dds")) {
			require.NoError(t, err)
			got = append(got, ex)
		}
		require.Len(t, got, 3)
		assert.Equal(t, "meshes/a.nif", got[0].Path)
		assert.Equal(t, []byte("an"), got[0].Data)
		assert.Equal(t, "meshes/b.nif", got[1].Path)
		assert.Equal(t, "textures/a.dds", got[2].Path)
	})

	t.Run("all extensions", func(t *testing.T) {
		t.Parallel()

		count := 0
		for _, err := range a.ExtractByExtension(AllExtensions) {
			require.NoError(t, err)
			count++
		}
		assert.Equal(t, 4, count)
	})

	t.Run("early break", func(t *testing.T) {
		t.Parallel()

		count := 0
		for _, err := range a.ExtractByExtension(AllExtensions) {
			require.NoError(t, err)
			count++
			break
		}
		assert.Equal(t, 1, count)
	})
}

func TestExtractByExtensionNoMatchesSkipsIO(t *testing.T) {
	t.Parallel()

	raw := testarchive.Morrowind(t, []testarchive.File{
		{Name: `meshes\a.nif`, Data: []byte("an")},
	})
	path := writeArchive(t, "mw.bsa", raw)
	a, err := Open(path)
	require.NoError(t, err)

	// With the backing file gone, any extraction attempt would fail; an
	// empty set must never touch the file.
	require.NoError(t, os.Remove(path))
	for _, err := range a.ExtractByExtension(NoExtensions) {
		t.Fatalf("unexpected yield: %v", err)
	}
}

func TestExtractByExtensionContinuesPastFailures(t *testing.T) {
	t.Parallel()

	raw := testarchive.Morrowind(t, []testarchive.File{
		{Name: `meshes\a.nif`, Data: []byte("first")},
		{Name: `meshes\b.nif`, Data: []byte("second")},
	})
	// Cut into the last payload so the final entry fails while earlier
	// entries stay readable.
	a, err := Open(writeArchive(t, "cut.bsa", raw[:len(raw)-2]))
	require.NoError(t, err)

	var ok, failed int
	for ex, err := range a.ExtractByExtension(AllExtensions) {
		if err != nil {
			failed++
			assert.NotEmpty(t, ex.Path)
			continue
		}
		ok++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
}
