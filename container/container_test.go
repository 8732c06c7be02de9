package container

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-lnqm/internal/hdf5/hdf5test"
	"github.com/robert-malhotra/go-lnqm/internal/message"
	"github.com/robert-malhotra/go-lnqm/internal/object"
)

func writeSample(t *testing.T, path string, opts ...BlobOption) {
	t.Helper()
	f, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, f.Root().SetAttr("format", "lnqm"))
	require.NoError(t, f.Root().SetAttr("version", int64(1)))

	data, err := f.Root().CreateGroup("data")
	require.NoError(t, err)
	slices, err := f.Root().CreateGroup("slices")
	require.NoError(t, err)

	coord := make([]float32, 0, 300)
	for i := 0; i < 300; i++ {
		coord = append(coord, float32(i)*0.5)
	}
	_, err = data.CreateBlob("coord", coord,
		append([]BlobOption{WithShape(100, 3), WithAttribute("unit", "Bohr")}, opts...)...)
	require.NoError(t, err)
	_, err = data.CreateBlob("uid", []string{"sampleA", "sampleB"})
	require.NoError(t, err)
	_, err = slices.CreateBlob("coord", []uint64{0, 40, 100}, opts...)
	require.NoError(t, err)
	_, err = slices.CreateBlob("uid", []uint64{0, 1, 2})
	require.NoError(t, err)

	require.NoError(t, f.Close())
}

func TestRoundTrip(t *testing.T) {
	tests := map[string][]BlobOption{
		"plain":   nil,
		"deflate": {WithCompression(CompressionDeflate, 9)},
		"lz4":     {WithCompression(CompressionLZ4, 0), WithShuffle()},
		"zstd":    {WithShuffle(), WithCompression(CompressionZstd, 3), WithFletcher32()},
	}
	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sample.lnqm")
			writeSample(t, path, opts...)

			f, err := Open(path)
			require.NoError(t, err)
			defer f.Close()

			members, err := f.Root().Members()
			require.NoError(t, err)
			assert.Equal(t, []string{"data", "slices"}, members)

			format, err := f.GetAttr("/@format")
			require.NoError(t, err)
			s, err := format.ReadString()
			require.NoError(t, err)
			assert.Equal(t, "lnqm", s)

			version, err := f.Root().Attr("version").ReadInt64()
			require.NoError(t, err)
			assert.Equal(t, int64(1), version)

			coord, err := f.OpenBlob("/data/coord")
			require.NoError(t, err)
			assert.Equal(t, []uint64{100, 3}, coord.Shape())
			assert.Equal(t, "float32", coord.TypeName())
			vals, err := coord.ReadFloat32()
			require.NoError(t, err)
			require.Len(t, vals, 300)
			assert.Equal(t, float32(149.5), vals[299])

			wide, err := coord.ReadFloat64()
			require.NoError(t, err)
			assert.Equal(t, 149.5, wide[299])

			unit, err := f.GetAttr("/data/coord@unit")
			require.NoError(t, err)
			u, err := unit.Value()
			require.NoError(t, err)
			assert.Equal(t, "Bohr", u)

			uid, err := f.OpenBlob("data/uid")
			require.NoError(t, err)
			assert.True(t, uid.IsString())
			ss, err := uid.ReadStrings()
			require.NoError(t, err)
			assert.Equal(t, []string{"sampleA", "sampleB"}, ss)

			offsets, err := f.OpenBlob("/slices/coord")
			require.NoError(t, err)
			assert.Equal(t, "uint64", offsets.TypeName())
			off, err := offsets.ReadInt64()
			require.NoError(t, err)
			assert.Equal(t, []int64{0, 40, 100}, off)

			if opts != nil {
				assert.NotEmpty(t, offsets.Filters())
			}
		})
	}
}

func TestFiltersRecorded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.lnqm")
	writeSample(t, path, WithShuffle(), WithCompression(CompressionZstd, 0), WithFletcher32())

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	coord, err := f.OpenBlob("/data/coord")
	require.NoError(t, err)
	assert.Equal(t, []string{"shuffle", "zstd", "fletcher32"}, coord.Filters())
	assert.Less(t, coord.StoredSize(), coord.RawSize())
	assert.Equal(t, uint64(1200), coord.RawSize())
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.lnqm"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a container file"), 0o644))
	_, err = Open(garbage)
	assert.ErrorIs(t, err, ErrNotContainer)

	path := filepath.Join(dir, "ok.lnqm")
	writeSample(t, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	truncated := filepath.Join(dir, "truncated.lnqm")
	require.NoError(t, os.WriteFile(truncated, data[:len(data)-10], 0o644))
	_, err = Open(truncated)
	assert.ErrorIs(t, err, ErrCorrupt)

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-20] ^= 0x40 // inside the root group header
	bad := filepath.Join(dir, "flipped.lnqm")
	require.NoError(t, os.WriteFile(bad, flipped, 0o644))
	_, err = Open(bad)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestPayloadChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.lnqm")
	writeSample(t, path, WithFletcher32())

	f, err := Open(path)
	require.NoError(t, err)
	coord, err := f.OpenBlob("/data/coord")
	require.NoError(t, err)
	require.Equal(t, []string{"fletcher32"}, coord.Filters())
	addr := coord.layout.Address
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[addr+5] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0o644))

	f, err = Open(path)
	require.NoError(t, err)
	defer f.Close()
	coord, err = f.OpenBlob("/data/coord")
	require.NoError(t, err)
	_, err = coord.ReadFloat32()
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestLookupErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.lnqm")
	writeSample(t, path)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.OpenBlob("/data/missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.OpenBlob("/data")
	assert.ErrorIs(t, err, ErrNotBlob)
	_, err = f.OpenGroup("/data/coord")
	assert.ErrorIs(t, err, ErrNotGroup)
	_, err = f.OpenBlob("/data/coord/x")
	assert.ErrorIs(t, err, ErrNotGroup)
	_, err = f.GetAttr("/data/coord@missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.GetAttr("/data/coord")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = f.Root().CreateGroup("x")
	assert.ErrorIs(t, err, ErrReadOnly)

	uid, err := f.OpenBlob("/data/uid")
	require.NoError(t, err)
	_, err = uid.ReadFloat64()
	assert.Error(t, err)

	require.NoError(t, f.Close())
	_, err = f.OpenGroup("/data")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCreateErrors(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "x.lnqm"))
	require.NoError(t, err)
	defer f.Abort()

	root := f.Root()
	_, err = root.CreateGroup("data")
	require.NoError(t, err)
	_, err = root.CreateGroup("data")
	assert.ErrorIs(t, err, ErrExists)

	for _, name := range []string{"", ".", "a/b", "a@b"} {
		_, err = root.CreateGroup(name)
		assert.ErrorIs(t, err, ErrInvalidPath, "name %q", name)
	}

	_, err = root.CreateBlob("scalar", 3.0)
	assert.Error(t, err)
	_, err = root.CreateBlob("bools", []bool{true})
	assert.Error(t, err)
	_, err = root.CreateBlob("shape", []int64{1, 2, 3}, WithShape(2, 2))
	assert.ErrorContains(t, err, "shape")
	assert.False(t, root.HasMember("shape"))
}

func TestAbortLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.lnqm")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateBlob("x", []int64{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, f.Abort())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestCloseReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "replace.lnqm")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))
	writeSample(t, path)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.True(t, f.Root().HasMember("data"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temporary file %s left behind", e.Name())
	}
}

func TestReadWhileWriting(t *testing.T) {
	f, err := Create(filepath.Join(t.TempDir(), "w.lnqm"), WithOffsetSize(4))
	require.NoError(t, err)
	defer f.Abort()

	g, err := f.Root().CreateGroup("g")
	require.NoError(t, err)
	big := make([]int64, 100)
	for i := range big {
		big[i] = int64(i) - 50
	}
	b, err := g.CreateBlob("big", big)
	require.NoError(t, err)
	got, err := b.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, big, got)

	again, err := f.OpenBlob("/g/big")
	require.NoError(t, err)
	assert.Equal(t, []uint64{100}, again.Shape())
	assert.Equal(t, 4, f.OffsetSize())
	assert.Greater(t, f.AllocStats().TotalBytesAlloc, uint64(800))
}

func TestEmptyBlobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.lnqm")
	f, err := Create(path)
	require.NoError(t, err)
	assert.True(t, f.IsWritable())
	_, err = f.Root().CreateBlob("nums", []float64{})
	require.NoError(t, err)
	_, err = f.Root().CreateBlob("strs", []string{}, WithCompression(CompressionZstd, 0))
	require.NoError(t, err)
	_, err = f.Root().CreateBlob("rows", []float64{}, WithShape(0, 3))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = Open(path)
	require.NoError(t, err)
	defer f.Close()

	nums, err := f.OpenBlob("nums")
	require.NoError(t, err)
	vals, err := nums.ReadFloat64()
	require.NoError(t, err)
	assert.Empty(t, vals)

	strs, err := f.OpenBlob("strs")
	require.NoError(t, err)
	ss, err := strs.ReadStrings()
	require.NoError(t, err)
	assert.Empty(t, ss)

	assert.False(t, f.IsWritable())
	rows, err := f.OpenBlob("rows")
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 3}, rows.Shape())
}

func TestOverflowingShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.lnqm")
	f, err := Create(path)
	require.NoError(t, err)

	f64 := message.NewFloatDatatype(8, message.OrderLE)
	shapes := map[string]*message.Dataspace{
		"bytes": message.NewDataspace(1 << 61),
		"count": message.NewDataspace(1<<61, 1<<4),
	}
	for name, ds := range shapes {
		msgs := object.NewBlobMessages(f64, ds, message.NewCompactLayout(nil, 0), nil, nil)
		addr, err := f.writeHeader(object.KindBlob, msgs)
		require.NoError(t, err)
		f.Root().node.members = append(f.Root().node.members, &member{name: name, addr: addr})
	}
	f.Root().node.attrs = append(f.Root().node.attrs, &message.Attribute{
		Name:      "huge",
		Datatype:  f64,
		Dataspace: message.NewDataspace(1<<32, 1<<32),
	})
	require.NoError(t, f.Close())

	f, err = Open(path)
	require.NoError(t, err)
	defer f.Close()

	for name := range shapes {
		_, err := f.OpenBlob(name)
		assert.ErrorIs(t, err, ErrCorrupt, name)
	}
	_, err = f.Root().Attr("huge").Value()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpenHDF5(t *testing.T) {
	for name, newFile := range map[string]func() *hdf5test.File{
		"symbol table": hdf5test.New,
		"latest":       hdf5test.NewLatest,
	} {
		t.Run(name, func(t *testing.T) {
			h := newFile()
			h.Root().Attr("format", "h5py").Attr("version", int64(2))
			data := h.Root().Group("data")
			data.Dataset("coord", []float64{0, 0.5, 1, 1.5, 2, 2.5}, 2, 3).Attr("unit", "Angstrom")
			data.Dataset("uid", []string{"sampleA", "sampleB"})
			data.Compact("numbers", []int32{6, 1})
			h.Root().Group("slices").Dataset("coord", []uint64{0, 1, 2})

			path := filepath.Join(t.TempDir(), "h5py.h5")
			require.NoError(t, h.WriteFile(path))

			f, err := Open(path)
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, FormatHDF5, f.Format())
			assert.False(t, f.IsWritable())

			format, err := f.Root().Attr("format").ReadString()
			require.NoError(t, err)
			assert.Equal(t, "h5py", format)
			version, err := f.Root().Attr("version").ReadInt64()
			require.NoError(t, err)
			assert.Equal(t, int64(2), version)

			coord, err := f.OpenBlob("/data/coord")
			require.NoError(t, err)
			assert.Equal(t, []uint64{2, 3}, coord.Shape())
			xyz, err := coord.ReadFloat64()
			require.NoError(t, err)
			assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2, 2.5}, xyz)
			unit, err := coord.Attr("unit").ReadString()
			require.NoError(t, err)
			assert.Equal(t, "Angstrom", unit)

			numbers, err := f.OpenBlob("/data/numbers")
			require.NoError(t, err)
			z, err := numbers.ReadInt64()
			require.NoError(t, err)
			assert.Equal(t, []int64{6, 1}, z)

			uid, err := f.OpenBlob("/data/uid")
			require.NoError(t, err)
			uids, err := uid.ReadStrings()
			require.NoError(t, err)
			assert.Equal(t, []string{"sampleA", "sampleB"}, uids)

			offsets, err := f.OpenBlob("/slices/coord")
			require.NoError(t, err)
			o, err := offsets.ReadUint64()
			require.NoError(t, err)
			assert.Equal(t, []uint64{0, 1, 2}, o)

			var visited []string
			require.NoError(t, Walk(f.Root(), func(p string, obj any, err error) error {
				require.NoError(t, err)
				visited = append(visited, p)
				return nil
			}))
			assert.Equal(t, []string{"/", "/data", "/data/coord", "/data/numbers", "/data/uid", "/slices", "/slices/coord"}, visited)

			_, err = f.Root().CreateGroup("extra")
			assert.ErrorIs(t, err, ErrReadOnly)
		})
	}
}

func TestWalk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walk.lnqm")
	writeSample(t, path)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	var visited []string
	err = Walk(f.Root(), func(p string, obj any, err error) error {
		require.NoError(t, err)
		switch obj.(type) {
		case *Group:
			visited = append(visited, "G "+p)
		case *Blob:
			visited = append(visited, "B "+p)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"G /",
		"G /data", "B /data/coord", "B /data/uid",
		"G /slices", "B /slices/coord", "B /slices/uid",
	}, visited)

	visited = nil
	err = Walk(f.Root(), func(p string, obj any, err error) error {
		visited = append(visited, p)
		if p == "/data" {
			return SkipGroup
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/data", "/slices", "/slices/coord", "/slices/uid"}, visited)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, []string{}, SplitPath("/"))
	assert.Equal(t, []string{"data", "coord"}, SplitPath("data//coord/"))
	assert.Equal(t, "/", CleanPath(""))
	assert.Equal(t, "/data/coord", CleanPath("data/coord/"))

	obj, attr, err := ParseAttrPath("/@format")
	require.NoError(t, err)
	assert.Equal(t, "/", obj)
	assert.Equal(t, "format", attr)
	assert.Equal(t, "/@format", JoinAttrPath(obj, attr))
	assert.Equal(t, "/data@x", JoinAttrPath("/data", "x"))

	_, _, err = ParseAttrPath("/data@")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":        CompressionNone,
		"none":    CompressionNone,
		"ZSTD":    CompressionZstd,
		" lz4 ":   CompressionLZ4,
		"deflate": CompressionDeflate,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrUnsupported)
}
