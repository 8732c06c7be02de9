package lnqm

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-lnqm/container"
	"github.com/robert-malhotra/go-lnqm/internal/hdf5/hdf5test"
)

// writeContainer builds a raw container with the given data and slices
// blobs, bypassing Encode.
func writeContainer(t *testing.T, data, slices map[string]any, order ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.lnqm")
	f, err := container.Create(path)
	require.NoError(t, err)

	dg, err := f.Root().CreateGroup(DataGroup)
	require.NoError(t, err)
	sg, err := f.Root().CreateGroup(SlicesGroup)
	require.NoError(t, err)
	for _, name := range order {
		if v, ok := data[name]; ok {
			_, err = dg.CreateBlob(name, v)
			require.NoError(t, err)
		}
		if v, ok := slices[name]; ok {
			_, err = sg.CreateBlob(name, v)
			require.NoError(t, err)
		}
	}
	require.NoError(t, f.Close())
	return path
}

func encodeDecode(t *testing.T, s *Store, encOpts []Option, decOpts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rt.lnqm")
	f, err := container.Create(path)
	require.NoError(t, err)
	require.NoError(t, Encode(f, s, encOpts...))
	require.NoError(t, f.Close())

	f, err = container.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := Decode(f, decOpts...)
	require.NoError(t, err)
	return got
}

func TestCodecRoundTrip(t *testing.T) {
	tests := map[string][]Option{
		"plain":    nil,
		"deflate":  {WithCompression(container.CompressionDeflate, 6)},
		"lz4":      {WithCompression(container.CompressionLZ4, 0), WithShuffle()},
		"zstd":     {WithCompression(container.CompressionZstd, 0), WithShuffle(), WithChecksum()},
		"checksum": {WithChecksum()},
	}
	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			s := testStore(t)
			got := encodeDecode(t, s, opts)
			assert.True(t, s.Equal(got), "schema-less decode differs")

			got = encodeDecode(t, s, opts, WithSchema(testSchema()))
			assert.True(t, s.Equal(got), "decode with schema differs")
		})
	}
}

func TestCodecLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.lnqm")
	f, err := container.Create(path)
	require.NoError(t, err)
	require.NoError(t, Encode(f, testStore(t)))
	require.NoError(t, f.Close())

	f, err = container.Open(path)
	require.NoError(t, err)
	defer f.Close()

	format, err := f.GetAttr("/@format")
	require.NoError(t, err)
	v, err := format.ReadString()
	require.NoError(t, err)
	assert.Equal(t, FormatName, v)

	coord, err := f.OpenBlob("/data/coord")
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 3}, coord.Shape())
	assert.Equal(t, "float64", coord.TypeName())
	unit, err := coord.Attr("unit").ReadString()
	require.NoError(t, err)
	assert.Equal(t, "Bohr", unit)

	numbers, err := f.OpenBlob("/data/numbers")
	require.NoError(t, err)
	assert.Equal(t, "uint64", numbers.TypeName())

	charges, err := f.OpenBlob("/data/charges")
	require.NoError(t, err)
	assert.Equal(t, "float32", charges.TypeName())
	assert.True(t, charges.HasAttr("description"))

	uid, err := f.OpenBlob("/data/uid")
	require.NoError(t, err)
	assert.True(t, uid.IsString())

	offsets, err := f.OpenBlob("/slices/coord")
	require.NoError(t, err)
	assert.Equal(t, "uint64", offsets.TypeName())
	assert.Equal(t, []uint64{4}, offsets.Shape())
	raw, err := offsets.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2, 2, 3}, raw)
}

func TestDecodeReinterpretsUnsigned(t *testing.T) {
	path := writeContainer(t,
		map[string]any{"x": []uint64{math.MaxUint64, 3}, "y": []int64{-2}},
		map[string]any{"x": []uint64{0, 1, 2}, "y": []int64{0, 0, 1}},
		"x", "y")

	ds, err := Load(path)
	require.NoError(t, err)
	col, _ := ds.Store().Column("x")
	assert.Equal(t, []int64{-1, 3}, col.Buffer().Int64s())
	col, _ = ds.Store().Column("y")
	assert.Equal(t, []int64{-2}, col.Buffer().Int64s())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]any
		slices map[string]any
		want   error
	}{
		{
			name:   "int32 data",
			data:   map[string]any{"x": []int32{1, 2}},
			slices: map[string]any{"x": []uint64{0, 2}},
			want:   ErrUnsupportedElementType,
		},
		{
			name:   "float slices",
			data:   map[string]any{"x": []float64{1}},
			slices: map[string]any{"x": []float64{0, 1}},
			want:   ErrUnsupportedElementType,
		},
		{
			name:   "data without slices",
			data:   map[string]any{"x": []float64{1}, "y": []float64{1}},
			slices: map[string]any{"x": []uint64{0, 1}},
			want:   ErrSchemaMismatch,
		},
		{
			name:   "slices without data",
			data:   map[string]any{"x": []float64{1}},
			slices: map[string]any{"x": []uint64{0, 1}, "y": []uint64{0, 1}},
			want:   ErrSchemaMismatch,
		},
		{
			name:   "decreasing offsets",
			data:   map[string]any{"x": []float64{1, 2, 3}},
			slices: map[string]any{"x": []uint64{0, 2, 1, 3}},
			want:   ErrCorruptIndex,
		},
		{
			name:   "offsets past buffer",
			data:   map[string]any{"x": []float64{1, 2, 3}},
			slices: map[string]any{"x": []uint64{0, 2, 4}},
			want:   ErrCorruptIndex,
		},
		{
			name:   "sample counts differ",
			data:   map[string]any{"x": []float64{1, 2}, "y": []float64{1, 2}},
			slices: map[string]any{"x": []uint64{0, 1, 2}, "y": []uint64{0, 2}},
			want:   ErrCorruptIndex,
		},
		{
			name:   "text spans two strings",
			data:   map[string]any{"uid": []string{"a", "b"}},
			slices: map[string]any{"uid": []uint64{0, 2}},
			want:   ErrCorruptIndex,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeContainer(t, tt.data, tt.slices, "x", "y", "uid")
			ds, err := Load(path)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, ds)
		})
	}
}

func TestDecodeWithSchemaMismatch(t *testing.T) {
	path := writeContainer(t,
		map[string]any{"uid": []string{"a"}, "x": []float64{1, 2, 3}},
		map[string]any{"uid": []uint64{0, 1}, "x": []uint64{0, 3}},
		"uid", "x")

	_, err := Load(path, WithSchema(MustSchema(Text("uid"), Numeric("x", ElemFloat64))))
	require.NoError(t, err)

	tests := map[string]*Schema{
		"missing field": MustSchema(Text("uid")),
		"extra field":   MustSchema(Text("uid"), Numeric("x", ElemFloat64), Numeric("z", ElemFloat64)),
		"stride":        MustSchema(Text("uid"), Numeric("x", ElemFloat64).WithStride(3)),
		"text kind":     MustSchema(Text("uid"), Text("x")),
		"numeric kind":  MustSchema(Numeric("uid", ElemInt64), Numeric("x", ElemFloat64)),
	}
	for name, schema := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(path, WithSchema(schema))
			assert.ErrorIs(t, err, ErrSchemaMismatch)
		})
	}
}

func TestDecodeSchemaOrder(t *testing.T) {
	path := writeContainer(t,
		map[string]any{"uid": []string{"a"}, "x": []float64{1}},
		map[string]any{"uid": []uint64{0, 1}, "x": []uint64{0, 1}},
		"x", "uid")

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "uid"}, ds.Fields())

	ds, err = Load(path, WithSchema(MustSchema(Text("uid").WithUnit("-"), Numeric("x", ElemFloat32))))
	require.NoError(t, err)
	assert.Equal(t, []string{"uid", "x"}, ds.Fields())
	x, _ := ds.Schema().Field("x")
	assert.Equal(t, ElemFloat64, x.Elem, "stored precision wins")
}

func TestDecodeRejectsForeignFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.lnqm")
	f, err := container.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Root().SetAttr("format", "something-else"))
	require.NoError(t, f.Close())

	_, err = Load(path)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	path = filepath.Join(t.TempDir(), "bare.lnqm")
	f, err = container.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrSchemaMismatch, "no data group")
}

func TestEncodeNegativePolicy(t *testing.T) {
	b := NewBuilder(MustSchema(Numeric("x", ElemInt64)))
	require.NoError(t, b.Append(Sample{"x": Int64Value(5, -1, math.MinInt64)}))
	s, err := b.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "neg.lnqm")
	f, err := container.Create(path)
	require.NoError(t, err)
	err = Encode(f, s)
	assert.ErrorIs(t, err, ErrNegativeValue)
	require.NoError(t, f.Abort())

	got := encodeDecode(t, s, []Option{WithAllowNegative()})
	col, _ := got.Column("x")
	assert.Equal(t, []int64{5, -1, math.MinInt64}, col.Buffer().Int64s())
}

func TestEncodeEmptyStore(t *testing.T) {
	got := encodeDecode(t, nil, nil)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, 0, got.Len())

	zero, err := NewBuilder(testSchema()).Build()
	require.NoError(t, err)
	got = encodeDecode(t, zero, nil)
	assert.True(t, zero.Equal(got))
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, 4, got.Schema().Len())
}

func TestLoadH5py(t *testing.T) {
	for name, newFile := range map[string]func() *hdf5test.File{
		"symbol table": hdf5test.New,
		"latest":       hdf5test.NewLatest,
	} {
		t.Run(name, func(t *testing.T) {
			h := newFile()
			data := h.Root().Group(DataGroup)
			data.Dataset("numbers", []int64{6, 1, 8})
			data.Dataset("coord", []float64{0, 0, 0, 1, 1, 1, 2, 2, 2}, 3, 3).Attr(unitAttr, "Bohr")
			data.Dataset(UIDField, []string{"water", "h2"})
			slices := h.Root().Group(SlicesGroup)
			slices.Dataset("numbers", []int64{0, 2, 3})
			slices.Dataset("coord", []int64{0, 2, 3})
			slices.Dataset(UIDField, []int64{0, 1, 2})

			path := filepath.Join(t.TempDir(), "h5py.h5")
			require.NoError(t, h.WriteFile(path))

			ds, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, 2, ds.Len())
			assert.Equal(t, []string{"coord", "numbers", UIDField}, ds.Fields())
			coord, _ := ds.Schema().Field("coord")
			assert.Equal(t, 3, coord.Stride)
			assert.Equal(t, "Bohr", coord.Unit)

			s0, err := ds.Sample(0)
			require.NoError(t, err)
			z, err := s0.Int64s("numbers")
			require.NoError(t, err)
			assert.Equal(t, []int64{6, 1}, z)
			xyz, err := s0.Float64s("coord")
			require.NoError(t, err)
			assert.Equal(t, []float64{0, 0, 0, 1, 1, 1}, xyz)
			uid, err := s0.UID()
			require.NoError(t, err)
			assert.Equal(t, "water", uid)

			i, ok := ds.IndexOf("h2")
			require.True(t, ok)
			assert.Equal(t, 1, i)
		})
	}
}
