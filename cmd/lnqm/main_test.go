package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-lnqm"
	"github.com/robert-malhotra/go-lnqm/internal/hdf5/hdf5test"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeDataset(t *testing.T) string {
	t.Helper()
	schema := lnqm.MustSchema(
		lnqm.Text("uid"),
		lnqm.Numeric("numbers", lnqm.ElemInt64),
		lnqm.Numeric("coord", lnqm.ElemFloat64).WithStride(3),
	)
	b := lnqm.NewBuilder(schema)
	samples := []lnqm.Sample{
		{"uid": lnqm.TextValue("a"), "numbers": lnqm.Int64Value(6, 1), "coord": lnqm.Float64Value(0, 0, 0, 0, 0, 1.1)},
		{"uid": lnqm.TextValue("b"), "numbers": lnqm.Int64Value(8), "coord": lnqm.Float64Value(1, 2, 3)},
		{"uid": lnqm.TextValue("c"), "numbers": lnqm.Int64Value(1), "coord": lnqm.Float64Value(4, 5, 6)},
	}
	for _, s := range samples {
		require.NoError(t, b.Append(s))
	}
	store, err := b.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "in.h5")
	require.NoError(t, lnqm.FromStore(store).Save(path))
	return path
}

func TestInfo(t *testing.T) {
	path := writeDataset(t)
	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "SAMPLES")
	assert.Contains(t, out, path)
	assert.Regexp(t, `in\.h5\s+3\s+3\s`, out)
}

func TestInfoMissingFile(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "missing.h5"))
	require.Error(t, err)
	assert.ErrorIs(t, err, lnqm.ErrIO)
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", writeDataset(t))
	require.NoError(t, err)
	assert.Contains(t, out, "data/ (3 members)")
	assert.Contains(t, out, "slices/ (3 members)")
	assert.Contains(t, out, "coord float64 [4 3]")
	assert.Contains(t, out, "format=lnqm")
	assert.Contains(t, out, "(lnqm, ")
}

func TestInspectHDF5(t *testing.T) {
	h := hdf5test.New()
	h.Root().Group("data").Dataset("numbers", []int64{6, 1, 8}).Attr("unit", "-")
	path := filepath.Join(t.TempDir(), "h5py.h5")
	require.NoError(t, h.WriteFile(path))

	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(hdf5, ")
	assert.Contains(t, out, "data/ (1 members)")
	assert.Contains(t, out, "numbers int64 [3]")
	assert.Contains(t, out, "unit=-")
}

func TestSample(t *testing.T) {
	path := writeDataset(t)

	byIndex, err := run(t, "sample", path, "1")
	require.NoError(t, err)
	assert.Regexp(t, `uid\s+1\s+b`, byIndex)
	assert.Regexp(t, `numbers\s+1\s+\[8\]`, byIndex)

	byUID, err := run(t, "sample", path, "--uid", "b")
	require.NoError(t, err)
	assert.Equal(t, byIndex, byUID)
}

func TestSampleErrors(t *testing.T) {
	path := writeDataset(t)

	_, err := run(t, "sample", path)
	assert.Error(t, err)

	_, err = run(t, "sample", path, "0", "--uid", "a")
	assert.Error(t, err)

	_, err = run(t, "sample", path, "--uid", "zzz")
	assert.ErrorIs(t, err, lnqm.ErrOutOfRange)

	_, err = run(t, "sample", path, "3")
	assert.ErrorIs(t, err, lnqm.ErrOutOfRange)
}

func TestStats(t *testing.T) {
	path := writeDataset(t)

	out, err := run(t, "stats", path, "numbers")
	require.NoError(t, err)
	assert.Regexp(t, `numbers\s+4\s+3\s+0\s+1\s+8\s+4`, out)
	assert.NotContains(t, out, "coord")

	all, err := run(t, "stats", path)
	require.NoError(t, err)
	assert.Contains(t, all, "numbers")
	assert.Contains(t, all, "coord")
	assert.NotContains(t, all, "uid")

	_, err = run(t, "stats", path, "uid")
	assert.ErrorIs(t, err, lnqm.ErrUnsupportedElementType)
}

func TestSelect(t *testing.T) {
	in := writeDataset(t)
	out := filepath.Join(t.TempDir(), "out.h5")

	msg, err := run(t, "select", in, out, "--index", "0", "--uid", "c")
	require.NoError(t, err)
	assert.Contains(t, msg, "wrote 2 of 3 samples")

	ds, err := lnqm.Load(out)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	s, err := ds.Sample(1)
	require.NoError(t, err)
	uid, err := s.UID()
	require.NoError(t, err)
	assert.Equal(t, "c", uid)

	_, err = run(t, "select", in, out, "--index", "0-5")
	assert.ErrorIs(t, err, lnqm.ErrOutOfRange)
}

func TestConvert(t *testing.T) {
	in := writeDataset(t)
	out := filepath.Join(t.TempDir(), "out.h5")

	_, err := run(t, "convert", in, out, "--compression", "zstd", "--shuffle", "--checksum")
	require.NoError(t, err)

	src, err := lnqm.Load(in)
	require.NoError(t, err)
	dst, err := lnqm.Load(out)
	require.NoError(t, err)
	assert.True(t, src.Store().Equal(dst.Store()))

	_, err = run(t, "convert", in, out, "--compression", "brotli")
	assert.Error(t, err)
}

func TestConvertWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "lnqm.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output:\n  compression: deflate\n  level: 6\n"), 0o644))

	in := writeDataset(t)
	out := filepath.Join(dir, "out.h5")
	_, err := run(t, "--config", cfg, "convert", in, out)
	require.NoError(t, err)

	tree, err := run(t, "inspect", out)
	require.NoError(t, err)
	assert.Contains(t, tree, "deflate")
}

func TestSchema(t *testing.T) {
	def, err := run(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, def, "name: uid")
	assert.Contains(t, def, "name: mayer_pop")

	fromFile, err := run(t, "schema", writeDataset(t))
	require.NoError(t, err)
	assert.Contains(t, fromFile, "name: coord")
	assert.Contains(t, fromFile, "stride: 3")
	assert.NotContains(t, fromFile, "mayer_pop")

	path := filepath.Join(t.TempDir(), "schema.yaml")
	_, err = run(t, "schema", "--out", path)
	require.NoError(t, err)
	schema, err := lnqm.LoadSchema(path)
	require.NoError(t, err)
	assert.True(t, schema.Equal(lnqm.DefaultSchema()))
}

func TestParseIndexSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    []uint32
		wantErr bool
	}{
		{spec: "", want: []uint32{}},
		{spec: "4", want: []uint32{4}},
		{spec: "0, 3,10-13", want: []uint32{0, 3, 10, 11, 12}},
		{spec: "2-2", want: []uint32{}},
		{spec: "x", wantErr: true},
		{spec: "5-2", wantErr: true},
		{spec: "1-", wantErr: true},
		{spec: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseIndexSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ToArray())
		})
	}
}
