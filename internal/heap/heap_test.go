package heap

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
)

var le = binary.LittleEndian

func localHeap(names ...string) ([]byte, []uint64) {
	data := make([]byte, 8)
	var offsets []uint64
	for _, n := range names {
		offsets = append(offsets, uint64(len(data)))
		data = append(data, n...)
		data = append(data, 0)
	}
	buf := []byte{'H', 'E', 'A', 'P', 0, 0, 0, 0}
	buf = le.AppendUint64(buf, uint64(len(data)))
	buf = le.AppendUint64(buf, ^uint64(0))
	buf = le.AppendUint64(buf, 32)
	return append(buf, data...), offsets
}

func TestReadLocal(t *testing.T) {
	file, offsets := localHeap("coord", "uid")
	h, err := ReadLocal(binpkg.NewBytesReader(file, binpkg.DefaultConfig()), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(32), h.DataAddress)

	name, err := h.String(offsets[1])
	require.NoError(t, err)
	assert.Equal(t, "uid", name)
	name, err = h.String(0)
	require.NoError(t, err)
	assert.Empty(t, name)

	_, err = h.String(1000)
	assert.ErrorIs(t, err, ErrInvalidHeap)

	bad := append([]byte(nil), file...)
	bad[0] = 'X'
	_, err = ReadLocal(binpkg.NewBytesReader(bad, binpkg.DefaultConfig()), 0)
	assert.ErrorIs(t, err, ErrInvalidHeap)

	_, err = ReadLocal(binpkg.NewBytesReader(file[:40], binpkg.DefaultConfig()), 0)
	assert.ErrorIs(t, err, binpkg.ErrShortRead)
}

func collection(objs ...string) []byte {
	var body []byte
	for i, o := range objs {
		body = le.AppendUint16(body, uint16(i+1))
		body = le.AppendUint16(body, 1)
		body = le.AppendUint32(body, 0)
		body = le.AppendUint64(body, uint64(len(o)))
		body = append(body, o...)
		for len(body)%8 != 0 {
			body = append(body, 0)
		}
	}
	body = append(body, make([]byte, 16)...)
	buf := []byte{'G', 'C', 'O', 'L', 1, 0, 0, 0}
	buf = le.AppendUint64(buf, uint64(16+len(body)))
	return append(buf, body...)
}

func TestReadGlobal(t *testing.T) {
	file := append(make([]byte, 8), collection("sampleA", "", "a longer string value")...)
	r := binpkg.NewBytesReader(file, binpkg.DefaultConfig())

	g, err := ReadGlobal(r, 8)
	require.NoError(t, err)
	obj, err := g.Object(3)
	require.NoError(t, err)
	assert.Equal(t, "a longer string value", string(obj))
	obj, err = g.Object(2)
	require.NoError(t, err)
	assert.Empty(t, obj)

	_, err = g.Object(4)
	assert.ErrorIs(t, err, ErrInvalidHeap)
	_, err = g.Object(1<<16 + 1)
	assert.ErrorIs(t, err, ErrInvalidHeap)

	_, err = ReadGlobal(r, 0)
	assert.ErrorIs(t, err, ErrInvalidHeap)
	_, err = ReadGlobal(r, ^uint64(0))
	assert.ErrorIs(t, err, ErrInvalidHeap)

	overrun := append([]byte(nil), file...)
	le.PutUint64(overrun[8+16+8:], 1<<20) // size of object 1
	_, err = ReadGlobal(binpkg.NewBytesReader(overrun, binpkg.DefaultConfig()), 8)
	assert.ErrorIs(t, err, ErrInvalidHeap)
}

func TestParseID(t *testing.T) {
	raw := le.AppendUint64(nil, 4096)
	raw = le.AppendUint32(raw, 7)
	id, err := ParseID(raw, binpkg.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, ID{Collection: 4096, Index: 7}, id)

	_, err = ParseID(raw[:10], binpkg.DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidHeap)
}
