package btree

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
	"github.com/robert-malhotra/go-lnqm/internal/heap"
)

var le = binary.LittleEndian

type entry struct {
	name  uint64
	addr  uint64
	cache uint32
}

// file lays out structures at fixed 256-byte slots so tests can wire
// addresses by hand.
type file struct{ buf []byte }

func (f *file) put(slot int, b []byte) uint64 {
	at := slot * 256
	if len(f.buf) < at+256 {
		f.buf = append(f.buf, make([]byte, at+256-len(f.buf))...)
	}
	copy(f.buf[at:], b)
	return uint64(at)
}

func (f *file) reader() *binpkg.Reader {
	return binpkg.NewBytesReader(f.buf, binpkg.DefaultConfig())
}

func names(list ...string) ([]byte, []uint64) {
	data := make([]byte, 8)
	var offsets []uint64
	for _, n := range list {
		offsets = append(offsets, uint64(len(data)))
		data = append(data, n...)
		data = append(data, 0)
	}
	return data, offsets
}

func heapHeader(dataAddr uint64, size int) []byte {
	b := []byte{'H', 'E', 'A', 'P', 0, 0, 0, 0}
	b = le.AppendUint64(b, uint64(size))
	b = le.AppendUint64(b, ^uint64(0))
	return le.AppendUint64(b, dataAddr)
}

func snod(entries ...entry) []byte {
	b := []byte{'S', 'N', 'O', 'D', 1, 0}
	b = le.AppendUint16(b, uint16(len(entries)))
	for _, e := range entries {
		b = le.AppendUint64(b, e.name)
		b = le.AppendUint64(b, e.addr)
		b = le.AppendUint32(b, e.cache)
		b = append(b, make([]byte, 4+16)...)
	}
	return b
}

func tree(level byte, children ...uint64) []byte {
	b := []byte{'T', 'R', 'E', 'E', 0, level}
	b = le.AppendUint16(b, uint16(len(children)))
	b = le.AppendUint64(b, ^uint64(0))
	b = le.AppendUint64(b, ^uint64(0))
	for _, c := range children {
		b = le.AppendUint64(b, 0)
		b = le.AppendUint64(b, c)
	}
	return le.AppendUint64(b, 0)
}

func TestReadGroup(t *testing.T) {
	var f file
	data, off := names("coord", "numbers", "link", "uid")
	dataAddr := f.put(1, data)
	heapAddr := f.put(0, heapHeader(dataAddr, len(data)))

	left := f.put(2, snod(entry{off[0], 1000, 0}, entry{off[1], 2000, 1}))
	right := f.put(3, snod(entry{off[2], ^uint64(0), 2}, entry{off[3], 3000, 0}, entry{0, 0, 0}))
	leaf := f.put(4, tree(0, left, right))
	root := f.put(5, tree(1, leaf))

	r := f.reader()
	h, err := heap.ReadLocal(r, heapAddr)
	require.NoError(t, err)

	entries, err := ReadGroup(r, root, h)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "coord", ObjectAddress: 1000},
		{Name: "numbers", ObjectAddress: 2000},
		{Name: "link", ObjectAddress: ^uint64(0), SoftLink: true},
		{Name: "uid", ObjectAddress: 3000},
	}, entries)

	entries, err = ReadGroup(r, leaf, h)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestReadGroupErrors(t *testing.T) {
	var f file
	data, off := names("a")
	dataAddr := f.put(1, data)
	heapAddr := f.put(0, heapHeader(dataAddr, len(data)))
	loop := f.put(2, tree(1, 512))
	badCache := f.put(3, tree(0, f.put(4, snod(entry{off[0], 1, 9}))))
	chunkNode := tree(0)
	chunkNode[4] = 1
	chunk := f.put(5, chunkNode)
	notTree := f.put(6, []byte("XXXX"))
	badName := f.put(7, tree(0, f.put(8, snod(entry{999, 1, 0}))))

	r := f.reader()
	h, err := heap.ReadLocal(r, heapAddr)
	require.NoError(t, err)

	for name, addr := range map[string]uint64{
		"cycle":      loop,
		"cache type": badCache,
		"chunk node": chunk,
		"signature":  notTree,
	} {
		_, err := ReadGroup(r, addr, h)
		assert.ErrorIs(t, err, ErrInvalidNode, name)
	}
	_, err = ReadGroup(r, badName, h)
	assert.ErrorIs(t, err, heap.ErrInvalidHeap)
}
