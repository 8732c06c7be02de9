// Package hdf5test builds small HDF5 files in memory, laid out the way
// libhdf5 lays out files written by h5py. It exists so that the HDF5 read
// path can be tested without binary fixtures.
//
// New produces the default layout: a version 0 superblock, version 1 object
// headers and symbol-table groups. NewLatest produces the layout of
// libver="latest": a version 2 superblock, version 2 object headers and
// compact link groups.
package hdf5test

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
)

const undefined = ^uint64(0)

// File is an HDF5 file under construction.
type File struct {
	latest bool
	root   *Group
}

// Group is a group under construction.
type Group struct {
	members []*member
	attrs   []attr
}

type member struct {
	name  string
	group *Group
	data  *dataset
}

type dataset struct {
	datatype []byte
	dims     []uint64
	raw      []byte
	strs     []string
	compact  bool
	attrs    []attr
}

type attr struct {
	name  string
	value any
}

// New returns an empty file in the default layout.
func New() *File { return &File{root: &Group{}} }

// NewLatest returns an empty file in the latest layout.
func NewLatest() *File { return &File{latest: true, root: &Group{}} }

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// Group adds a subgroup.
func (g *Group) Group(name string) *Group {
	sub := &Group{}
	g.members = append(g.members, &member{name: name, group: sub})
	return sub
}

// Attr adds an attribute holding a string, int64 or float64 scalar.
func (g *Group) Attr(name string, value any) *Group {
	g.attrs = append(g.attrs, attr{name: name, value: value})
	return g
}

// Dataset adds a dataset with contiguous storage. data is a slice of
// uint64, int64, int32, float64, float32 or string; dims default to the
// slice length.
func (g *Group) Dataset(name string, data any, dims ...uint64) *Dataset {
	return g.add(name, data, false, dims)
}

// Compact adds a dataset whose data is stored inside its header.
func (g *Group) Compact(name string, data any, dims ...uint64) *Dataset {
	return g.add(name, data, true, dims)
}

// Dataset is a dataset under construction.
type Dataset struct{ d *dataset }

// Attr adds an attribute holding a string, int64 or float64 scalar.
func (d *Dataset) Attr(name string, value any) *Dataset {
	d.d.attrs = append(d.d.attrs, attr{name: name, value: value})
	return d
}

func (g *Group) add(name string, data any, compact bool, dims []uint64) *Dataset {
	d := &dataset{compact: compact}
	var n int
	switch v := data.(type) {
	case []string:
		d.datatype, d.strs, n = stringType(), v, len(v)
	case []uint64:
		d.datatype, n = intType(8, false), len(v)
	case []int64:
		d.datatype, n = intType(8, true), len(v)
	case []int32:
		d.datatype, n = intType(4, true), len(v)
	case []float64:
		d.datatype, n = floatType(8), len(v)
	case []float32:
		d.datatype, n = floatType(4), len(v)
	default:
		panic(fmt.Sprintf("hdf5test: unsupported data %T", data))
	}
	if d.strs == nil {
		raw, err := binary.Append(nil, binary.LittleEndian, data)
		if err != nil {
			panic(err)
		}
		d.raw = raw
	}
	d.dims = dims
	if dims == nil {
		d.dims = []uint64{uint64(n)}
	}
	g.members = append(g.members, &member{name: name, data: d})
	return &Dataset{d: d}
}

// Bytes lays out the file.
func (f *File) Bytes() []byte {
	w := &writer{latest: f.latest}
	sbSize := 96
	if f.latest {
		sbSize = 48
	}
	w.buf = make([]byte, sbSize)
	root := w.group(f.root)
	w.superblock(root)
	return w.buf
}

// WriteFile lays out the file and writes it to path.
func (f *File) WriteFile(path string) error {
	return os.WriteFile(path, f.Bytes(), 0o644)
}

type writer struct {
	latest bool
	buf    []byte
}

func (w *writer) addr() uint64 { return uint64(len(w.buf)) }

func (w *writer) pad8() {
	for len(w.buf)%8 != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) superblock(root uint64) {
	eof := w.addr()
	le := binary.LittleEndian
	var b []byte
	b = append(b, 0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n')
	if w.latest {
		b = append(b, 2, 8, 8, 0)
		b = le.AppendUint64(b, 0)         // base
		b = le.AppendUint64(b, undefined) // extension
		b = le.AppendUint64(b, eof)
		b = le.AppendUint64(b, root)
		b = le.AppendUint32(b, binpkg.Lookup3Checksum(b))
	} else {
		b = append(b, 0, 0, 0, 0, 0, 8, 8, 0)
		b = le.AppendUint16(b, 4)  // group leaf K
		b = le.AppendUint16(b, 16) // group internal K
		b = le.AppendUint32(b, 0)  // consistency flags
		b = le.AppendUint64(b, 0)  // base
		b = le.AppendUint64(b, undefined)
		b = le.AppendUint64(b, eof)
		b = le.AppendUint64(b, undefined)
		b = le.AppendUint64(b, 0) // root entry name offset
		b = le.AppendUint64(b, root)
		b = le.AppendUint32(b, 0)
		b = append(b, make([]byte, 4+16)...)
	}
	copy(w.buf, b)
}

// group writes the members of g, then g's own header, and returns the
// header address.
func (w *writer) group(g *Group) uint64 {
	members := append([]*member(nil), g.members...)
	sort.Slice(members, func(i, j int) bool { return members[i].name < members[j].name })
	addrs := make([]uint64, len(members))
	for i, m := range members {
		if m.group != nil {
			addrs[i] = w.group(m.group)
		} else {
			addrs[i] = w.dataset(m.data)
		}
	}

	var msgs []msg
	if w.latest {
		li := []byte{0, 0}
		li = binary.LittleEndian.AppendUint64(li, undefined) // fractal heap
		li = binary.LittleEndian.AppendUint64(li, undefined) // name index
		msgs = append(msgs, msg{typ: 0x02, data: li})
		for i, m := range members {
			l := []byte{1, 0, byte(len(m.name))}
			l = append(l, m.name...)
			l = binary.LittleEndian.AppendUint64(l, addrs[i])
			msgs = append(msgs, msg{typ: 0x06, data: l})
		}
	} else {
		tree, heap := w.symbolTable(members, addrs)
		st := binary.LittleEndian.AppendUint64(nil, tree)
		st = binary.LittleEndian.AppendUint64(st, heap)
		msgs = append(msgs, msg{typ: 0x11, data: st})
	}
	msgs = append(msgs, w.attributes(g.attrs)...)
	return w.header(msgs)
}

// symbolTable writes the local heap, one symbol table node and a single-leaf
// B-tree, returning the B-tree and heap addresses.
func (w *writer) symbolTable(members []*member, addrs []uint64) (uint64, uint64) {
	le := binary.LittleEndian
	w.pad8()
	dataAddr := w.addr()
	data := make([]byte, 8) // offset 0 holds the empty name
	offsets := make([]uint64, len(members))
	for i, m := range members {
		offsets[i] = uint64(len(data))
		data = append(data, m.name...)
		data = append(data, 0)
		for len(data)%8 != 0 {
			data = append(data, 0)
		}
	}
	w.buf = append(w.buf, data...)

	heapAddr := w.addr()
	w.buf = append(w.buf, 'H', 'E', 'A', 'P', 0, 0, 0, 0)
	w.buf = le.AppendUint64(w.buf, uint64(len(data)))
	w.buf = le.AppendUint64(w.buf, undefined)
	w.buf = le.AppendUint64(w.buf, dataAddr)

	snodAddr := w.addr()
	w.buf = append(w.buf, 'S', 'N', 'O', 'D', 1, 0)
	w.buf = le.AppendUint16(w.buf, uint16(len(members)))
	for i := range members {
		w.buf = le.AppendUint64(w.buf, offsets[i])
		w.buf = le.AppendUint64(w.buf, addrs[i])
		w.buf = append(w.buf, make([]byte, 4+4+16)...)
	}

	treeAddr := w.addr()
	used := uint16(0)
	if len(members) > 0 {
		used = 1
	}
	w.buf = append(w.buf, 'T', 'R', 'E', 'E', 0, 0)
	w.buf = le.AppendUint16(w.buf, used)
	w.buf = le.AppendUint64(w.buf, undefined)
	w.buf = le.AppendUint64(w.buf, undefined)
	w.buf = le.AppendUint64(w.buf, 0)
	if used > 0 {
		w.buf = le.AppendUint64(w.buf, snodAddr)
		w.buf = le.AppendUint64(w.buf, offsets[len(offsets)-1])
	}
	return treeAddr, heapAddr
}

func (w *writer) dataset(d *dataset) uint64 {
	raw := d.raw
	if d.strs != nil {
		raw = w.strings(d.strs)
	}

	var layout []byte
	if d.compact {
		layout = []byte{3, 0}
		layout = binary.LittleEndian.AppendUint16(layout, uint16(len(raw)))
		layout = append(layout, raw...)
	} else {
		addr := undefined
		if len(raw) > 0 {
			w.pad8()
			addr = w.addr()
			w.buf = append(w.buf, raw...)
		}
		layout = []byte{3, 1}
		layout = binary.LittleEndian.AppendUint64(layout, addr)
		layout = binary.LittleEndian.AppendUint64(layout, uint64(len(raw)))
	}

	msgs := []msg{
		{typ: 0x01, data: w.dataspace(d.dims)},
		{typ: 0x03, data: d.datatype},
		{typ: 0x05, data: []byte{2, 2, 2, 0}}, // fill value, undefined
		{typ: 0x08, data: layout},
	}
	msgs = append(msgs, w.attributes(d.attrs)...)
	return w.header(msgs)
}

// strings writes one global heap collection holding ss and returns the
// variable-length elements referencing it.
func (w *writer) strings(ss []string) []byte {
	le := binary.LittleEndian
	w.pad8()
	addr := w.addr()
	var objs []byte
	for i, s := range ss {
		objs = le.AppendUint16(objs, uint16(i+1))
		objs = le.AppendUint16(objs, 1)
		objs = le.AppendUint32(objs, 0)
		objs = le.AppendUint64(objs, uint64(len(s)))
		objs = append(objs, s...)
		for len(objs)%8 != 0 {
			objs = append(objs, 0)
		}
	}
	objs = append(objs, make([]byte, 16)...) // free space, index 0

	w.buf = append(w.buf, 'G', 'C', 'O', 'L', 1, 0, 0, 0)
	w.buf = le.AppendUint64(w.buf, uint64(16+len(objs)))
	w.buf = append(w.buf, objs...)

	var raw []byte
	for i, s := range ss {
		raw = le.AppendUint32(raw, uint32(len(s)))
		raw = le.AppendUint64(raw, addr)
		raw = le.AppendUint32(raw, uint32(i+1))
	}
	return raw
}

func (w *writer) dataspace(dims []uint64) []byte {
	var b []byte
	if w.latest {
		typ := byte(1)
		if len(dims) == 0 {
			typ = 0
		}
		b = []byte{2, byte(len(dims)), 0, typ}
	} else {
		b = []byte{1, byte(len(dims)), 0, 0, 0, 0, 0, 0}
	}
	for _, d := range dims {
		b = binary.LittleEndian.AppendUint64(b, d)
	}
	return b
}

func (w *writer) attributes(attrs []attr) []msg {
	msgs := make([]msg, 0, len(attrs))
	for _, a := range attrs {
		var dt, value []byte
		switch v := a.value.(type) {
		case string:
			dt, value = stringType(), w.strings([]string{v})
		case int64:
			dt = intType(8, true)
			value = binary.LittleEndian.AppendUint64(nil, uint64(v))
		case float64:
			dt = floatType(8)
			value, _ = binary.Append(nil, binary.LittleEndian, v)
		default:
			panic(fmt.Sprintf("hdf5test: unsupported attribute %T", a.value))
		}
		space := w.dataspace(nil)
		name := append([]byte(a.name), 0)

		var b []byte
		field := func(p []byte) {
			b = append(b, p...)
			if !w.latest {
				for len(b)%8 != 0 {
					b = append(b, 0)
				}
			}
		}
		if w.latest {
			b = []byte{3, 0}
		} else {
			b = []byte{1, 0}
		}
		b = binary.LittleEndian.AppendUint16(b, uint16(len(name)))
		b = binary.LittleEndian.AppendUint16(b, uint16(len(dt)))
		b = binary.LittleEndian.AppendUint16(b, uint16(len(space)))
		if w.latest {
			b = append(b, 0) // ASCII name
		}
		field(name)
		field(dt)
		field(space)
		b = append(b, value...)
		msgs = append(msgs, msg{typ: 0x0C, data: b})
	}
	return msgs
}

type msg struct {
	typ  uint16
	data []byte
}

func (w *writer) header(msgs []msg) uint64 {
	le := binary.LittleEndian
	w.pad8()
	addr := w.addr()

	if w.latest {
		var body []byte
		for _, m := range msgs {
			body = append(body, byte(m.typ))
			body = le.AppendUint16(body, uint16(len(m.data)))
			body = append(body, 0)
			body = append(body, m.data...)
		}
		h := []byte{'O', 'H', 'D', 'R', 2, 0x02}
		h = le.AppendUint32(h, uint32(len(body)))
		h = append(h, body...)
		h = le.AppendUint32(h, binpkg.Lookup3Checksum(h))
		w.buf = append(w.buf, h...)
		return addr
	}

	var body []byte
	for _, m := range msgs {
		data := append([]byte(nil), m.data...)
		for len(data)%8 != 0 {
			data = append(data, 0)
		}
		body = le.AppendUint16(body, m.typ)
		body = le.AppendUint16(body, uint16(len(data)))
		body = append(body, 0, 0, 0, 0)
		body = append(body, data...)
	}
	w.buf = append(w.buf, 1, 0)
	w.buf = le.AppendUint16(w.buf, uint16(len(msgs)))
	w.buf = le.AppendUint32(w.buf, 1)
	w.buf = le.AppendUint32(w.buf, uint32(len(body)))
	w.buf = append(w.buf, 0, 0, 0, 0)
	w.buf = append(w.buf, body...)
	return addr
}

func intType(size uint32, signed bool) []byte {
	var flags byte
	if signed {
		flags = 0x08
	}
	b := []byte{0x10, flags, 0, 0}
	b = binary.LittleEndian.AppendUint32(b, size)
	b = binary.LittleEndian.AppendUint16(b, 0)
	return binary.LittleEndian.AppendUint16(b, uint16(size*8))
}

func floatType(size uint32) []byte {
	b := []byte{0x11, 0x20, byte(size*8 - 1), 0}
	b = binary.LittleEndian.AppendUint32(b, size)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, uint16(size*8))
	if size == 4 {
		b = append(b, 23, 8, 0, 23)
		return binary.LittleEndian.AppendUint32(b, 127)
	}
	b = append(b, 52, 11, 0, 52)
	return binary.LittleEndian.AppendUint32(b, 1023)
}

// stringType is a UTF-8 variable-length string whose base type is a
// single byte.
func stringType() []byte {
	b := []byte{0x19, 0x01, 0x01, 0}
	b = binary.LittleEndian.AppendUint32(b, 16)
	return append(b, intType(1, false)...)
}
