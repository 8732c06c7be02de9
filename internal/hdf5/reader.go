package hdf5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
	"github.com/robert-malhotra/go-lnqm/internal/btree"
	"github.com/robert-malhotra/go-lnqm/internal/dtype"
	"github.com/robert-malhotra/go-lnqm/internal/heap"
	"github.com/robert-malhotra/go-lnqm/internal/message"
	"github.com/robert-malhotra/go-lnqm/internal/object"
)

// Errors
var (
	ErrNotHDF5          = errors.New("not an HDF5 file: signature not found")
	ErrCorrupt          = errors.New("invalid HDF5 structure")
	ErrUnsupported      = errors.New("unsupported HDF5 feature")
	ErrChecksumMismatch = errors.New("HDF5 checksum mismatch")
)

// Reader reads object headers from an HDF5 file.
type Reader struct {
	sb   *Superblock
	data *binpkg.Reader
}

// Open reads the superblock of r. All later reads go through the returned
// Reader, whose addresses are relative to the superblock's base address.
func Open(r io.ReaderAt) (*Reader, error) {
	sb, err := ReadSuperblock(r)
	if err != nil {
		return nil, err
	}
	base := int64(sb.BaseAddress)
	src := io.NewSectionReader(r, base, math.MaxInt64-base)
	return &Reader{sb: sb, data: binpkg.NewReader(src, sb.Config)}, nil
}

// Superblock returns the parsed superblock.
func (r *Reader) Superblock() *Superblock { return r.sb }

// Data returns a reader over the file with addresses relative to the base
// address, for reading contiguous storage.
func (r *Reader) Data() *binpkg.Reader { return r.data }

// ReadHeader reads the object at address and converts it to a native header.
// Objects holding a symbol table, link messages or link info are groups;
// objects with a datatype and a layout are blobs. Attributes of a type this
// package cannot decode are left out.
func (r *Reader) ReadHeader(address uint64) (*object.Header, error) {
	raws, err := r.readMessages(address)
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}

	h := &object.Header{Address: address}
	heaps := make(map[uint64]*heap.Global)
	var group bool
	for _, m := range raws {
		if m.flags&flagShared != 0 {
			if m.typ == msgDatatype || m.typ == msgDataspace {
				return nil, fmt.Errorf("object header at %d: %w: shared message 0x%x", address, ErrUnsupported, m.typ)
			}
			continue
		}

		var msg message.Message
		switch m.typ {
		case msgDataspace:
			msg, err = parseDataspace(m.data, r.sb.Config)
		case msgDatatype:
			msg, err = parseDatatype(m.data)
		case msgLayout:
			msg, err = parseLayout(m.data, r.sb.Config)
		case msgAttribute:
			var a *message.Attribute
			a, err = r.attribute(m.data, heaps)
			if errors.Is(err, ErrUnsupported) {
				continue
			}
			if a != nil {
				msg = a
			}
		case msgSymbolTable:
			group = true
			var links []*message.Link
			if links, err = r.symbolTable(m.data); err == nil {
				for _, l := range links {
					h.Messages = append(h.Messages, l)
				}
			}
		case msgLink:
			group = true
			var l *message.Link
			if l, err = parseLink(m.data, r.sb.Config); l != nil {
				msg = l
			}
		case msgLinkInfo:
			group = true
			err = checkLinkInfo(m.data, r.sb.Config)
		}
		if err != nil {
			return nil, fmt.Errorf("object header at %d: %w", address, err)
		}
		if msg != nil {
			h.Messages = append(h.Messages, msg)
		}
	}

	switch {
	case group:
		h.Kind = object.KindGroup
	case h.Datatype() != nil && h.Layout() != nil:
		h.Kind = object.KindBlob
	default:
		return nil, fmt.Errorf("%w: object at %d is neither a group nor a dataset", ErrUnsupported, address)
	}
	return h, nil
}

// symbolTable lists the members of a symbol-table group. Soft links and
// entries without an object are skipped.
func (r *Reader) symbolTable(data []byte) ([]*message.Link, error) {
	mr := binpkg.NewBytesReader(data, r.sb.Config)
	treeAddr, err := mr.ReadOffset()
	if err != nil {
		return nil, fmt.Errorf("%w: symbol table message: %w", ErrCorrupt, err)
	}
	heapAddr, err := mr.ReadOffset()
	if err != nil {
		return nil, fmt.Errorf("%w: symbol table message: %w", ErrCorrupt, err)
	}

	names, err := heap.ReadLocal(r.data, heapAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	entries, err := btree.ReadGroup(r.data, treeAddr, names)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	links := make([]*message.Link, 0, len(entries))
	for _, e := range entries {
		if e.SoftLink || r.data.IsUndefinedOffset(e.ObjectAddress) {
			continue
		}
		links = append(links, message.NewHardLink(e.Name, e.ObjectAddress))
	}
	return links, nil
}

// attribute converts an attribute message. String values are re-encoded in
// the native length-prefixed form so that callers decode them like any
// other string attribute.
func (r *Reader) attribute(data []byte, heaps map[uint64]*heap.Global) (*message.Attribute, error) {
	a, err := parseAttribute(data, r.sb.Config, r.elementSize)
	if err != nil {
		return nil, err
	}
	out := &message.Attribute{Name: a.name, Datatype: a.datatype, Dataspace: a.dataspace, Data: a.value}
	if !a.datatype.IsString() {
		return out, nil
	}

	n, _ := a.dataspace.NumElements()
	ss, err := r.decodeStrings(a.datatype, a.value, n, heaps)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.name, err)
	}
	if out.Data, err = dtype.EncodeStrings(ss); err != nil {
		return nil, fmt.Errorf("%w: attribute %q: %w", ErrUnsupported, a.name, err)
	}
	out.Datatype = message.NewVarLenStringDatatype(a.datatype.CharSet)
	return out, nil
}

// elementSize returns the stored size of one element. A variable-length
// element is a length followed by a global heap ID.
func (r *Reader) elementSize(dt *message.Datatype) uint64 {
	if dt.IsString() && dt.Size == 0 {
		return uint64(4 + r.sb.Config.OffsetSize + 4)
	}
	return uint64(dt.Size)
}

// DecodeStrings decodes n stored string elements of datatype dt.
func (r *Reader) DecodeStrings(dt *message.Datatype, raw []byte, n uint64) ([]string, error) {
	return r.decodeStrings(dt, raw, n, make(map[uint64]*heap.Global))
}

func (r *Reader) decodeStrings(dt *message.Datatype, raw []byte, n uint64, heaps map[uint64]*heap.Global) ([]string, error) {
	if !dt.IsString() {
		return nil, fmt.Errorf("datatype %s is not a string", dt)
	}
	size := r.elementSize(dt)
	if hi, need := bits.Mul64(n, size); hi != 0 || need != uint64(len(raw)) {
		return nil, fmt.Errorf("%w: %d bytes for %d strings of %d bytes", ErrCorrupt, len(raw), n, size)
	}

	out := make([]string, n)
	for i := range out {
		elem := raw[uint64(i)*size : uint64(i+1)*size]
		if dt.Size > 0 {
			if end := bytes.IndexByte(elem, 0); end >= 0 {
				elem = elem[:end]
			}
			out[i] = string(elem)
			continue
		}

		length := binary.LittleEndian.Uint32(elem)
		if length == 0 {
			continue
		}
		id, err := heap.ParseID(elem[4:], r.sb.Config)
		if err != nil {
			return nil, fmt.Errorf("%w: string %d: %w", ErrCorrupt, i, err)
		}
		g, ok := heaps[id.Collection]
		if !ok {
			if g, err = heap.ReadGlobal(r.data, id.Collection); err != nil {
				return nil, fmt.Errorf("%w: string %d: %w", ErrCorrupt, i, err)
			}
			heaps[id.Collection] = g
		}
		obj, err := g.Object(id.Index)
		if err != nil {
			return nil, fmt.Errorf("%w: string %d: %w", ErrCorrupt, i, err)
		}
		if uint64(length) > uint64(len(obj)) {
			return nil, fmt.Errorf("%w: string %d of %d bytes in a %d-byte heap object", ErrCorrupt, i, length, len(obj))
		}
		out[i] = string(obj[:length])
	}
	return out, nil
}
