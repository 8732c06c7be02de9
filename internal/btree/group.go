// Package btree walks the version 1 B-trees that index the members of HDF5
// symbol-table groups.
package btree

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
	"github.com/robert-malhotra/go-lnqm/internal/heap"
)

// ErrInvalidNode is returned for nodes with a bad signature or layout.
var ErrInvalidNode = errors.New("invalid group B-tree node")

var (
	treeSignature = []byte{'T', 'R', 'E', 'E'}
	snodSignature = []byte{'S', 'N', 'O', 'D'}
)

// maxDepth bounds recursion through internal nodes.
const maxDepth = 64

// Symbol table entry cache types.
const (
	cacheNone     uint32 = 0
	cacheGroup    uint32 = 1
	cacheSoftLink uint32 = 2
)

// Entry is one member of a symbol-table group.
type Entry struct {
	Name          string
	ObjectAddress uint64
	SoftLink      bool
}

// ReadGroup returns the members indexed by the group B-tree at address, in
// key order. Names are resolved through names.
func ReadGroup(r *binary.Reader, address uint64, names *heap.Local) ([]Entry, error) {
	w := walker{r: r, names: names, seen: make(map[uint64]bool)}
	if err := w.node(address, 0); err != nil {
		return nil, err
	}
	return w.entries, nil
}

type walker struct {
	r       *binary.Reader
	names   *heap.Local
	seen    map[uint64]bool
	entries []Entry
}

func (w *walker) node(address uint64, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: deeper than %d levels", ErrInvalidNode, maxDepth)
	}
	if w.seen[address] {
		return fmt.Errorf("%w: node %d visited twice", ErrInvalidNode, address)
	}
	w.seen[address] = true

	nr := w.r.At(int64(address))
	prefix, err := nr.ReadBytes(8)
	if err != nil {
		return fmt.Errorf("reading B-tree node at %d: %w", address, err)
	}
	if !bytes.Equal(prefix[:4], treeSignature) {
		return fmt.Errorf("%w: no signature at %d", ErrInvalidNode, address)
	}
	if prefix[4] != 0 {
		return fmt.Errorf("%w: node type %d is not a group node", ErrInvalidNode, prefix[4])
	}
	level := prefix[5]
	used := int(w.r.ByteOrder().Uint16(prefix[6:8]))
	nr.Skip(int64(2 * w.r.OffsetSize())) // siblings

	for i := 0; i < used; i++ {
		nr.Skip(int64(w.r.LengthSize())) // key
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		if level == 0 {
			err = w.symbolNode(child)
		} else {
			err = w.node(child, depth+1)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) symbolNode(address uint64) error {
	nr := w.r.At(int64(address))
	prefix, err := nr.ReadBytes(8)
	if err != nil {
		return fmt.Errorf("reading symbol table node at %d: %w", address, err)
	}
	if !bytes.Equal(prefix[:4], snodSignature) {
		return fmt.Errorf("%w: no symbol table node signature at %d", ErrInvalidNode, address)
	}
	if prefix[4] != 1 {
		return fmt.Errorf("%w: symbol table node version %d", ErrInvalidNode, prefix[4])
	}
	count := int(w.r.ByteOrder().Uint16(prefix[6:8]))

	for i := 0; i < count; i++ {
		nameOffset, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		addr, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		cache, err := nr.ReadUint32()
		if err != nil {
			return err
		}
		nr.Skip(4 + 16) // reserved, scratch pad

		name, err := w.names.String(nameOffset)
		if err != nil {
			return err
		}
		if name == "" {
			continue
		}
		switch cache {
		case cacheNone, cacheGroup, cacheSoftLink:
		default:
			return fmt.Errorf("%w: entry %q has cache type %d", ErrInvalidNode, name, cache)
		}
		w.entries = append(w.entries, Entry{
			Name:          name,
			ObjectAddress: addr,
			SoftLink:      cache == cacheSoftLink,
		})
	}
	return nil
}
