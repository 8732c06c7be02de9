package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
)

var globalSignature = []byte{'G', 'C', 'O', 'L'}

// maxCollectionSize bounds a global heap collection read into memory.
const maxCollectionSize = 1 << 30

// Global is a global heap collection.
type Global struct {
	Address uint64
	objects map[uint16][]byte
}

// ID references one object of a global heap collection. Variable-length
// elements store it after their length.
type ID struct {
	Collection uint64
	Index      uint32
}

// ReadGlobal reads the global heap collection at address.
func ReadGlobal(r *binary.Reader, address uint64) (*Global, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("%w: global heap address %d", ErrInvalidHeap, address)
	}
	hr := r.At(int64(address))

	prefix, err := hr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading global heap at %d: %w", address, err)
	}
	if !bytes.Equal(prefix[:4], globalSignature) {
		return nil, fmt.Errorf("%w: no global heap signature at %d", ErrInvalidHeap, address)
	}
	if prefix[4] != 1 {
		return nil, fmt.Errorf("%w: global heap version %d", ErrInvalidHeap, prefix[4])
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	headerSize := uint64(8 + r.LengthSize())
	if size < headerSize || size > maxCollectionSize {
		return nil, fmt.Errorf("%w: global heap collection of %d bytes", ErrInvalidHeap, size)
	}

	// The collection is read whole so that a short file fails here rather
	// than in the middle of an object.
	body, err := hr.ReadBytes(int(size - headerSize))
	if err != nil {
		return nil, fmt.Errorf("reading global heap collection: %w", err)
	}
	br := binary.NewBytesReader(body, r.Config())
	objHeader := int64(8 + r.LengthSize())

	g := &Global{Address: address, objects: make(map[uint16][]byte)}
	for br.Remaining() >= objHeader {
		index, _ := br.ReadUint16()
		if index == 0 { // free space runs to the end
			break
		}
		br.Skip(6) // reference count, reserved
		n, _ := br.ReadLength()
		if n > uint64(br.Remaining()) {
			return nil, fmt.Errorf("%w: global heap object %d of %d bytes overruns collection", ErrInvalidHeap, index, n)
		}
		data, err := br.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		g.objects[index] = data
		if pad := int64((8 - n%8) % 8); pad <= br.Remaining() {
			br.Skip(pad)
		} else {
			break
		}
	}
	return g, nil
}

// Object returns the payload of object index. The result must not be
// modified.
func (g *Global) Object(index uint32) ([]byte, error) {
	data, ok := g.objects[uint16(index)]
	if !ok || index > 0xFFFF {
		return nil, fmt.Errorf("%w: no object %d in global heap %d", ErrInvalidHeap, index, g.Address)
	}
	return data, nil
}

// ParseID decodes a global heap ID: a collection address followed by a
// 4-byte object index.
func ParseID(data []byte, cfg binary.Config) (ID, error) {
	if len(data) < cfg.OffsetSize+4 {
		return ID{}, fmt.Errorf("%w: heap ID of %d bytes", ErrInvalidHeap, len(data))
	}
	r := binary.NewBytesReader(data, cfg)
	addr, err := r.ReadOffset()
	if err != nil {
		return ID{}, err
	}
	index, err := r.ReadUint32()
	if err != nil {
		return ID{}, err
	}
	return ID{Collection: addr, Index: index}, nil
}
