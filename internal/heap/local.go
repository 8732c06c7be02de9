// Package heap reads the two heap structures of HDF5 files: local heaps,
// which hold the member names of symbol-table groups, and global heap
// collections, which hold variable-length string payloads.
package heap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
)

// ErrInvalidHeap is returned for heaps with a bad signature or layout.
var ErrInvalidHeap = errors.New("invalid heap")

var localSignature = []byte{'H', 'E', 'A', 'P'}

// maxLocalHeapSize bounds the data segment read into memory.
const maxLocalHeapSize = 64 << 20

// Local is a local heap: a single data segment of NUL-terminated names.
type Local struct {
	Address     uint64
	DataAddress uint64
	data        []byte
}

// ReadLocal reads the local heap at address together with its data segment.
func ReadLocal(r *binary.Reader, address uint64) (*Local, error) {
	hr := r.At(int64(address))

	prefix, err := hr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading local heap at %d: %w", address, err)
	}
	if !bytes.Equal(prefix[:4], localSignature) {
		return nil, fmt.Errorf("%w: no local heap signature at %d", ErrInvalidHeap, address)
	}
	if prefix[4] != 0 {
		return nil, fmt.Errorf("%w: local heap version %d", ErrInvalidHeap, prefix[4])
	}

	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	if _, err := hr.ReadLength(); err != nil { // free list head
		return nil, err
	}
	dataAddr, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}
	if size > maxLocalHeapSize {
		return nil, fmt.Errorf("%w: local heap data segment of %d bytes", ErrInvalidHeap, size)
	}

	data, err := r.At(int64(dataAddr)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("reading local heap data: %w", err)
	}
	return &Local{Address: address, DataAddress: dataAddr, data: data}, nil
}

// String returns the NUL-terminated string at offset in the data segment.
func (h *Local) String(offset uint64) (string, error) {
	if offset >= uint64(len(h.data)) {
		return "", fmt.Errorf("%w: name offset %d outside %d-byte heap", ErrInvalidHeap, offset, len(h.data))
	}
	s := h.data[offset:]
	if end := bytes.IndexByte(s, 0); end >= 0 {
		s = s[:end]
	}
	return string(s), nil
}
