package hdf5

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"

	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
	"github.com/robert-malhotra/go-lnqm/internal/message"
)

const maxRank = 32

func parseDataspace(data []byte, cfg binpkg.Config) (*message.Dataspace, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: dataspace message of %d bytes", ErrCorrupt, len(data))
	}
	version, rank := data[0], int(data[1])
	var (
		pos  int
		null bool
	)
	switch version {
	case 1:
		pos = 8
	case 2:
		pos = 4
		null = data[3] == 2
	default:
		return nil, fmt.Errorf("%w: dataspace version %d", ErrUnsupported, version)
	}
	if rank > maxRank {
		return nil, fmt.Errorf("%w: rank %d exceeds maximum %d", ErrCorrupt, rank, maxRank)
	}
	if len(data) < pos+rank*cfg.LengthSize {
		return nil, fmt.Errorf("%w: dataspace message truncated", ErrCorrupt)
	}

	r := binpkg.NewBytesReader(data[pos:], cfg)
	dims := make([]uint64, rank)
	for i := range dims {
		dims[i], _ = r.ReadLength()
	}
	if null {
		return message.NewDataspace(0), nil
	}
	return message.NewDataspace(dims...), nil
}

// parseDatatype maps an HDF5 datatype onto the native one. Fixed-length
// strings map to a string datatype with a non-zero Size, which this package
// decodes as NUL-padded elements of that size.
func parseDatatype(data []byte) (*message.Datatype, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: datatype message of %d bytes", ErrCorrupt, len(data))
	}
	class := data[0] & 0x0F
	flags := uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16
	size := binary.LittleEndian.Uint32(data[4:8])

	order := message.OrderLE
	if flags&0x01 != 0 {
		order = message.OrderBE
	}
	switch class {
	case 0:
		return message.NewFixedPointDatatype(size, flags&0x08 != 0, order), nil
	case 1:
		if flags&0x40 != 0 {
			return nil, fmt.Errorf("%w: VAX floating-point order", ErrUnsupported)
		}
		return message.NewFloatDatatype(size, order), nil
	case 3:
		if size == 0 {
			return nil, fmt.Errorf("%w: zero-length string datatype", ErrCorrupt)
		}
		return &message.Datatype{
			Class:   message.ClassVarLenString,
			Size:    size,
			CharSet: message.CharacterSet((flags >> 4) & 0x0F),
		}, nil
	case 9:
		if flags&0x0F != 1 {
			return nil, fmt.Errorf("%w: variable-length sequence datatype", ErrUnsupported)
		}
		return message.NewVarLenStringDatatype(message.CharacterSet((flags >> 8) & 0x0F)), nil
	default:
		return nil, fmt.Errorf("%w: datatype class %d", ErrUnsupported, class)
	}
}

// parseLayout reads version 3 and 4 layout messages. Storage that was never
// allocated is only accepted when empty.
func parseLayout(data []byte, cfg binpkg.Config) (*message.Layout, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: layout message of %d bytes", ErrCorrupt, len(data))
	}
	if v := data[0]; v < 3 || v > 4 {
		return nil, fmt.Errorf("%w: layout version %d", ErrUnsupported, v)
	}
	r := binpkg.NewBytesReader(data[2:], cfg)

	switch class := data[1]; class {
	case 0:
		n, err := r.ReadUint16()
		if err != nil {
			return nil, fmt.Errorf("%w: compact layout: %w", ErrCorrupt, err)
		}
		stored, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("%w: compact layout: %w", ErrCorrupt, err)
		}
		return message.NewCompactLayout(stored, uint64(n)), nil
	case 1:
		addr, err := r.ReadOffset()
		if err != nil {
			return nil, fmt.Errorf("%w: contiguous layout: %w", ErrCorrupt, err)
		}
		size, err := r.ReadLength()
		if err != nil {
			return nil, fmt.Errorf("%w: contiguous layout: %w", ErrCorrupt, err)
		}
		if r.IsUndefinedOffset(addr) {
			if size != 0 {
				return nil, fmt.Errorf("%w: %d bytes of unallocated storage", ErrUnsupported, size)
			}
			return message.NewCompactLayout(nil, 0), nil
		}
		return message.NewContiguousLayout(addr, size, size), nil
	case 2:
		return nil, fmt.Errorf("%w: chunked storage", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: layout class %d", ErrUnsupported, class)
	}
}

// parseLink reads a link message. Soft and external links yield nil.
func parseLink(data []byte, cfg binpkg.Config) (*message.Link, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: link message of %d bytes", ErrCorrupt, len(data))
	}
	if data[0] != 1 {
		return nil, fmt.Errorf("%w: link message version %d", ErrUnsupported, data[0])
	}
	flags := data[1]
	r := binpkg.NewBytesReader(data[2:], cfg)

	var linkType uint8
	if flags&0x08 != 0 {
		linkType, _ = r.ReadUint8()
	}
	if flags&0x04 != 0 {
		r.Skip(8) // creation order
	}
	if flags&0x10 != 0 {
		r.Skip(1) // name charset
	}
	nameLen, err := r.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, fmt.Errorf("%w: link name length: %w", ErrCorrupt, err)
	}
	if nameLen == 0 || nameLen > uint64(len(data)) {
		return nil, fmt.Errorf("%w: link name of %d bytes", ErrCorrupt, nameLen)
	}
	name, err := r.ReadBytes(int(nameLen))
	if err != nil {
		return nil, fmt.Errorf("%w: link name: %w", ErrCorrupt, err)
	}
	if linkType != 0 {
		return nil, nil
	}
	addr, err := r.ReadOffset()
	if err != nil {
		return nil, fmt.Errorf("%w: link %q address: %w", ErrCorrupt, name, err)
	}
	return message.NewHardLink(string(name), addr), nil
}

// checkLinkInfo rejects groups whose links live in a fractal heap.
func checkLinkInfo(data []byte, cfg binpkg.Config) error {
	if len(data) < 2 {
		return fmt.Errorf("%w: link info message of %d bytes", ErrCorrupt, len(data))
	}
	r := binpkg.NewBytesReader(data[2:], cfg)
	if data[1]&0x01 != 0 {
		r.Skip(8) // maximum creation index
	}
	heapAddr, err := r.ReadOffset()
	if err != nil {
		return fmt.Errorf("%w: link info: %w", ErrCorrupt, err)
	}
	if !r.IsUndefinedOffset(heapAddr) {
		return fmt.Errorf("%w: dense link storage", ErrUnsupported)
	}
	return nil
}

// attribute is a parsed attribute message whose value is still in HDF5
// encoding.
type attribute struct {
	name      string
	datatype  *message.Datatype
	dataspace *message.Dataspace
	value     []byte
}

// parseAttribute reads versions 1 to 3. Version 1 pads the name, datatype
// and dataspace to multiples of 8 bytes.
func parseAttribute(data []byte, cfg binpkg.Config, elemSize func(*message.Datatype) uint64) (*attribute, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: attribute message of %d bytes", ErrCorrupt, len(data))
	}
	version, flags := data[0], data[1]
	nameSize := int(binary.LittleEndian.Uint16(data[2:]))
	typeSize := int(binary.LittleEndian.Uint16(data[4:]))
	spaceSize := int(binary.LittleEndian.Uint16(data[6:]))

	pos, align := 8, 1
	switch version {
	case 1:
		align = 8
	case 2:
	case 3:
		pos = 9
	default:
		return nil, fmt.Errorf("%w: attribute version %d", ErrUnsupported, version)
	}
	if version > 1 && flags&0x03 != 0 {
		return nil, fmt.Errorf("%w: shared attribute datatype or dataspace", ErrUnsupported)
	}

	field := func(n int) ([]byte, error) {
		padded := (n + align - 1) / align * align
		if pos+padded > len(data) {
			return nil, fmt.Errorf("%w: attribute message truncated", ErrCorrupt)
		}
		b := data[pos : pos+n]
		pos += padded
		return b, nil
	}
	rawName, err := field(nameSize)
	if err != nil {
		return nil, err
	}
	rawType, err := field(typeSize)
	if err != nil {
		return nil, err
	}
	rawSpace, err := field(spaceSize)
	if err != nil {
		return nil, err
	}

	a := &attribute{name: string(bytes.TrimRight(rawName, "\x00"))}
	if a.datatype, err = parseDatatype(rawType); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.name, err)
	}
	if a.dataspace, err = parseDataspace(rawSpace, cfg); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.name, err)
	}
	n, err := a.dataspace.NumElements()
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %q: %w", ErrCorrupt, a.name, err)
	}
	hi, need := bits.Mul64(n, elemSize(a.datatype))
	if hi != 0 || need > uint64(len(data)-pos) {
		return nil, fmt.Errorf("%w: attribute %q value truncated", ErrCorrupt, a.name)
	}
	a.value = data[pos : pos+int(need)]
	return a, nil
}
