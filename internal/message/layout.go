package message

import (
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
)

// LayoutClass selects how blob data is stored.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0 // Data stored inside the message.
	LayoutContiguous LayoutClass = 1 // Data stored in one run of the file.
)

// Layout locates the encoded bytes of a blob.
//
// StoredSize is the number of bytes after the filter pipeline ran, RawSize
// the number before. They are equal for unfiltered blobs.
type Layout struct {
	Class       LayoutClass
	Address     uint64 // Contiguous only.
	StoredSize  uint64
	RawSize     uint64
	CompactData []byte // Compact only.
}

func (m *Layout) Type() Type { return TypeLayout }

// NewContiguousLayout creates a contiguous layout.
func NewContiguousLayout(addr, stored, raw uint64) *Layout {
	return &Layout{Class: LayoutContiguous, Address: addr, StoredSize: stored, RawSize: raw}
}

// NewCompactLayout creates a layout holding data inline.
func NewCompactLayout(stored []byte, raw uint64) *Layout {
	return &Layout{Class: LayoutCompact, StoredSize: uint64(len(stored)), RawSize: raw, CompactData: stored}
}

// Serialize writes class(1) then the class-specific fields.
func (m *Layout) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(uint8(m.Class)); err != nil {
		return err
	}
	switch m.Class {
	case LayoutCompact:
		if err := w.WriteLength(m.RawSize); err != nil {
			return err
		}
		if err := w.WriteUint32(uint32(len(m.CompactData))); err != nil {
			return err
		}
		return w.WriteBytes(m.CompactData)
	case LayoutContiguous:
		if err := w.WriteOffset(m.Address); err != nil {
			return err
		}
		if err := w.WriteLength(m.StoredSize); err != nil {
			return err
		}
		return w.WriteLength(m.RawSize)
	default:
		return fmt.Errorf("unknown layout class %d", m.Class)
	}
}

// SerializedSize returns the encoded size.
func (m *Layout) SerializedSize(cfg binary.Config) int {
	switch m.Class {
	case LayoutCompact:
		return 1 + cfg.LengthSize + 4 + len(m.CompactData)
	default:
		return 1 + cfg.OffsetSize + 2*cfg.LengthSize
	}
}

func parseLayout(r *binary.Reader) (*Layout, error) {
	class, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	m := &Layout{Class: LayoutClass(class)}
	switch m.Class {
	case LayoutCompact:
		if m.RawSize, err = r.ReadLength(); err != nil {
			return nil, err
		}
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if m.CompactData, err = r.ReadBytes(int(n)); err != nil {
			return nil, err
		}
		m.StoredSize = uint64(n)
	case LayoutContiguous:
		if m.Address, err = r.ReadOffset(); err != nil {
			return nil, err
		}
		if m.StoredSize, err = r.ReadLength(); err != nil {
			return nil, err
		}
		if m.RawSize, err = r.ReadLength(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown layout class %d", class)
	}
	return m, nil
}
