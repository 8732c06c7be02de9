package message

import (
	"errors"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
)

// Link names a member of a group and points at its object header.
type Link struct {
	Name          string
	ObjectAddress uint64
}

func (m *Link) Type() Type { return TypeLink }

// NewHardLink creates a link to the object header at addr.
func NewHardLink(name string, addr uint64) *Link {
	return &Link{Name: name, ObjectAddress: addr}
}

// Serialize writes the length-prefixed name followed by the address.
func (m *Link) Serialize(w *binary.Writer) error {
	if len(m.Name) > 0xFFFF {
		return errors.New("link name too long")
	}
	if err := w.WriteString(m.Name); err != nil {
		return err
	}
	return w.WriteOffset(m.ObjectAddress)
}

// SerializedSize returns the encoded size.
func (m *Link) SerializedSize(cfg binary.Config) int {
	return 2 + len(m.Name) + cfg.OffsetSize
}

func parseLink(r *binary.Reader) (*Link, error) {
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("empty link name")
	}
	addr, err := r.ReadOffset()
	if err != nil {
		return nil, err
	}
	return &Link{Name: name, ObjectAddress: addr}, nil
}
