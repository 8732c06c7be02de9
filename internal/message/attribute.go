package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
)

// Attribute is a small named value attached to a group or blob. Data holds
// the encoded elements in the attribute's own datatype.
type Attribute struct {
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// Serialize writes name, datatype, dataspace and the length-prefixed value.
func (m *Attribute) Serialize(w *binary.Writer) error {
	if m.Datatype == nil || m.Dataspace == nil {
		return fmt.Errorf("attribute %q: missing datatype or dataspace", m.Name)
	}
	if len(m.Name) > 0xFFFF {
		return errors.New("attribute name too long")
	}
	if err := w.WriteString(m.Name); err != nil {
		return err
	}
	if err := m.Datatype.Serialize(w); err != nil {
		return err
	}
	if err := m.Dataspace.Serialize(w); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(len(m.Data))); err != nil {
		return err
	}
	return w.WriteBytes(m.Data)
}

// SerializedSize returns the encoded size.
func (m *Attribute) SerializedSize(cfg binary.Config) int {
	return 2 + len(m.Name) +
		m.Datatype.SerializedSize(cfg) +
		m.Dataspace.SerializedSize(cfg) +
		4 + len(m.Data)
}

func parseAttribute(r *binary.Reader) (*Attribute, error) {
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	dt, err := parseDatatype(r)
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", name, err)
	}
	ds, err := parseDataspace(r)
	if err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", name, err)
	}
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	return &Attribute{Name: name, Datatype: dt, Dataspace: ds, Data: data}, nil
}
