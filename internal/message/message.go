package message

import (
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
)

// Type identifies a header message.
type Type uint16

// Header message types.
const (
	TypeNIL            Type = 0x0000
	TypeDataspace      Type = 0x0001
	TypeDatatype       Type = 0x0003
	TypeLink           Type = 0x0006
	TypeLayout         Type = 0x0008
	TypeFilterPipeline Type = 0x000B
	TypeAttribute      Type = 0x000C
)

func (t Type) String() string {
	switch t {
	case TypeNIL:
		return "nil"
	case TypeDataspace:
		return "dataspace"
	case TypeDatatype:
		return "datatype"
	case TypeLink:
		return "link"
	case TypeLayout:
		return "layout"
	case TypeFilterPipeline:
		return "filter-pipeline"
	case TypeAttribute:
		return "attribute"
	default:
		return fmt.Sprintf("type(0x%04x)", uint16(t))
	}
}

// Message is the interface implemented by all header messages.
type Message interface {
	Type() Type
}

// Serializable is implemented by messages that can be written.
type Serializable interface {
	Message
	// Serialize writes the message body to w.
	Serialize(w *binary.Writer) error
	// SerializedSize returns the body size in bytes for the given configuration.
	SerializedSize(cfg binary.Config) int
}

// Parse decodes a message body. The reader configuration supplies the
// offset and length widths.
func Parse(typ Type, data []byte, cfg binary.Config) (Message, error) {
	r := binary.NewBytesReader(data, cfg)
	var (
		msg Message
		err error
	)
	switch typ {
	case TypeDataspace:
		msg, err = parseDataspace(r)
	case TypeDatatype:
		msg, err = parseDatatype(r)
	case TypeLink:
		msg, err = parseLink(r)
	case TypeLayout:
		msg, err = parseLayout(r)
	case TypeFilterPipeline:
		msg, err = parseFilterPipeline(r)
	case TypeAttribute:
		msg, err = parseAttribute(r)
	default:
		return &Unknown{typ: typ, data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s message: %w", typ, err)
	}
	return msg, nil
}

// Unknown represents an unrecognized message type.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Serialize writes the preserved body unchanged.
func (m *Unknown) Serialize(w *binary.Writer) error {
	return w.WriteBytes(m.data)
}

// SerializedSize returns the preserved body size.
func (m *Unknown) SerializedSize(binary.Config) int {
	return len(m.data)
}
