package message

import (
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
)

// DatatypeClass is the class of a datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint   DatatypeClass = 0 // Integers
	ClassFloatPoint   DatatypeClass = 1 // IEEE 754 floating point
	ClassVarLenString DatatypeClass = 9 // Variable-length strings
)

func (c DatatypeClass) String() string {
	switch c {
	case ClassFixedPoint:
		return "fixed-point"
	case ClassFloatPoint:
		return "float"
	case ClassVarLenString:
		return "string"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// ByteOrder is the byte order of numeric elements.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// CharacterSet is the encoding of string elements.
type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

const (
	flagSigned    = 0x01
	flagBigEndian = 0x02
)

// Datatype describes the element type of a blob or attribute.
type Datatype struct {
	Class     DatatypeClass
	Size      uint32 // Element size in bytes; 0 for variable-length strings.
	Signed    bool   // Fixed-point only.
	ByteOrder ByteOrder
	CharSet   CharacterSet // Strings only.
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsInteger reports whether the datatype is an integer type.
func (m *Datatype) IsInteger() bool { return m.Class == ClassFixedPoint }

// IsFloat reports whether the datatype is a floating-point type.
func (m *Datatype) IsFloat() bool { return m.Class == ClassFloatPoint }

// IsString reports whether the datatype is a variable-length string.
func (m *Datatype) IsString() bool { return m.Class == ClassVarLenString }

// Equal reports whether two datatypes describe the same element encoding.
func (m *Datatype) Equal(o *Datatype) bool {
	if m == nil || o == nil {
		return m == o
	}
	return *m == *o
}

// String renders the datatype in the numpy-like short form used by the CLI
// (for example "uint64", "float32", "string").
func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixedPoint:
		if m.Signed {
			return fmt.Sprintf("int%d", m.Size*8)
		}
		return fmt.Sprintf("uint%d", m.Size*8)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassVarLenString:
		return "string"
	default:
		return m.Class.String()
	}
}

// NewFixedPointDatatype creates an integer datatype.
func NewFixedPointDatatype(size uint32, signed bool, order ByteOrder) *Datatype {
	return &Datatype{Class: ClassFixedPoint, Size: size, Signed: signed, ByteOrder: order}
}

// NewFloatDatatype creates an IEEE 754 floating-point datatype.
func NewFloatDatatype(size uint32, order ByteOrder) *Datatype {
	return &Datatype{Class: ClassFloatPoint, Size: size, ByteOrder: order}
}

// NewVarLenStringDatatype creates a variable-length string datatype.
func NewVarLenStringDatatype(charset CharacterSet) *Datatype {
	return &Datatype{Class: ClassVarLenString, CharSet: charset}
}

// Serialize writes class(1) flags(1) charset(1) size(4).
func (m *Datatype) Serialize(w *binary.Writer) error {
	var flags uint8
	if m.Signed {
		flags |= flagSigned
	}
	if m.ByteOrder == OrderBE {
		flags |= flagBigEndian
	}
	if err := w.WriteUint8(uint8(m.Class)); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(m.CharSet)); err != nil {
		return err
	}
	return w.WriteUint32(m.Size)
}

// SerializedSize returns the encoded size.
func (m *Datatype) SerializedSize(binary.Config) int { return 7 }

func parseDatatype(r *binary.Reader) (*Datatype, error) {
	class, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	charset, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	dt := &Datatype{
		Class:   DatatypeClass(class),
		Size:    size,
		Signed:  flags&flagSigned != 0,
		CharSet: CharacterSet(charset),
	}
	if flags&flagBigEndian != 0 {
		dt.ByteOrder = OrderBE
	}

	switch dt.Class {
	case ClassFixedPoint:
		if size != 1 && size != 2 && size != 4 && size != 8 {
			return nil, fmt.Errorf("invalid integer size %d", size)
		}
	case ClassFloatPoint:
		if size != 4 && size != 8 {
			return nil, fmt.Errorf("invalid float size %d", size)
		}
	case ClassVarLenString:
	default:
		// Unknown classes are kept so callers can report them precisely.
	}
	return dt, nil
}
