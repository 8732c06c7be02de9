package lnqm

import (
	"fmt"
	"slices"
)

// Kind distinguishes numeric fields from text fields.
type Kind uint8

const (
	KindNumeric Kind = iota
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses "numeric" or "text".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "numeric", "":
		return KindNumeric, nil
	case "text":
		return KindText, nil
	default:
		return 0, fmt.Errorf("unknown field kind %q", s)
	}
}

// ElemType is the in-memory element type of a numeric buffer.
type ElemType uint8

const (
	// ElemAny leaves the element type open; the first value appended to a
	// Builder fixes it.
	ElemAny ElemType = iota
	ElemFloat64
	ElemFloat32
	ElemInt64
)

func (e ElemType) String() string {
	switch e {
	case ElemAny:
		return "any"
	case ElemFloat64:
		return "float64"
	case ElemFloat32:
		return "float32"
	case ElemInt64:
		return "int64"
	default:
		return fmt.Sprintf("ElemType(%d)", uint8(e))
	}
}

// ParseElemType parses an element type name as printed by String.
func ParseElemType(s string) (ElemType, error) {
	switch s {
	case "", "any":
		return ElemAny, nil
	case "float64":
		return ElemFloat64, nil
	case "float32":
		return ElemFloat32, nil
	case "int64":
		return ElemInt64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedElementType, s)
	}
}

// Field describes one named column of a dataset.
type Field struct {
	Name string
	Kind Kind
	// Elem is the numeric element type. It is ElemAny for text fields.
	Elem ElemType
	// Stride is the number of buffer elements per offset unit, e.g. 3 for
	// per-atom xyz data. Zero means 1.
	Stride      int
	Unit        string
	Description string
}

// Numeric returns a numeric field with stride 1.
func Numeric(name string, elem ElemType) Field {
	return Field{Name: name, Kind: KindNumeric, Elem: elem, Stride: 1}
}

// Text returns a text field.
func Text(name string) Field {
	return Field{Name: name, Kind: KindText, Stride: 1}
}

// WithStride returns a copy of f with the given stride.
func (f Field) WithStride(stride int) Field {
	f.Stride = stride
	return f
}

// WithUnit returns a copy of f with the given unit.
func (f Field) WithUnit(unit string) Field {
	f.Unit = unit
	return f
}

// WithDescription returns a copy of f with the given description.
func (f Field) WithDescription(desc string) Field {
	f.Description = desc
	return f
}

// IsText reports whether the field holds one string per sample.
func (f Field) IsText() bool {
	return f.Kind == KindText
}

func (f Field) stride() int {
	if f.Stride <= 0 {
		return 1
	}
	return f.Stride
}

// Schema is an ordered set of fields with unique names.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema creates a schema from fields, in order.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		switch {
		case f.Name == "":
			return nil, fmt.Errorf("%w: empty field name", ErrSchemaMismatch)
		case f.Stride < 0:
			return nil, fieldErr(f.Name, fmt.Errorf("%w: negative stride %d", ErrSchemaMismatch, f.Stride))
		case f.Kind != KindNumeric && f.Kind != KindText:
			return nil, fieldErr(f.Name, fmt.Errorf("%w: %v", ErrSchemaMismatch, f.Kind))
		case f.Elem > ElemInt64:
			return nil, fieldErr(f.Name, fmt.Errorf("%w: %v", ErrUnsupportedElementType, f.Elem))
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fieldErr(f.Name, fmt.Errorf("%w: duplicate field", ErrSchemaMismatch))
		}
		f.Stride = f.stride()
		if f.IsText() {
			if f.Stride != 1 {
				return nil, fieldErr(f.Name, fmt.Errorf("%w: text field with stride %d", ErrSchemaMismatch, f.Stride))
			}
			f.Elem = ElemAny
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Fields returns a copy of the fields in order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	return slices.Clone(s.fields)
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the field called name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether the schema has a field called name.
func (s *Schema) Has(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// Equal reports whether both schemas have the same fields in the same order.
func (s *Schema) Equal(o *Schema) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.Len() {
		if s.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// sameNames reports whether names holds exactly the schema's field names.
func (s *Schema) sameNames(names []string) bool {
	if len(names) != s.Len() {
		return false
	}
	for _, n := range names {
		if !s.Has(n) {
			return false
		}
	}
	return true
}
