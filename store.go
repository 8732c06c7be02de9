package lnqm

import "fmt"

// Store is a validated columnar sample store: one Column and one SliceIndex
// per schema field, all delimiting the same number of samples.
//
// A Store is never modified after construction, so it is safe for
// concurrent readers.
type Store struct {
	schema  *Schema
	columns map[string]Column
	slices  map[string]SliceIndex
	n       int
}

// NewStore assembles and validates a store. The maps are retained, not
// copied.
func NewStore(schema *Schema, columns map[string]Column, slices map[string]SliceIndex) (*Store, error) {
	if schema == nil {
		schema = MustSchema()
	}
	s := &Store{schema: schema, columns: columns, slices: slices}
	n, err := s.validate()
	if err != nil {
		return nil, err
	}
	s.n = n
	return s, nil
}

// emptyStore returns the store with no fields and no samples.
func emptyStore() *Store {
	return &Store{
		schema:  MustSchema(),
		columns: map[string]Column{},
		slices:  map[string]SliceIndex{},
	}
}

// Validate checks every store invariant: each schema field has a column of
// the declared kind and a slice index, no other fields are present, all
// indices delimit the same number of samples, and each index matches its
// column.
func (s *Store) Validate() error {
	_, err := s.validate()
	return err
}

// validate checks the invariants and returns the number of samples.
func (s *Store) validate() (int, error) {
	if len(s.columns) != s.schema.Len() || len(s.slices) != s.schema.Len() {
		return 0, fmt.Errorf("%w: %d fields in schema, %d columns, %d slice indices",
			ErrSchemaMismatch, s.schema.Len(), len(s.columns), len(s.slices))
	}

	n := 0
	for i, f := range s.schema.fields {
		col, ok := s.columns[f.Name]
		if !ok {
			return 0, fieldErr(f.Name, fmt.Errorf("%w: missing column", ErrSchemaMismatch))
		}
		idx, ok := s.slices[f.Name]
		if !ok {
			return 0, fieldErr(f.Name, fmt.Errorf("%w: missing slice index", ErrSchemaMismatch))
		}
		if col.Kind() != f.Kind {
			return 0, fieldErr(f.Name, fmt.Errorf("%w: %v column for %v field", ErrSchemaMismatch, col.Kind(), f.Kind))
		}
		if f.Kind == KindNumeric && col.buf.Elem() == ElemAny {
			return 0, fieldErr(f.Name, fmt.Errorf("%w: untyped buffer", ErrUnsupportedElementType))
		}
		if f.Kind == KindNumeric && f.Elem != ElemAny && col.buf.Elem() != f.Elem {
			return 0, fieldErr(f.Name, fmt.Errorf("%w: %v buffer for %v field", ErrUnsupportedElementType, col.buf.Elem(), f.Elem))
		}

		if i == 0 {
			if len(idx) == 0 {
				return 0, fieldErr(f.Name, fmt.Errorf("%w: empty slice index", ErrCorruptIndex))
			}
			n = idx.Samples()
		}

		var err error
		if f.Kind == KindText {
			err = idx.validateText(n, len(col.texts))
		} else {
			err = idx.Validate(n, f.stride(), col.buf.Len())
		}
		if err != nil {
			return 0, fieldErr(f.Name, err)
		}
	}
	return n, nil
}

// Len returns the number of samples.
func (s *Store) Len() int { return s.n }

// IsEmpty reports whether the store has no fields.
func (s *Store) IsEmpty() bool { return s.schema.Len() == 0 }

// Schema returns the store's schema.
func (s *Store) Schema() *Schema { return s.schema }

// Column returns the column of a field.
func (s *Store) Column(field string) (Column, bool) {
	c, ok := s.columns[field]
	return c, ok
}

// Offsets returns the slice index of a field. The result must not be
// modified.
func (s *Store) Offsets(field string) (SliceIndex, bool) {
	idx, ok := s.slices[field]
	return idx, ok
}

// Boundaries returns the half-open range of sample i in field's column:
// buffer elements (stride applied) for numeric fields, string positions for
// text fields.
func (s *Store) Boundaries(field string, i int) (start, end int, err error) {
	f, ok := s.schema.Field(field)
	if !ok {
		return 0, 0, fmt.Errorf("%w: no field %q", ErrOutOfRange, field)
	}
	if i < 0 || i >= s.n {
		return 0, 0, fmt.Errorf("%w: sample %d of %d", ErrOutOfRange, i, s.n)
	}
	idx := s.slices[field]
	stride := int64(f.stride())
	return int(idx[i] * stride), int(idx[i+1] * stride), nil
}

// Read returns elements [start, end) of field's column without copying. For
// text fields the range must cover exactly one string.
func (s *Store) Read(field string, start, end int) (Value, error) {
	col, ok := s.columns[field]
	if !ok {
		return Value{}, fmt.Errorf("%w: no field %q", ErrOutOfRange, field)
	}
	if start < 0 || end < start || end > col.Len() {
		return Value{}, fieldErr(field, fmt.Errorf("%w: range [%d, %d) of %d", ErrOutOfRange, start, end, col.Len()))
	}
	if col.Kind() == KindText {
		if end-start != 1 {
			return Value{}, fieldErr(field, fmt.Errorf("%w: text range [%d, %d) must hold one string", ErrOutOfRange, start, end))
		}
		return TextValue(col.texts[start]), nil
	}
	return BufferValue(col.buf.Slice(start, end)), nil
}

// Sample returns every field's run for sample i.
func (s *Store) Sample(i int) (Sample, error) {
	if i < 0 || i >= s.n {
		return nil, fmt.Errorf("%w: sample %d of %d", ErrOutOfRange, i, s.n)
	}
	out := make(Sample, s.schema.Len())
	for _, f := range s.schema.fields {
		start, end, err := s.Boundaries(f.Name, i)
		if err != nil {
			return nil, err
		}
		v, err := s.Read(f.Name, start, end)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// Equal reports whether both stores have equal schemas, columns and
// offsets.
func (s *Store) Equal(o *Store) bool {
	if !s.schema.Equal(o.schema) || s.n != o.n {
		return false
	}
	for _, name := range s.schema.Names() {
		if !s.columns[name].Equal(o.columns[name]) {
			return false
		}
		a, b := s.slices[name], o.slices[name]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}
