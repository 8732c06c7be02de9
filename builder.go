package lnqm

import (
	"fmt"
	"maps"
)

// Builder assembles a Store one sample at a time.
//
// Each call to Append adds one sample holding a value for every schema
// field.
type Builder struct {
	schema  *Schema
	fields  []Field
	columns map[string]Column
	slices  map[string]SliceIndex
	err     error
}

// NewBuilder creates a builder for schema.
func NewBuilder(schema *Schema) *Builder {
	if schema == nil {
		schema = MustSchema()
	}
	b := &Builder{
		schema:  schema,
		fields:  schema.Fields(),
		columns: make(map[string]Column, schema.Len()),
		slices:  make(map[string]SliceIndex, schema.Len()),
	}
	for _, f := range b.fields {
		b.slices[f.Name] = SliceIndex{0}
		if f.IsText() {
			b.columns[f.Name] = TextColumn([]string{})
		} else {
			b.columns[f.Name] = NumericColumn(Buffer{elem: f.Elem})
		}
	}
	return b
}

// Len returns the number of samples appended so far.
func (b *Builder) Len() int {
	if len(b.fields) == 0 {
		return 0
	}
	return b.slices[b.fields[0].Name].Samples()
}

// Append adds one sample. values must hold exactly the schema's fields;
// numeric runs must match the field's element type and be a multiple of
// its stride. A rejected sample is not added, and every later Append and
// Build returns the same error.
func (b *Builder) Append(values Sample) error {
	if b.err != nil {
		return b.err
	}
	if err := b.check(values); err != nil {
		b.err = err
		return err
	}

	for i, f := range b.fields {
		v := values[f.Name]
		col := b.columns[f.Name]
		idx := b.slices[f.Name]
		if f.IsText() {
			col.texts = append(col.texts, v.Text())
			idx = append(idx, idx[len(idx)-1]+1)
		} else {
			col.buf = appendBuffer(col.buf, v.Buffer())
			if f.Elem == ElemAny {
				b.fields[i].Elem = col.buf.Elem()
			}
			idx = append(idx, idx[len(idx)-1]+int64(v.Len()/f.stride()))
		}
		b.columns[f.Name] = col
		b.slices[f.Name] = idx
	}
	return nil
}

func (b *Builder) check(values Sample) error {
	if len(values) != len(b.fields) {
		for name := range values {
			if !b.schema.Has(name) {
				return fieldErr(name, fmt.Errorf("%w: field not in schema", ErrSchemaMismatch))
			}
		}
	}
	for _, f := range b.fields {
		v, ok := values[f.Name]
		if !ok {
			return fieldErr(f.Name, fmt.Errorf("%w: missing from sample %d", ErrSchemaMismatch, b.Len()))
		}
		if v.Kind() != f.Kind {
			return fieldErr(f.Name, fmt.Errorf("%w: %v value for %v field", ErrSchemaMismatch, v.Kind(), f.Kind))
		}
		if f.IsText() {
			continue
		}
		elem := v.Buffer().Elem()
		if elem == ElemAny {
			return fieldErr(f.Name, fmt.Errorf("%w: untyped value", ErrUnsupportedElementType))
		}
		if f.Elem != ElemAny && elem != f.Elem {
			return fieldErr(f.Name, fmt.Errorf("%w: %v value for %v field", ErrUnsupportedElementType, elem, f.Elem))
		}
		if v.Len()%f.stride() != 0 {
			return fieldErr(f.Name, fmt.Errorf("%w: run of %d elements is not a multiple of stride %d",
				ErrCorruptIndex, v.Len(), f.stride()))
		}
	}
	return nil
}

// Build validates and returns the store. The builder must not be used
// afterwards.
func (b *Builder) Build() (*Store, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.fields) == 0 {
		return emptyStore(), nil
	}
	for i, f := range b.fields {
		if f.IsText() || f.Elem != ElemAny {
			continue
		}
		// No samples fixed the type.
		col := b.columns[f.Name]
		col.buf = emptyBuffer(ElemAny)
		b.columns[f.Name] = col
		b.fields[i].Elem = col.buf.Elem()
	}
	schema, err := NewSchema(b.fields...)
	if err != nil {
		return nil, err
	}
	return NewStore(schema, maps.Clone(b.columns), maps.Clone(b.slices))
}
