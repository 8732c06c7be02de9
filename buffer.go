package lnqm

import (
	"fmt"
	"slices"
)

// Buffer is a flat numeric buffer tagged with its element type. Exactly one
// of the typed slices is in use.
type Buffer struct {
	elem ElemType
	f64  []float64
	f32  []float32
	i64  []int64
}

// Float64Buffer wraps v without copying.
func Float64Buffer(v []float64) Buffer { return Buffer{elem: ElemFloat64, f64: v} }

// Float32Buffer wraps v without copying.
func Float32Buffer(v []float32) Buffer { return Buffer{elem: ElemFloat32, f32: v} }

// Int64Buffer wraps v without copying.
func Int64Buffer(v []int64) Buffer { return Buffer{elem: ElemInt64, i64: v} }

// Elem returns the element type.
func (b Buffer) Elem() ElemType { return b.elem }

// Len returns the number of elements.
func (b Buffer) Len() int {
	switch b.elem {
	case ElemFloat64:
		return len(b.f64)
	case ElemFloat32:
		return len(b.f32)
	case ElemInt64:
		return len(b.i64)
	}
	return 0
}

// Float64s returns the underlying slice, or nil if the buffer is not float64.
func (b Buffer) Float64s() []float64 { return b.f64 }

// Float32s returns the underlying slice, or nil if the buffer is not float32.
func (b Buffer) Float32s() []float32 { return b.f32 }

// Int64s returns the underlying slice, or nil if the buffer is not int64.
func (b Buffer) Int64s() []int64 { return b.i64 }

// Slice returns the sub-buffer [start, end) sharing b's memory.
func (b Buffer) Slice(start, end int) Buffer {
	switch b.elem {
	case ElemFloat64:
		return Float64Buffer(b.f64[start:end:end])
	case ElemFloat32:
		return Float32Buffer(b.f32[start:end:end])
	case ElemInt64:
		return Int64Buffer(b.i64[start:end:end])
	}
	return b
}

// AsFloat64 returns the elements as float64, converting if needed. A
// float64 buffer is returned without copying.
func (b Buffer) AsFloat64() []float64 {
	switch b.elem {
	case ElemFloat64:
		return b.f64
	case ElemFloat32:
		out := make([]float64, len(b.f32))
		for i, v := range b.f32 {
			out[i] = float64(v)
		}
		return out
	case ElemInt64:
		out := make([]float64, len(b.i64))
		for i, v := range b.i64 {
			out[i] = float64(v)
		}
		return out
	}
	return nil
}

// Equal reports whether both buffers have the same type and elements.
// NaNs compare unequal.
func (b Buffer) Equal(o Buffer) bool {
	if b.elem != o.elem {
		return false
	}
	switch b.elem {
	case ElemFloat64:
		return slices.Equal(b.f64, o.f64)
	case ElemFloat32:
		return slices.Equal(b.f32, o.f32)
	case ElemInt64:
		return slices.Equal(b.i64, o.i64)
	}
	return true
}

func (b Buffer) String() string {
	switch b.elem {
	case ElemFloat64:
		return fmt.Sprint(b.f64)
	case ElemFloat32:
		return fmt.Sprint(b.f32)
	case ElemInt64:
		return fmt.Sprint(b.i64)
	}
	return "[]"
}

// appendBuffer appends src to dst, which must have the same element type
// unless dst is still untyped.
func appendBuffer(dst, src Buffer) Buffer {
	if dst.elem == ElemAny {
		dst.elem = src.elem
	}
	switch src.elem {
	case ElemFloat64:
		dst.f64 = append(dst.f64, src.f64...)
	case ElemFloat32:
		dst.f32 = append(dst.f32, src.f32...)
	case ElemInt64:
		dst.i64 = append(dst.i64, src.i64...)
	}
	return dst
}

// emptyBuffer returns a zero-length buffer of the given type; ElemAny
// becomes float64.
func emptyBuffer(elem ElemType) Buffer {
	switch elem {
	case ElemFloat32:
		return Float32Buffer([]float32{})
	case ElemInt64:
		return Int64Buffer([]int64{})
	default:
		return Float64Buffer([]float64{})
	}
}

// Value is one sample's data for one field: a numeric run or a string.
type Value struct {
	buf    Buffer
	text   string
	isText bool
}

// Float64Value returns a numeric value holding v.
func Float64Value(v ...float64) Value { return Value{buf: Float64Buffer(v)} }

// Float32Value returns a numeric value holding v.
func Float32Value(v ...float32) Value { return Value{buf: Float32Buffer(v)} }

// Int64Value returns a numeric value holding v.
func Int64Value(v ...int64) Value { return Value{buf: Int64Buffer(v)} }

// BufferValue returns a numeric value holding b.
func BufferValue(b Buffer) Value { return Value{buf: b} }

// TextValue returns a text value.
func TextValue(s string) Value { return Value{text: s, isText: true} }

// Kind returns KindText for strings and KindNumeric otherwise.
func (v Value) Kind() Kind {
	if v.isText {
		return KindText
	}
	return KindNumeric
}

// IsText reports whether v holds a string.
func (v Value) IsText() bool { return v.isText }

// Text returns the string of a text value.
func (v Value) Text() string { return v.text }

// Buffer returns the numeric run of a numeric value.
func (v Value) Buffer() Buffer { return v.buf }

// Len returns the number of elements, or 1 for text.
func (v Value) Len() int {
	if v.isText {
		return 1
	}
	return v.buf.Len()
}

// Equal reports whether both values hold the same data.
func (v Value) Equal(o Value) bool {
	if v.isText || o.isText {
		return v.isText == o.isText && v.text == o.text
	}
	return v.buf.Equal(o.buf)
}

func (v Value) String() string {
	if v.isText {
		return v.text
	}
	return v.buf.String()
}

// Column is the stored data of one field across all samples.
type Column struct {
	kind  Kind
	buf   Buffer
	texts []string
}

// NumericColumn returns a column backed by b.
func NumericColumn(b Buffer) Column { return Column{kind: KindNumeric, buf: b} }

// TextColumn returns a column with one string per sample.
func TextColumn(texts []string) Column { return Column{kind: KindText, texts: texts} }

// Kind returns the column kind.
func (c Column) Kind() Kind { return c.kind }

// Buffer returns the numeric buffer of a numeric column.
func (c Column) Buffer() Buffer { return c.buf }

// Texts returns the strings of a text column.
func (c Column) Texts() []string { return c.texts }

// Len returns the number of buffer elements or strings.
func (c Column) Len() int {
	if c.kind == KindText {
		return len(c.texts)
	}
	return c.buf.Len()
}

// Equal reports whether both columns hold the same data.
func (c Column) Equal(o Column) bool {
	if c.kind != o.kind {
		return false
	}
	if c.kind == KindText {
		return slices.Equal(c.texts, o.texts)
	}
	return c.buf.Equal(o.buf)
}
