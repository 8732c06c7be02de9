package lnqm

import "fmt"

// Sample maps each field name to one sample's value. Numeric values share
// memory with the store they were read from and must not be modified.
type Sample map[string]Value

func (s Sample) get(name string) (Value, error) {
	v, ok := s[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: no field %q", ErrOutOfRange, name)
	}
	return v, nil
}

// Float64s returns a numeric field as float64. Float64 runs are returned
// without copying; float32 and int64 runs are converted.
func (s Sample) Float64s(name string) ([]float64, error) {
	v, err := s.get(name)
	if err != nil {
		return nil, err
	}
	if v.IsText() {
		return nil, fieldErr(name, fmt.Errorf("%w: text field read as float64", ErrUnsupportedElementType))
	}
	return v.Buffer().AsFloat64(), nil
}

// Int64s returns an int64 field.
func (s Sample) Int64s(name string) ([]int64, error) {
	v, err := s.get(name)
	if err != nil {
		return nil, err
	}
	if v.IsText() || v.Buffer().Elem() != ElemInt64 {
		return nil, fieldErr(name, fmt.Errorf("%w: %v field read as int64", ErrUnsupportedElementType, v.describe()))
	}
	return v.Buffer().Int64s(), nil
}

// Text returns a text field.
func (s Sample) Text(name string) (string, error) {
	v, err := s.get(name)
	if err != nil {
		return "", err
	}
	if !v.IsText() {
		return "", fieldErr(name, fmt.Errorf("%w: %v field read as text", ErrUnsupportedElementType, v.describe()))
	}
	return v.Text(), nil
}

// UID returns the sample's identifier.
func (s Sample) UID() (string, error) {
	return s.Text(UIDField)
}

func (v Value) describe() string {
	if v.isText {
		return "text"
	}
	return v.buf.Elem().String()
}
